// Package fault classifies failures surfaced by the API client, the push
// channel and the list view core.
package fault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the failure category a caller reacts to.
type Kind int

const (
	// Unknown is returned by KindOf for errors that never passed through this package.
	Unknown Kind = iota
	// Validation covers client-side pre-flight rejections and 400-class server rejections.
	Validation
	// Network covers transport failures, timeouts and 5xx responses. Retry-safe.
	Network
	// Conflict means another session changed or removed the resource. Requires a fresh load.
	Conflict
	// Auth means the session is no longer valid. Never retried.
	Auth
	// NotFound means the resource disappeared between list and detail.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Network:
		return "network"
	case Conflict:
		return "conflict"
	case Auth:
		return "auth"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Op      string // e.g. "list articles", "delete carousel"
	Status  int    // HTTP status when the failure came from a response
	Message string // server or validator message suitable for display
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// FromStatus maps an HTTP status code onto the taxonomy.
func FromStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Auth
	case status == http.StatusNotFound || status == http.StatusGone:
		return NotFound
	case status == http.StatusConflict || status == http.StatusPreconditionFailed:
		return Conflict
	case status >= 500:
		return Network
	case status >= 400:
		return Validation
	default:
		return Unknown
	}
}

// KindOf reports the category of err. Context deadline errors count as
// Network; everything unclassified is Unknown.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Network
	}
	return Unknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether repeating the same call may succeed.
func Retryable(err error) bool {
	return KindOf(err) == Network
}

// Resync reports whether err invalidates the locally held rows.
func Resync(err error) bool {
	k := KindOf(err)
	return k == Conflict || k == NotFound
}

// Message returns the display text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return err.Error()
}
