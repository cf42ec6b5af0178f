package listview

import (
	"time"

	"github.com/northgate/atrium/internal/fault"
)

// Level grades a notice.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Failure
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Failure:
		return "error"
	default:
		return "info"
	}
}

// Notice is a transient, non-blocking message for the user.
type Notice struct {
	Level Level
	Text  string
	Kind  fault.Kind // set for failures
	At    time.Time
}

// NotifyFunc receives notices. It must not block.
type NotifyFunc func(Notice)

func (v *View) say(level Level, text string) {
	if v.notify == nil {
		return
	}
	v.notify(Notice{Level: level, Text: text, At: time.Now()})
}

func (v *View) noticeError(what string, err error) {
	if v.notify == nil || err == nil {
		return
	}
	kind := fault.KindOf(err)
	text := what + " failed: " + fault.Message(err)
	level := Failure
	switch kind {
	case fault.Conflict:
		text = what + ": changed by someone else, reloading"
		level = Warning
	case fault.NotFound:
		text = what + ": no longer exists, reloading"
		level = Warning
	case fault.Auth:
		text = what + ": session expired or not permitted"
	case fault.Network:
		text = what + " failed: server unreachable (" + fault.Message(err) + ")"
	}
	v.notify(Notice{Level: level, Text: text, Kind: kind, At: time.Now()})
}

// escalate forwards authentication failures to the session collaborator.
func (v *View) escalate(err error) {
	if v.onAuth != nil && fault.Is(err, fault.Auth) {
		v.onAuth(err)
	}
}
