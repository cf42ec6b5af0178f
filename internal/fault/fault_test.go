package fault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusOK, Unknown},
		{http.StatusBadRequest, Validation},
		{http.StatusUnprocessableEntity, Validation},
		{http.StatusUnauthorized, Auth},
		{http.StatusForbidden, Auth},
		{http.StatusNotFound, NotFound},
		{http.StatusConflict, Conflict},
		{http.StatusPreconditionFailed, Conflict},
		{http.StatusInternalServerError, Network},
		{http.StatusBadGateway, Network},
	}
	for _, tt := range tests {
		if got := FromStatus(tt.status); got != tt.want {
			t.Errorf("FromStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestKindOf_UnwrapsWrappedErrors(t *testing.T) {
	base := New(Conflict, "update article", "already changed")
	wrapped := fmt.Errorf("toggle: %w", base)

	if got := KindOf(wrapped); got != Conflict {
		t.Fatalf("KindOf = %v, want conflict", got)
	}
	if !Resync(wrapped) {
		t.Fatal("Resync = false, want true for conflict")
	}
	if Retryable(wrapped) {
		t.Fatal("Retryable = true, want false for conflict")
	}
	if Message(wrapped) != "already changed" {
		t.Fatalf("Message = %q, want server message", Message(wrapped))
	}
}

func TestKindOf_DeadlineIsNetwork(t *testing.T) {
	err := fmt.Errorf("execute request: %w", context.DeadlineExceeded)
	if got := KindOf(err); got != Network {
		t.Fatalf("KindOf = %v, want network", got)
	}
	if KindOf(errors.New("plain")) != Unknown {
		t.Fatal("plain errors should be unknown")
	}
	if KindOf(nil) != Unknown || Is(nil, Unknown) {
		t.Fatal("nil error should not match any kind")
	}
}

func TestError_MessageFallbacks(t *testing.T) {
	err := Wrap(Network, "list users", errors.New("connection refused"))
	if err.Error() != "list users: connection refused" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if Wrap(Network, "x", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
	bare := &Error{Kind: Auth}
	if bare.Error() != "auth error" {
		t.Fatalf("Error() = %q, want %q", bare.Error(), "auth error")
	}
}
