package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/northgate/atrium/internal/fault"
	"github.com/northgate/atrium/internal/listview"
	"github.com/northgate/atrium/internal/push"
	"github.com/northgate/atrium/internal/resource"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type countingView struct {
	loads atomic.Int32
	err   error
}

func (v *countingView) Load(context.Context) error {
	v.loads.Add(1)
	return v.err
}

type stateChannel struct{ state push.State }

func (c stateChannel) Subscribe(resource.Kind, push.Handler) func() { return func() {} }
func (c stateChannel) OnStateChange(func(push.State)) func()         { return func() {} }
func (c stateChannel) State() push.State                            { return c.state }

func TestPoller_SkipsWhileConnected(t *testing.T) {
	v := &countingView{}
	p := &Poller{Active: func() Reloader { return v }, Channel: stateChannel{push.Connected}, Interval: time.Second}
	p.poll(context.Background(), zap.NewNop())
	if got := v.loads.Load(); got != 0 {
		t.Fatalf("loads = %d, want 0 while connected", got)
	}
}

func TestPoller_CountsFailuresAndResets(t *testing.T) {
	v := &countingView{err: fault.New(fault.Network, "list articles", "connection refused")}
	p := &Poller{Active: func() Reloader { return v }, Channel: stateChannel{push.Disconnected}, Interval: time.Second}

	p.poll(context.Background(), zap.NewNop())
	p.poll(context.Background(), zap.NewNop())
	if p.failures != 2 {
		t.Fatalf("failures = %d, want 2", p.failures)
	}

	v.err = listview.ErrSuperseded
	p.poll(context.Background(), zap.NewNop())
	if p.failures != 2 {
		t.Fatalf("failures = %d after superseded load, want 2", p.failures)
	}

	v.err = nil
	p.poll(context.Background(), zap.NewNop())
	if p.failures != 0 {
		t.Fatalf("failures = %d after success, want 0", p.failures)
	}
	if got := v.loads.Load(); got != 4 {
		t.Fatalf("loads = %d, want 4", got)
	}
}

func TestPoller_AuthFailureDoesNotBackOff(t *testing.T) {
	v := &countingView{err: fault.New(fault.Auth, "list articles", "token expired")}
	p := &Poller{Active: func() Reloader { return v }, Interval: time.Second}
	p.poll(context.Background(), zap.NewNop())
	if p.failures != 0 {
		t.Fatalf("failures = %d, want 0 for auth failure", p.failures)
	}
}

func TestPoller_NoActiveView(t *testing.T) {
	p := &Poller{Active: func() Reloader { return nil }}
	p.poll(context.Background(), zap.NewNop())
	if p.failures != 0 {
		t.Fatalf("failures = %d, want 0", p.failures)
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	v := &countingView{}
	p := &Poller{Active: func() Reloader { return v }, Interval: 5 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for v.loads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if v.loads.Load() == 0 {
		t.Fatal("poller never loaded with no channel")
	}
}
