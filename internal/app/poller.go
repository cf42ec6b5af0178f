package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/northgate/atrium/internal/fault"
	"github.com/northgate/atrium/internal/listview"
	"github.com/northgate/atrium/internal/push"
)

const (
	defaultPollInterval = 15 * time.Second
	maxBackoff          = push.MaxBackoff
)

// Reloader is the view the poller keeps fresh.
type Reloader interface {
	Load(ctx context.Context) error
}

// ActiveFunc returns the view currently on screen, or nil.
type ActiveFunc func() Reloader

// Poller reloads the active view while the push channel is down. Once the
// channel is connected, push events keep the view current and polls stop.
type Poller struct {
	Active   ActiveFunc
	Channel  push.Channel // nil means always poll
	Interval time.Duration
	Logger   *zap.Logger

	failures int
}

// Run polls until ctx ends. It always returns nil.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		p.poll(ctx, log)
		timer.Reset(calculateBackoff(p.failures, interval))
	}
}

func (p *Poller) poll(ctx context.Context, log *zap.Logger) {
	if p.Channel != nil && p.Channel.State() == push.Connected {
		p.failures = 0
		return
	}
	v := p.Active()
	if v == nil {
		return
	}
	err := v.Load(ctx)
	switch {
	case err == nil:
		p.failures = 0
	case errors.Is(err, listview.ErrSuperseded), errors.Is(err, listview.ErrClosed), ctx.Err() != nil:
	case !fault.Retryable(err):
		// Auth and validation failures are not fixed by polling faster or slower.
		log.Error("fallback poll rejected", zap.Stringer("kind", fault.KindOf(err)), zap.Error(err))
	default:
		p.failures++
		log.Warn("fallback poll failed",
			zap.Int("failures", p.failures),
			zap.Duration("next", calculateBackoff(p.failures, p.Interval)),
			zap.Error(err))
	}
}

// calculateBackoff returns the delay before the next poll after the given
// number of consecutive failures.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	return push.Backoff(failures, base, maxBackoff)
}
