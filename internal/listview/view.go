package listview

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/northgate/atrium/internal/api"
	"github.com/northgate/atrium/internal/push"
	"github.com/northgate/atrium/internal/query"
	"github.com/northgate/atrium/internal/resource"
	"github.com/northgate/atrium/internal/state"
)

var (
	// ErrSuperseded is returned by a load whose response arrived after a newer
	// load was issued or after the view was closed. Its rows were discarded.
	ErrSuperseded = errors.New("listview: load superseded")
	// ErrClosed is returned by operations on a closed view.
	ErrClosed = errors.New("listview: view closed")
	// ErrDeclined is returned when the user did not confirm a destructive
	// action.
	ErrDeclined = errors.New("listview: action not confirmed")
)

// ConfirmFunc asks the user to confirm prompt and blocks until answered.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// AuthFunc receives authentication failures for the session layer.
type AuthFunc func(err error)

// Options configures a View.
type Options struct {
	Descriptor resource.Descriptor
	Backend    api.Backend
	Channel    push.Channel // nil means the push channel is always down
	Logger     *zap.Logger
	PageSize   int
	Query      *query.State // initial query; nil means the kind's defaults

	Notify   NotifyFunc
	OnAuth   AuthFunc
	Confirm  ConfirmFunc
	OnChange func() // called after every change to the row set or health
}

// View keeps one kind's paginated, filtered, sorted rows in sync with the
// server through loads, push events and the user's own writes.
type View struct {
	d       resource.Descriptor
	backend api.Backend
	channel push.Channel
	log     *zap.Logger

	notify   NotifyFunc
	onAuth   AuthFunc
	confirm  ConfirmFunc
	onChange func()

	store state.Store

	mu       sync.Mutex
	q        query.State
	seq      uint64
	inflight context.CancelFunc
	ctx      context.Context
	cancel   context.CancelFunc
	opened   bool
	closed   bool
	unsubs   []func()
	bg       sync.WaitGroup
}

// New builds a view with the kind's default query state. It does nothing
// until Open.
func New(opts Options) *View {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	q := query.New(opts.PageSize, query.ParseSort(opts.Descriptor.DefaultSort))
	if opts.Query != nil {
		q = opts.Query.Clone()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &View{
		d:        opts.Descriptor,
		backend:  opts.Backend,
		channel:  opts.Channel,
		log:      log.With(zap.String("kind", string(opts.Descriptor.Kind))),
		notify:   opts.Notify,
		onAuth:   opts.OnAuth,
		confirm:  opts.Confirm,
		onChange: opts.OnChange,
		q:        q,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Open subscribes to the kind's push events and issues the first load.
func (v *View) Open(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.opened {
		v.mu.Unlock()
		return errors.New("listview: view already open")
	}
	v.opened = true
	if v.channel != nil {
		v.unsubs = append(v.unsubs,
			v.channel.Subscribe(v.d.Kind, v.handle),
			v.channel.OnStateChange(v.onState),
		)
	}
	v.mu.Unlock()

	v.log.Debug("view opened")
	return v.Load(ctx)
}

// Close releases the subscription and makes every in-flight and later load
// response stale. It is safe to call more than once.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	if v.inflight != nil {
		v.inflight()
		v.inflight = nil
	}
	unsubs := v.unsubs
	v.unsubs = nil
	v.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	v.cancel()
	v.bg.Wait()
	v.log.Debug("view closed")
}

// Descriptor returns the kind the view lists.
func (v *View) Descriptor() resource.Descriptor { return v.d }

// Snapshot returns the rows and health to render.
func (v *View) Snapshot() state.Snapshot { return v.store.Snapshot() }

// Query returns a copy of the current query state.
func (v *View) Query() query.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.q.Clone()
}

// Live reports whether the push channel is connected.
func (v *View) Live() bool {
	return v.channel != nil && v.channel.State() == push.Connected
}

// Connection returns the push channel state.
func (v *View) Connection() push.State {
	if v.channel == nil {
		return push.Disconnected
	}
	return v.channel.State()
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *View) changed() {
	if v.onChange != nil {
		v.onChange()
	}
}

// reload runs a load in the background on the view's own context. Push
// handlers use it so the read goroutine never blocks on the network. A view
// that was never opened shows nothing, so it has nothing to refresh.
func (v *View) reload(reason string) {
	v.mu.Lock()
	if v.closed || !v.opened {
		v.mu.Unlock()
		return
	}
	v.bg.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.bg.Done()
		v.log.Debug("reloading", zap.String("reason", reason))
		if err := v.Load(v.ctx); err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, ErrClosed) {
			v.log.Warn("background reload failed", zap.String("reason", reason), zap.Error(err))
		}
	}()
}

// edit applies fn to the query state and loads when it changed something.
func (v *View) edit(ctx context.Context, fn func(q *query.State) bool) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	changed := fn(&v.q)
	v.mu.Unlock()
	if !changed {
		return nil
	}
	return v.Load(ctx)
}

// SetFilter sets or clears one filter and returns to page 1.
func (v *View) SetFilter(ctx context.Context, field, value string) error {
	return v.edit(ctx, func(q *query.State) bool { return q.SetFilter(field, value) })
}

// SetFilters replaces every filter and returns to page 1.
func (v *View) SetFilters(ctx context.Context, filters map[string]string) error {
	return v.edit(ctx, func(q *query.State) bool { return q.SetFilters(filters) })
}

// ClearFilters drops every filter and returns to page 1.
func (v *View) ClearFilters(ctx context.Context) error {
	return v.edit(ctx, func(q *query.State) bool { return q.ClearFilters() })
}

// SetSort changes the ordering and returns to page 1.
func (v *View) SetSort(ctx context.Context, s query.Sort) error {
	return v.edit(ctx, func(q *query.State) bool { return q.SetSort(s) })
}

// SetSearch changes the search term and returns to page 1.
func (v *View) SetSearch(ctx context.Context, term string) error {
	return v.edit(ctx, func(q *query.State) bool { return q.SetSearch(term) })
}

// SetPageSize changes the page size and returns to page 1.
func (v *View) SetPageSize(ctx context.Context, n int) error {
	return v.edit(ctx, func(q *query.State) bool { return q.SetPageSize(n) })
}

// SetPage jumps to page n, keeping filters, sort and search.
func (v *View) SetPage(ctx context.Context, n int) error {
	return v.edit(ctx, func(q *query.State) bool { return q.SetPage(n) })
}

// NextPage advances one page.
func (v *View) NextPage(ctx context.Context) error {
	return v.edit(ctx, func(q *query.State) bool { return q.NextPage() })
}

// PrevPage goes back one page.
func (v *View) PrevPage(ctx context.Context) error {
	return v.edit(ctx, func(q *query.State) bool { return q.PrevPage() })
}
