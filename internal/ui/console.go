package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/northgate/atrium/internal/api"
	"github.com/northgate/atrium/internal/listview"
	"github.com/northgate/atrium/internal/prefs"
	"github.com/northgate/atrium/internal/push"
	"github.com/northgate/atrium/internal/resource"
)

// Options configures the console.
type Options struct {
	Backend   api.Backend
	Channel   push.Channel // nil runs offline; the poller keeps views fresh
	Logger    *zap.Logger
	PageSize  int
	Prefs     prefs.Prefs
	PrefsPath string
}

// Console owns the bubbletea program and the list view on screen. Views and
// the push channel report through one buffered event queue that the model
// drains, so callbacks never touch model state directly.
type Console struct {
	backend   api.Backend
	channel   push.Channel
	log       *zap.Logger
	pageSize  int
	prefs     prefs.Prefs
	prefsPath string

	confirmTimeout time.Duration

	events chan tea.Msg

	mu     sync.Mutex
	active *listview.View
	ctx    context.Context
}

const eventBuffer = 256

// New builds a console. Nothing is loaded until Run.
func New(opts Options) *Console {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	return &Console{
		backend:   opts.Backend,
		channel:   opts.Channel,
		log:       log,
		pageSize:  opts.PageSize,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		events:    make(chan tea.Msg, eventBuffer),
		ctx:       context.Background(),

		confirmTimeout: ConfirmTimeout,
	}
}

// Active returns the view on screen, or nil before the first tab opens.
func (c *Console) Active() *listview.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Run starts the program and blocks until the user quits or ctx ends.
func (c *Console) Run(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	if c.channel != nil {
		unsub := c.channel.OnStateChange(func(s push.State) { c.post(connMsg(s)) })
		defer unsub()
	}

	p := tea.NewProgram(newModel(c), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()

	if v := c.swap(nil); v != nil {
		v.Close()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}

func (c *Console) context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// open builds the view for kind and makes it active. The previous view is
// returned so the caller can close it off the update loop.
func (c *Console) open(kind resource.Kind) (*listview.View, *listview.View) {
	d, ok := resource.Lookup(kind)
	if !ok {
		d, _ = resource.Lookup(resource.Kinds()[0])
	}
	var v *listview.View
	v = listview.New(listview.Options{
		Descriptor: d,
		Backend:    c.backend,
		Channel:    c.channel,
		Logger:     c.log,
		PageSize:   c.pageSize,
		Notify:     func(n listview.Notice) { c.post(noticeMsg(n)) },
		OnAuth:     func(err error) { c.post(authMsg{err: err}) },
		Confirm:    c.confirm,
		OnChange:   func() { c.post(changedMsg{view: v}) },
	})
	return v, c.swap(v)
}

func (c *Console) swap(v *listview.View) *listview.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.active
	c.active = v
	return old
}

// post queues msg for the model without blocking. Change notifications are
// coalesced by dropping when the queue is full, since the model always reads
// the latest snapshot.
func (c *Console) post(msg tea.Msg) {
	select {
	case c.events <- msg:
	default:
		if _, ok := msg.(changedMsg); !ok {
			c.log.Warn("console event dropped", zap.String("type", fmt.Sprintf("%T", msg)))
		}
	}
}

// confirm shows a modal and blocks the calling dispatcher until the user
// answers, ConfirmTimeout passes or ctx ends. An unanswered prompt counts as
// declined and its modal is dismissed.
func (c *Console) confirm(ctx context.Context, prompt string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	reply := make(chan bool, 1)
	select {
	case c.events <- confirmMsg{prompt: prompt, reply: reply}:
	case <-ctx.Done():
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		c.post(dismissMsg{reply: reply})
		return false
	}
}

// wait returns a command that delivers the next queued event.
func (c *Console) wait() tea.Cmd {
	ctx := c.context()
	return func() tea.Msg {
		select {
		case msg := <-c.events:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Console) savePrefs(p prefs.Prefs) {
	if c.prefsPath == "" {
		return
	}
	if err := prefs.Save(c.prefsPath, p); err != nil {
		c.log.Warn("save prefs failed", zap.Error(err))
	}
}

// Messages

type changedMsg struct{ view *listview.View }

type noticeMsg listview.Notice

type authMsg struct{ err error }

type connMsg push.State

type confirmMsg struct {
	prompt string
	reply  chan<- bool
}

// dismissMsg closes the modal answering reply, if it is still open.
type dismissMsg struct{ reply chan<- bool }

type openedMsg struct {
	view *listview.View
	err  error
}

type actionDoneMsg struct {
	op  string
	err error
}

type toastExpireMsg struct{ id int }
