package listview

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/northgate/atrium/internal/api"
	"github.com/northgate/atrium/internal/push"
	"github.com/northgate/atrium/internal/resource"
)

type fakeBackend struct {
	mu    sync.Mutex
	lists []url.Values
	list  func(ctx context.Context, params url.Values) (api.Page, error)

	updates   []map[string]any
	updateErr error
	updated   *resource.Resource
	onUpdate  func() // runs while the update is in flight

	deletes   []string
	deleteErr error

	reorders    []api.Move
	reorderErr  error
	reorderRows []resource.Resource

	creates   []map[string]any
	createErr error
}

var _ api.Backend = (*fakeBackend)(nil)

func (b *fakeBackend) List(ctx context.Context, d resource.Descriptor, params url.Values) (api.Page, error) {
	b.mu.Lock()
	b.lists = append(b.lists, params)
	fn := b.list
	b.mu.Unlock()
	if fn == nil {
		return api.Page{}, nil
	}
	return fn(ctx, params)
}

func (b *fakeBackend) Create(ctx context.Context, d resource.Descriptor, fields map[string]any) (*resource.Resource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creates = append(b.creates, fields)
	if b.createErr != nil {
		return nil, b.createErr
	}
	r := resource.New("new-1", fields)
	return &r, nil
}

func (b *fakeBackend) Update(ctx context.Context, d resource.Descriptor, id, version string, fields map[string]any) (*resource.Resource, error) {
	b.mu.Lock()
	b.updates = append(b.updates, fields)
	hook, err, updated := b.onUpdate, b.updateErr, b.updated
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	return updated, err
}

func (b *fakeBackend) Delete(ctx context.Context, d resource.Descriptor, id, version string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, id)
	return b.deleteErr
}

func (b *fakeBackend) Reorder(ctx context.Context, d resource.Descriptor, id string, move api.Move) ([]resource.Resource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reorders = append(b.reorders, move)
	return b.reorderRows, b.reorderErr
}

func (b *fakeBackend) listCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lists)
}

func (b *fakeBackend) lastList() url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lists) == 0 {
		return nil
	}
	return b.lists[len(b.lists)-1]
}

type fakeChannel struct {
	mu       sync.Mutex
	state    push.State
	next     int
	handlers map[int]push.Handler
	watchers map[int]func(push.State)
}

var _ push.Channel = (*fakeChannel)(nil)

func newFakeChannel(s push.State) *fakeChannel {
	return &fakeChannel{state: s, handlers: map[int]push.Handler{}, watchers: map[int]func(push.State){}}
}

func (c *fakeChannel) Subscribe(kind resource.Kind, h push.Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	id := c.next
	c.handlers[id] = h
	return func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}
}

func (c *fakeChannel) OnStateChange(fn func(push.State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	id := c.next
	c.watchers[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

func (c *fakeChannel) State() push.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeChannel) emit(ev push.Event) {
	c.mu.Lock()
	var hs []push.Handler
	for _, h := range c.handlers {
		hs = append(hs, h)
	}
	c.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

func (c *fakeChannel) set(s push.State) {
	c.mu.Lock()
	c.state = s
	var ws []func(push.State)
	for _, w := range c.watchers {
		ws = append(ws, w)
	}
	c.mu.Unlock()
	for _, w := range ws {
		w(s)
	}
}

func (c *fakeChannel) subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

type notices struct {
	mu   sync.Mutex
	list []Notice
}

func (n *notices) add(x Notice) {
	n.mu.Lock()
	n.list = append(n.list, x)
	n.mu.Unlock()
}

func (n *notices) last() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.list) == 0 {
		return Notice{}
	}
	return n.list[len(n.list)-1]
}

func descriptor(t *testing.T, kind resource.Kind) resource.Descriptor {
	t.Helper()
	d, ok := resource.Lookup(kind)
	if !ok {
		t.Fatalf("no descriptor for %q", kind)
	}
	return d
}

// article builds a row created on the given day of January 2024.
func article(id, status string, day int) resource.Resource {
	return resource.New(id, map[string]any{
		"title":     "Article " + id,
		"status":    status,
		"createdAt": fmt.Sprintf("2024-01-%02dT09:00:00Z", day),
	})
}

// publishedPage is page 1 of 25 published articles, newest first.
func publishedPage() api.Page {
	rows := make([]resource.Resource, 10)
	for i := range rows {
		rows[i] = article(fmt.Sprintf("a%02d", i+1), "published", 28-i)
	}
	return api.Page{Rows: rows, Pagination: api.Pagination{Page: 1, Limit: 10, Total: 25, Pages: 3}}
}

func staticList(page api.Page) func(context.Context, url.Values) (api.Page, error) {
	return func(context.Context, url.Values) (api.Page, error) { return page, nil }
}

type harness struct {
	view    *View
	backend *fakeBackend
	channel *fakeChannel
	notices *notices
	auth    []error
	confirm bool
}

func newHarness(t *testing.T, kind resource.Kind, backend *fakeBackend, channel *fakeChannel) *harness {
	t.Helper()
	h := &harness{backend: backend, channel: channel, notices: &notices{}, confirm: true}
	opts := Options{
		Descriptor: descriptor(t, kind),
		Backend:    backend,
		PageSize:   10,
		Notify:     h.notices.add,
		OnAuth:     func(err error) { h.auth = append(h.auth, err) },
		Confirm:    func(context.Context, string) bool { return h.confirm },
	}
	if channel != nil {
		opts.Channel = channel
	}
	h.view = New(opts)
	t.Cleanup(h.view.Close)
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
