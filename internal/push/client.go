package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/northgate/atrium/internal/resource"
)

// State is the connection state of the channel.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "live"
	default:
		return "offline"
	}
}

// Handler receives events for one kind. Handlers run sequentially on the
// channel's read goroutine and must not block for long.
type Handler func(Event)

// Channel is the subscription surface a view needs. The connection itself is
// shared; no subscriber owns it.
type Channel interface {
	Subscribe(kind resource.Kind, h Handler) (unsubscribe func())
	OnStateChange(fn func(State)) (unsubscribe func())
	State() State
}

// Ensure Client implements Channel at compile time.
var _ Channel = (*Client)(nil)

// TokenFunc yields the bearer token sent in the handshake.
type TokenFunc func(ctx context.Context) (string, error)

const (
	defaultBackoffBase = time.Second
	// MaxBackoff caps the delay between reconnect attempts.
	MaxBackoff  = 30 * time.Second
	dialTimeout = 10 * time.Second
	readLimit   = 1 << 20
)

// Client is one multiplexed websocket connection carrying events for every
// kind.
type Client struct {
	url   string
	token TokenFunc
	base  time.Duration
	log   *zap.Logger

	mu       sync.Mutex
	state    State
	nextID   uint64
	subs     map[resource.Kind]map[uint64]Handler
	watchers map[uint64]func(State)
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the handshake token source.
func WithToken(fn TokenFunc) Option {
	return func(c *Client) { c.token = fn }
}

// WithBackoff sets the first reconnect delay.
func WithBackoff(base time.Duration) Option {
	return func(c *Client) {
		if base > 0 {
			c.base = base
		}
	}
}

// WithLogger sets the channel logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient builds a client for the websocket endpoint at rawURL. http and
// https schemes are rewritten to ws and wss.
func NewClient(rawURL string, opts ...Option) (*Client, error) {
	u, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		url:      u,
		base:     defaultBackoffBase,
		log:      zap.NewNop(),
		subs:     map[resource.Kind]map[uint64]Handler{},
		watchers: map[uint64]func(State){},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URLFromAPI derives the push endpoint from the REST base URL: same host, ws
// scheme, path /realtime.
func URLFromAPI(apiURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(apiURL))
	if err != nil {
		return "", fmt.Errorf("parse api url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse api url %q: missing host", apiURL)
	}
	u.Path = "/realtime"
	u.RawQuery = ""
	u.Fragment = ""
	return normalizeURL(u.String())
}

func normalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("push url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "ws://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse push url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("push url %q: unsupported scheme %q", raw, u.Scheme)
	}
	return u.String(), nil
}

// URL returns the websocket endpoint.
func (c *Client) URL() string { return c.url }

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers h for events of kind. The returned function releases
// the subscription; calling it more than once is harmless.
func (c *Client) Subscribe(kind resource.Kind, h Handler) func() {
	if h == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	if c.subs[kind] == nil {
		c.subs[kind] = map[uint64]Handler{}
	}
	c.subs[kind][id] = h
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs[kind], id)
			if len(c.subs[kind]) == 0 {
				delete(c.subs, kind)
			}
			c.mu.Unlock()
		})
	}
}

// OnStateChange registers fn for connection state transitions.
func (c *Client) OnStateChange(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.watchers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, id)
			c.mu.Unlock()
		})
	}
}

// Subscribers reports how many handlers are registered for kind.
func (c *Client) Subscribers(kind resource.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[kind])
}

// Run keeps the connection up until ctx is cancelled, reconnecting with
// exponential backoff. It returns nil on cancellation.
func (c *Client) Run(ctx context.Context) error {
	failures := 0
	for {
		if ctx.Err() != nil {
			c.setState(Disconnected)
			return nil
		}
		c.setState(Connecting)
		connected, err := c.session(ctx)
		c.setState(Disconnected)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			failures = 0
		}
		wait := Backoff(failures, c.base, MaxBackoff)
		failures++
		c.log.Warn("push channel dropped",
			zap.String("url", c.url),
			zap.Int("failures", failures),
			zap.Duration("retry_in", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.setState(Disconnected)
			return nil
		case <-timer.C:
		}
	}
}

func (c *Client) session(ctx context.Context) (bool, error) {
	header := http.Header{}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return false, fmt.Errorf("obtain token: %w", err)
		}
		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{HTTPHeader: header})
	cancel()
	if err != nil {
		return false, fmt.Errorf("dial websocket: %w", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "closing") }()
	conn.SetReadLimit(readLimit)

	c.setState(Connected)
	c.log.Info("push channel connected", zap.String("url", c.url))

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return true, fmt.Errorf("read websocket: %w", err)
		}
		ev, err := ParseFrame(data)
		if err != nil {
			c.log.Debug("skipping malformed push frame", zap.Error(err))
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev Event) {
	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.subs[ev.Kind]))
	for _, h := range c.subs[ev.Kind] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	watchers := make([]func(State), 0, len(c.watchers))
	for _, fn := range c.watchers {
		watchers = append(watchers, fn)
	}
	c.mu.Unlock()

	for _, fn := range watchers {
		fn(s)
	}
}

// Backoff returns base·2^failures capped at ceiling. Negative failure counts
// count as zero.
func Backoff(failures int, base, ceiling time.Duration) time.Duration {
	if failures < 0 {
		failures = 0
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}
