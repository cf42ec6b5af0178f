package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/northgate/atrium/internal/fault"
	"github.com/northgate/atrium/internal/resource"
)

// Backend is the REST surface the list view core needs. It is implemented by
// *Client and by test fakes.
type Backend interface {
	List(ctx context.Context, d resource.Descriptor, params url.Values) (Page, error)
	Create(ctx context.Context, d resource.Descriptor, fields map[string]any) (*resource.Resource, error)
	Update(ctx context.Context, d resource.Descriptor, id, version string, fields map[string]any) (*resource.Resource, error)
	Delete(ctx context.Context, d resource.Descriptor, id, version string) error
	Reorder(ctx context.Context, d resource.Descriptor, id string, move Move) ([]resource.Resource, error)
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// TokenSource yields the bearer token for each request. Token issuance and
// refresh belong to the caller.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Client talks to the content API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tokens    TokenSource
	log       *zap.Logger
}

const (
	defaultBaseURL   = "http://127.0.0.1:5000/api"
	defaultUserAgent = "atrium/0.3"
	requestTimeout   = 10 * time.Second
	maxErrorBody     = 64 << 10
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTokenSource attaches bearer tokens to every request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient builds a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// List fetches one page of a collection.
func (c *Client) List(ctx context.Context, d resource.Descriptor, params url.Values) (Page, error) {
	op := "list " + d.Collection
	data, err := c.do(ctx, op, http.MethodGet, d.Path, params, nil, "", "")
	if err != nil {
		return Page{}, err
	}
	page, err := decodeList(data, d.Collection)
	if err != nil {
		return Page{}, fault.Wrap(fault.Network, op, err)
	}
	return page, nil
}

// Get fetches one resource.
func (c *Client) Get(ctx context.Context, d resource.Descriptor, id string) (resource.Resource, error) {
	op := "get " + string(d.Kind)
	if strings.TrimSpace(id) == "" {
		return resource.Resource{}, fault.New(fault.Validation, op, "id required")
	}
	data, err := c.do(ctx, op, http.MethodGet, d.ItemPath(id), nil, nil, "", "")
	if err != nil {
		return resource.Resource{}, err
	}
	r, err := decodeResource(data, string(d.Kind), "item")
	if err != nil {
		return resource.Resource{}, fault.Wrap(fault.Network, op, err)
	}
	if r == nil {
		return resource.Resource{}, fault.New(fault.NotFound, op, "empty response")
	}
	return *r, nil
}

// Create posts a new resource. The returned resource is nil when the server
// answers without a body.
func (c *Client) Create(ctx context.Context, d resource.Descriptor, fields map[string]any) (*resource.Resource, error) {
	op := "create " + string(d.Kind)
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fault.Wrap(fault.Validation, op, err)
	}
	data, err := c.do(ctx, op, http.MethodPost, d.Path, nil, bytes.NewReader(body), "application/json", "")
	if err != nil {
		return nil, err
	}
	r, err := decodeResource(data, string(d.Kind), "item")
	if err != nil {
		return nil, fault.Wrap(fault.Network, op, err)
	}
	return r, nil
}

// Update sends a partial update. A non-empty version is sent as If-Match so
// the server can reject concurrent edits with 409/412.
func (c *Client) Update(ctx context.Context, d resource.Descriptor, id, version string, fields map[string]any) (*resource.Resource, error) {
	op := "update " + string(d.Kind)
	if strings.TrimSpace(id) == "" {
		return nil, fault.New(fault.Validation, op, "id required")
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fault.Wrap(fault.Validation, op, err)
	}
	data, err := c.do(ctx, op, http.MethodPut, d.ItemPath(id), nil, bytes.NewReader(body), "application/json", version)
	if err != nil {
		return nil, err
	}
	r, err := decodeResource(data, string(d.Kind), "item")
	if err != nil {
		return nil, fault.Wrap(fault.Network, op, err)
	}
	return r, nil
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, d resource.Descriptor, id, version string) error {
	op := "delete " + string(d.Kind)
	if strings.TrimSpace(id) == "" {
		return fault.New(fault.Validation, op, "id required")
	}
	_, err := c.do(ctx, op, http.MethodDelete, d.ItemPath(id), nil, nil, "", version)
	return err
}

// Reorder sends a move intent; the server decides the final order. When the
// response carries the reordered collection it is returned.
func (c *Client) Reorder(ctx context.Context, d resource.Descriptor, id string, move Move) ([]resource.Resource, error) {
	op := "reorder " + string(d.Kind)
	if strings.TrimSpace(id) == "" {
		return nil, fault.New(fault.Validation, op, "id required")
	}
	body, err := json.Marshal(move)
	if err != nil {
		return nil, fault.Wrap(fault.Validation, op, err)
	}
	data, err := c.do(ctx, op, http.MethodPut, d.ItemPath(id)+"/reorder", nil, bytes.NewReader(body), "application/json", "")
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || (data[0] != '[' && data[0] != '{') {
		return nil, nil
	}
	page, err := decodeList(data, d.Collection)
	if err != nil {
		return nil, fault.Wrap(fault.Network, op, err)
	}
	return page.Rows, nil
}

// UploadImage posts a file as multipart form data and returns the stored
// server-relative path. An empty scope targets /upload/image.
func (c *Client) UploadImage(ctx context.Context, scope, filename string, r io.Reader) (string, error) {
	op := "upload image"
	if r == nil {
		return "", fault.New(fault.Validation, op, "no file")
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return "", fault.Wrap(fault.Validation, op, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fault.Wrap(fault.Validation, op, fmt.Errorf("read file: %w", err))
	}
	if err := mw.Close(); err != nil {
		return "", fault.Wrap(fault.Validation, op, err)
	}

	path := "/upload/image"
	if s := strings.Trim(strings.TrimSpace(scope), "/"); s != "" {
		path = "/upload/" + s
	}
	data, err := c.do(ctx, op, http.MethodPost, path, nil, &buf, mw.FormDataContentType(), "")
	if err != nil {
		return "", err
	}
	stored, err := decodeUploadPath(data)
	if err != nil {
		return "", fault.Wrap(fault.Network, op, err)
	}
	return stored, nil
}

func decodeUploadPath(data json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil && s != "" {
		return s, nil
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	for _, key := range []string{"path", "url", "filePath", "imageUrl"} {
		if v, ok := body[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", errors.New("upload response carried no path")
}

func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, body io.Reader, contentType, ifMatch string) (json.RawMessage, error) {
	if c == nil {
		return nil, fault.New(fault.Validation, op, "client is nil")
	}
	reqURL := c.resolve(path, params)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fault.Wrap(fault.Validation, op, fmt.Errorf("create request: %w", err))
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ifMatch != "" {
		req.Header.Set("If-Match", ifMatch)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fault.Wrap(fault.Auth, op, fmt.Errorf("obtain token: %w", err))
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, fault.Wrap(fault.Network, op, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", requestID))

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var env envelope
		_ = json.Unmarshal(raw, &env)
		msg := env.text()
		if msg == "" {
			msg = fmt.Sprintf("api %s returned status %d", path, resp.StatusCode)
		}
		return nil, &fault.Error{Kind: fault.FromStatus(resp.StatusCode), Op: op, Status: resp.StatusCode, Message: msg}
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.Network, op, fmt.Errorf("read response: %w", err))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fault.Wrap(fault.Network, op, fmt.Errorf("decode response: %w", err))
	}
	if env.Success != nil && !*env.Success {
		msg := env.text()
		if msg == "" {
			msg = "request rejected"
		}
		return nil, &fault.Error{Kind: fault.Validation, Op: op, Status: resp.StatusCode, Message: msg}
	}
	return env.Data, nil
}

func (c *Client) resolve(path string, params url.Values) string {
	u := *c.baseURL
	// path arrives escaped; keep RawPath so escaped ids survive String.
	raw := strings.TrimRight(c.baseURL.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		u.Path, u.RawPath = unescaped, raw
	} else {
		u.Path, u.RawPath = raw, ""
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
