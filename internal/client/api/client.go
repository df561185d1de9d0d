// Package api is the typed HTTP/JSON client for the telecombase inventory
// server. Every operation performs exactly one blocking request bounded by
// a per-call timeout and returns either a decoded value or an *Error.
//
// A Client holds the base URL and the signed-in session. It is not safe for
// concurrent use: callers issue one call at a time and must not change the
// base URL or token while a call is in flight.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is used when New is given an empty base URL.
	DefaultBaseURL = "http://localhost:8080"
	// DefaultTimeout bounds every call unless WithTimeout overrides it.
	DefaultTimeout = 7 * time.Second

	// HeaderRequestID carries a per-call id that the server echoes and logs.
	HeaderRequestID = "X-Request-Id"

	maxResponseBytes = 16 << 20
)

// Client talks to one inventory server on behalf of one session.
type Client struct {
	baseURL string
	session Session
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client, e.g. one built by
// NewHTTPClient to trust a private CA.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger enables debug logging of requests and their outcome.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Client for baseURL with no session.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{},
		timeout: DefaultTimeout,
		log:     zap.NewNop(),
	}
	c.SetBaseURL(baseURL)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetBaseURL changes the server root. An empty value restores DefaultBaseURL.
func (c *Client) SetBaseURL(baseURL string) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c.baseURL = baseURL
}

// Timeout returns the per-call deadline.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Session returns the current session; the zero Session means signed out.
func (c *Client) Session() Session {
	return c.session
}

// SetSession installs a session obtained earlier, e.g. restored from disk.
func (c *Client) SetSession(s Session) {
	c.session = s
}

// Token returns the bearer token, or "" when signed out.
func (c *Client) Token() string {
	return c.session.Token
}

// SetToken replaces only the bearer token.
func (c *Client) SetToken(token string) {
	c.session.Token = token
}

// Authenticated reports whether a token is attached to requests.
func (c *Client) Authenticated() bool {
	return c.session.Token != ""
}

// Logout forgets the session. Nothing is sent to the server.
func (c *Client) Logout() {
	c.session = Session{}
}

// response is a completed HTTP exchange.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// failure converts a non-2xx response into a server error, preferring the
// {"error": "..."} payload over the bare status line.
func (r *response) failure() *Error {
	if o, err := decodeObject(r.body); err == nil {
		if msg, err := o.string("error", true); err == nil && msg != "" {
			return serverError(r.status, msg)
		}
	}
	return serverError(r.status, strings.TrimSpace(fmt.Sprintf("%d %s", r.status, http.StatusText(r.status))))
}

// do performs one request and reads the whole body. Only transport and
// timeout failures are returned as errors; HTTP status handling is left to
// the caller.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, authenticated bool) (*response, error) {
	target := c.baseURL + path
	if query != nil {
		target += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, transportError(fmt.Errorf("encode request: %w", err))
		}
		payload = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, transportError(err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if authenticated && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	log := c.log.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		apiErr := classifyTransport(ctx, err)
		log.Debug("api request failed", zap.Stringer("kind", apiErr.Kind), zap.Error(err))
		return nil, apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		apiErr := classifyTransport(ctx, err)
		log.Debug("api response read failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, apiErr
	}

	log.Debug("api request done",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return &response{status: resp.StatusCode, body: data}, nil
}

func classifyTransport(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return timeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return timeoutError(err)
	}
	return transportError(err)
}

// getArray fetches a JSON array and keeps only its object elements.
func (c *Client) getArray(ctx context.Context, path string, query url.Values) ([]object, int, error) {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil, true)
	if err != nil {
		return nil, 0, err
	}
	if !resp.ok() {
		return nil, resp.status, resp.failure()
	}
	items, err := decodeArray(resp.body)
	if err != nil {
		return nil, resp.status, protocolError(resp.status, err)
	}
	objects := make([]object, 0, len(items))
	for _, item := range items {
		o, err := decodeObject(item)
		if err != nil {
			continue
		}
		objects = append(objects, o)
	}
	return objects, resp.status, nil
}

// sendObject performs a request whose successful reply must be a JSON object.
func (c *Client) sendObject(ctx context.Context, method, path string, body any) (object, int, error) {
	resp, err := c.do(ctx, method, path, nil, body, true)
	if err != nil {
		return nil, 0, err
	}
	if !resp.ok() {
		return nil, resp.status, resp.failure()
	}
	o, err := decodeObject(resp.body)
	if err != nil {
		return nil, resp.status, protocolError(resp.status, err)
	}
	return o, resp.status, nil
}

// remove issues a DELETE. Any 2xx body, including an empty one, is success.
func (c *Client) remove(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil, nil, true)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.failure()
	}
	return nil
}

func list[T any](ctx context.Context, c *Client, path string, query url.Values, parse func(object) (T, error)) ([]T, error) {
	objects, status, err := c.getArray(ctx, path, query)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(objects))
	for _, o := range objects {
		v, err := parse(o)
		if err != nil {
			return nil, protocolError(status, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func get[T any](ctx context.Context, c *Client, path string, parse func(object) (T, error)) (T, error) {
	var zero T
	o, status, err := c.sendObject(ctx, http.MethodGet, path, nil)
	if err != nil {
		return zero, err
	}
	v, err := parse(o)
	if err != nil {
		return zero, protocolError(status, err)
	}
	return v, nil
}

// create POSTs body and returns the id the server assigned, or 0 when the
// reply does not carry one.
func (c *Client) create(ctx context.Context, path string, body any) (int64, error) {
	o, status, err := c.sendObject(ctx, http.MethodPost, path, body)
	if err != nil {
		return 0, err
	}
	if !o.has("id") {
		return 0, nil
	}
	id, err := o.int("id")
	if err != nil {
		return 0, protocolError(status, err)
	}
	return id, nil
}

func (c *Client) update(ctx context.Context, path string, body any) error {
	_, _, err := c.sendObject(ctx, http.MethodPut, path, body)
	return err
}

func resourcePath(collection string, id int64, rest ...string) string {
	p := fmt.Sprintf("%s/%d", collection, id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}
