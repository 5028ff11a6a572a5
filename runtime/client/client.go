// Package client talks to the table resource endpoints and the SQL
// execution gateway.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 64 << 20
)

// Client is the HTTP client for the backend API. It performs no retries.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	userAgent   string
	mu          sync.RWMutex
	middlewares []Middleware
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMiddleware appends middlewares to the chain.
func WithMiddleware(m ...Middleware) Option {
	return func(c *Client) { c.middlewares = append(c.middlewares, m...) }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "sqlstudio",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request describes one API call.
type request struct {
	op     Operation
	table  string
	method string
	path   []string
	query  url.Values
	body   any
}

func (c *Client) endpoint(r request) string {
	u := *c.baseURL
	segments := make([]string, len(r.path))
	for i, p := range r.path {
		segments[i] = url.PathEscape(p)
	}
	u.RawPath = u.Path + "/" + strings.Join(segments, "/")
	u.Path = u.Path + "/" + strings.Join(r.path, "/")
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	return u.String()
}

// do sends r through the middleware chain and decodes a 2xx body into
// out. Non-2xx responses become BackendError, network failures
// TransportError.
func (c *Client) do(ctx context.Context, r request, out any) error {
	endpoint := c.endpoint(r)
	event := &RequestEvent{
		Op:        r.op,
		Table:     r.table,
		Method:    r.method,
		Path:      "/" + strings.Join(r.path, "/"),
		RequestID: uuid.NewString(),
	}

	return c.runWithMiddleware(ctx, event, func() error {
		var body io.Reader
		if r.body != nil {
			data, err := json.Marshal(r.body)
			if err != nil {
				return fmt.Errorf("failed to encode %s request: %w", r.op, err)
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
		if err != nil {
			return &TransportError{Op: r.op, URL: endpoint, Err: err}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", event.RequestID)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &TransportError{Op: r.op, URL: endpoint, Err: err}
		}
		defer resp.Body.Close()
		event.Status = resp.StatusCode

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return &TransportError{Op: r.op, URL: endpoint, Err: err}
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backendError(r.op, resp.StatusCode, data)
		}
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &BackendError{Op: r.op, Status: resp.StatusCode, Message: "invalid response body", Details: err.Error()}
		}
		return nil
	})
}

// errorBody is the failure shape shared by every endpoint.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func backendError(op Operation, status int, data []byte) *BackendError {
	e := &BackendError{Op: op, Status: status}
	var body errorBody
	if json.Unmarshal(data, &body) == nil {
		e.Message = body.Error
		if e.Message == "" {
			e.Message = body.Message
		}
		e.Details = body.Details
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(data))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
