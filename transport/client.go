package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jonwraymond/querysync/cache"
	"github.com/jonwraymond/querysync/health"
	"github.com/jonwraymond/querysync/mutation"
	"github.com/jonwraymond/querysync/observe"
	"github.com/jonwraymond/querysync/resilience"
)

const (
	// HeaderRequestID correlates a request with server logs.
	HeaderRequestID = "X-Request-ID"

	maxBody    = 8 << 20
	maxErrBody = 4 << 10
)

// TokenSource supplies the bearer token. An empty token sends no
// Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token returns t.
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the otelhttp-instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.tokens = ts } }

// WithExecutor guards every request; the default only calls through.
func WithExecutor(e *resilience.Executor) Option {
	return func(c *Client) {
		if e != nil {
			c.exec = e
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option { return func(c *Client) { c.userAgent = ua } }

// WithHealthPath makes Check request path with a GET in addition to
// reporting the breaker state.
func WithHealthPath(path string) Option { return func(c *Client) { c.healthPath = path } }

// Client talks to the catalog REST API.
type Client struct {
	base       *url.URL
	http       *http.Client
	tokens     TokenSource
	exec       *resilience.Executor
	logger     observe.Logger
	userAgent  string
	healthPath string
	pinger     *health.HTTPChecker
	newID      func() string
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		tokens:    StaticToken(""),
		exec:      resilience.NewExecutor(),
		logger:    observe.NopLogger(),
		userAgent: "querysync",
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(observe.F("component", "transport"))
	c.pinger = c.newPinger()
	return c, nil
}

// Fetch implements cache.Fetcher.
func (c *Client) Fetch(ctx context.Context, key cache.Key) (any, error) {
	u := c.endpoint(key.Resource())
	u.RawQuery = key.Query().Encode()
	return c.do(ctx, http.MethodGet, u, nil, "")
}

// Write implements mutation.Writer.
func (c *Client) Write(ctx context.Context, in mutation.Intent) (any, error) {
	var (
		method string
		u      *url.URL
	)
	switch in.Kind {
	case mutation.KindCreate:
		method, u = http.MethodPost, c.endpoint(in.Resource)
	case mutation.KindUpdate:
		method, u = http.MethodPut, c.endpoint(in.Resource, in.ID, in.Action)
	case mutation.KindDelete:
		method, u = http.MethodDelete, c.endpoint(in.Resource, in.ID)
	default:
		return nil, in.Validate()
	}

	var body []byte
	if in.Payload != nil {
		b, err := json.Marshal(in.Payload)
		if err != nil {
			return nil, fmt.Errorf("transport: encode %s payload: %w", in.Resource, err)
		}
		body = b
	}
	return c.do(ctx, method, u, body, in.RequestID)
}

// endpoint builds /api/{segments...}, skipping empty segments.
func (c *Client) endpoint(segments ...string) *url.URL {
	u := *c.base
	path := []string{strings.TrimRight(u.Path, "/"), "api"}
	for _, s := range segments {
		if s != "" {
			path = append(path, url.PathEscape(s))
		}
	}
	u.RawPath = strings.Join(path, "/")
	u.Path, _ = url.PathUnescape(u.RawPath)
	return &u
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, body []byte, requestID string) (json.RawMessage, error) {
	if requestID == "" {
		requestID = c.newID()
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("transport: token: %w", err)
	}

	var out json.RawMessage
	op := func(ctx context.Context) error {
		var rerr error
		out, rerr = c.roundTrip(ctx, method, u, body, requestID, token)
		return rerr
	}
	// POST creates a new item on every attempt.
	if method == http.MethodPost {
		err = c.exec.ExecuteOnce(ctx, op)
	} else {
		err = c.exec.Execute(ctx, op)
	}
	return out, err
}

func (c *Client) roundTrip(ctx context.Context, method string, u *url.URL, body []byte, requestID, token string) (json.RawMessage, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, &NetworkError{Method: method, Path: u.Path, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "http response",
		observe.F("method", method),
		observe.F("path", u.Path),
		observe.F("status", resp.StatusCode),
		observe.F("request_id", requestID),
		observe.F("duration_ms", float64(time.Since(start))/float64(time.Millisecond)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return nil, &StatusError{Method: method, Path: u.Path, Code: resp.StatusCode, Message: errorMessage(b)}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &NetworkError{Method: method, Path: u.Path, Err: err}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("transport: %s %s: response is not JSON", method, u.Path)
	}
	return json.RawMessage(b), nil
}

// errorMessage pulls "message" or "error" out of a JSON error body, or
// returns the trimmed body.
func errorMessage(b []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(b))
}

var (
	_ cache.Fetcher   = (*Client)(nil)
	_ mutation.Writer = (*Client)(nil)
)
