package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/querysync/cache"
	"github.com/jonwraymond/querysync/health"
	"github.com/jonwraymond/querysync/mutation"
	"github.com/jonwraymond/querysync/resilience"
)

type captured struct {
	Method    string
	Path      string
	RawPath   string
	Query     string
	Auth      string
	RequestID string
	Body      string
}

type api struct {
	mu       sync.Mutex
	requests []captured
	handler  http.HandlerFunc
}

func (a *api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	a.mu.Lock()
	a.requests = append(a.requests, captured{
		Method:    r.Method,
		Path:      r.URL.Path,
		RawPath:   r.URL.EscapedPath(),
		Query:     r.URL.RawQuery,
		Auth:      r.Header.Get("Authorization"),
		RequestID: r.Header.Get(HeaderRequestID),
		Body:      string(body),
	})
	a.mu.Unlock()
	if a.handler != nil {
		a.handler(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func (a *api) last(t *testing.T) captured {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.requests) == 0 {
		t.Fatal("no request received")
	}
	return a.requests[len(a.requests)-1]
}

func (a *api) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func newTestClient(t *testing.T, a *api, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(a)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestClient_Fetch(t *testing.T) {
	a := &api{}
	c := newTestClient(t, a, WithTokenSource(StaticToken("tok")))

	key := cache.MustEncode("vocabularies", map[string]any{"lessonId": 3, "q": "a b"})
	v, err := c.Fetch(context.Background(), key)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(v.(json.RawMessage)) != `{"ok":true}` {
		t.Errorf("Fetch() = %s", v)
	}

	got := a.last(t)
	if got.Method != http.MethodGet || got.Path != "/api/vocabularies" || got.Query != "lessonId=3&q=a+b" {
		t.Errorf("request = %+v", got)
	}
	if got.Auth != "Bearer tok" {
		t.Errorf("Authorization = %q", got.Auth)
	}
	if got.RequestID == "" {
		t.Error("missing request ID")
	}
}

func TestClient_Write(t *testing.T) {
	tests := []struct {
		name       string
		intent     mutation.Intent
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{
			name:       "create",
			intent:     mutation.Intent{Resource: "lessons", Kind: mutation.KindCreate, Payload: map[string]any{"name": "Greetings"}},
			wantMethod: http.MethodPost,
			wantPath:   "/api/lessons",
			wantBody:   `{"name":"Greetings"}`,
		},
		{
			name:       "update",
			intent:     mutation.Intent{Resource: "lessons", Kind: mutation.KindUpdate, ID: "7", Payload: map[string]any{"number": 2}},
			wantMethod: http.MethodPut,
			wantPath:   "/api/lessons/7",
			wantBody:   `{"number":2}`,
		},
		{
			name:       "update action",
			intent:     mutation.Intent{Resource: "users", Kind: mutation.KindUpdate, ID: "u1", Action: "role", Payload: map[string]string{"role": "admin"}},
			wantMethod: http.MethodPut,
			wantPath:   "/api/users/u1/role",
			wantBody:   `{"role":"admin"}`,
		},
		{
			name:       "delete",
			intent:     mutation.Intent{Resource: "vocabularies", Kind: mutation.KindDelete, ID: "12", RequestID: "req-9"},
			wantMethod: http.MethodDelete,
			wantPath:   "/api/vocabularies/12",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &api{}
			c := newTestClient(t, a)
			if _, err := c.Write(context.Background(), tt.intent); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got := a.last(t)
			if got.Method != tt.wantMethod || got.Path != tt.wantPath || got.Body != tt.wantBody {
				t.Errorf("request = %+v", got)
			}
			if tt.intent.RequestID != "" && got.RequestID != tt.intent.RequestID {
				t.Errorf("X-Request-ID = %q, want %q", got.RequestID, tt.intent.RequestID)
			}
			if got.Auth != "" {
				t.Errorf("unexpected Authorization %q", got.Auth)
			}
		})
	}
}

func TestClient_EscapesPathSegments(t *testing.T) {
	a := &api{}
	c := newTestClient(t, a)
	if _, err := c.Write(context.Background(), mutation.Intent{Resource: "users", Kind: mutation.KindDelete, ID: "a b"}); err != nil {
		t.Fatal(err)
	}
	if got := a.last(t).RawPath; got != "/api/users/a%20b" {
		t.Errorf("path = %q", got)
	}
}

func TestClient_StatusError(t *testing.T) {
	a := &api{handler: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"lesson number already used"}`))
	}}
	c := newTestClient(t, a)

	_, err := c.Write(context.Background(), mutation.Intent{Resource: "lessons", Kind: mutation.KindCreate})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Write() error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusConflict || se.Message != "lesson number already used" || se.Temporary() {
		t.Errorf("StatusError = %+v", se)
	}

	te := cache.AsTransportError("lessons", "create", err).(*cache.TransportError)
	if te.StatusCode != http.StatusConflict {
		t.Errorf("TransportError.StatusCode = %d", te.StatusCode)
	}
}

func TestClient_RetriesTemporaryFailures(t *testing.T) {
	var calls atomic.Int32
	a := &api{handler: func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}}
	exec := resilience.NewExecutor(
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
	)
	c := newTestClient(t, a, WithExecutor(exec))

	v, err := c.Fetch(context.Background(), cache.MustEncode("lessons", nil))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(v.(json.RawMessage)) != `[]` || a.count() != 3 {
		t.Errorf("Fetch() = %s after %d requests", v, a.count())
	}

	ids := map[string]bool{}
	a.mu.Lock()
	for _, r := range a.requests {
		ids[r.RequestID] = true
	}
	a.mu.Unlock()
	if len(ids) != 1 {
		t.Errorf("retries should reuse one request ID, got %d", len(ids))
	}
}

func TestClient_CreateIsNotRetried(t *testing.T) {
	a := &api{handler: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}}
	exec := resilience.NewExecutor(
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
	)
	c := newTestClient(t, a, WithExecutor(exec))

	_, err := c.Write(context.Background(), mutation.Intent{
		Resource: "lessons", Kind: mutation.KindCreate, Payload: map[string]any{"name": "Food"},
	})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("Write() error = %v, want 503", err)
	}
	if a.count() != 1 {
		t.Errorf("create sent %d times, want 1", a.count())
	}

	// Updates and deletes are idempotent and keep retrying.
	_, _ = c.Write(context.Background(), mutation.Intent{Resource: "lessons", Kind: mutation.KindDelete, ID: "7"})
	if a.count() != 4 {
		t.Errorf("requests after delete = %d, want 4", a.count())
	}
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	a := &api{handler: func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }}
	exec := resilience.NewExecutor(
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{InitialDelay: time.Millisecond})),
	)
	c := newTestClient(t, a, WithExecutor(exec))

	if _, err := c.Fetch(context.Background(), cache.MustEncode("lessons", nil)); err == nil {
		t.Fatal("expected error")
	}
	if a.count() != 1 {
		t.Errorf("requests = %d, want 1", a.count())
	}
}

func TestClient_EmptyAndInvalidBodies(t *testing.T) {
	body := ""
	a := &api{handler: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}}
	c := newTestClient(t, a)

	v, err := c.Write(context.Background(), mutation.Intent{Resource: "lessons", Kind: mutation.KindDelete, ID: "1"})
	if err != nil || string(v.(json.RawMessage)) != "null" {
		t.Fatalf("empty body: %s, %v", v, err)
	}

	body = "<html>"
	if _, err := c.Fetch(context.Background(), cache.MustEncode("lessons", nil)); err == nil {
		t.Fatal("non-JSON body should fail")
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	block := make(chan struct{})
	a := &api{handler: func(w http.ResponseWriter, r *http.Request) { <-block }}
	c := newTestClient(t, a)
	t.Cleanup(func() { close(block) })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Fetch(ctx, cache.MustEncode("lessons", nil))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch() error = %v, want context.Canceled", err)
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		t.Error("caller cancellation should not be a NetworkError")
	}
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "ftp://x", "http://"} {
		if _, err := New(u); !errors.Is(err, ErrBaseURL) {
			t.Errorf("New(%q) error = %v", u, err)
		}
	}
}

func TestStatusError_Temporary(t *testing.T) {
	for code, want := range map[int]bool{400: false, 401: false, 404: false, 408: true, 429: true, 500: true, 503: true} {
		if got := (&StatusError{Code: code}).Temporary(); got != want {
			t.Errorf("Temporary(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestClient_Check(t *testing.T) {
	var down atomic.Bool
	a := &api{handler: func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}}
	breaker := resilience.NewBreaker(resilience.BreakerConfig{MaxFailures: 1, CoolDown: time.Hour})
	c := newTestClient(t, a, WithExecutor(resilience.NewExecutor(resilience.WithBreaker(breaker))), WithHealthPath("/healthz"))

	if r := c.Check(context.Background()); r.Status != health.StatusHealthy {
		t.Fatalf("Check() = %+v", r)
	}
	if got := a.last(t).Path; got != "/healthz" {
		t.Errorf("health path = %q", got)
	}

	down.Store(true)
	r := c.Check(context.Background())
	if r.Status != health.StatusUnhealthy || r.Details["status_code"] != http.StatusBadGateway {
		t.Errorf("Check() with failing health path = %+v", r)
	}

	_, _ = c.Fetch(context.Background(), cache.MustEncode("lessons", nil))
	r = c.Check(context.Background())
	if r.Status != health.StatusUnhealthy || r.Details["breaker"] != "open" {
		t.Errorf("Check() after failure = %+v", r)
	}
}
