package mutation

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/querysync/cache"
	"github.com/jonwraymond/querysync/observe"
)

// journal records writes and invalidations in the order they happen.
type journal struct {
	mu     sync.Mutex
	events []string
	keys   map[string][]cache.Key
	err    error
}

func (j *journal) log(s string) {
	j.mu.Lock()
	j.events = append(j.events, s)
	j.mu.Unlock()
}

func (j *journal) Write(_ context.Context, in Intent) (any, error) {
	j.log("write " + in.Resource + " " + in.Kind.String())
	if j.err != nil {
		return nil, j.err
	}
	return map[string]any{"id": "9"}, nil
}

func (j *journal) InvalidateResource(resource string) []cache.Key {
	j.log("invalidate " + resource)
	return j.keys[resource]
}

func (j *journal) Events() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.events)
}

func TestCoordinator_InvalidatesAfterWrite(t *testing.T) {
	j := &journal{keys: map[string][]cache.Key{
		"lessons": {cache.MustEncode("lessons", map[string]any{"page": 2}), cache.MustEncode("lessons", nil)},
	}}
	c, err := NewCoordinator(j, j, WithRequestIDs(func() string { return "req-1" }))
	if err != nil {
		t.Fatal(err)
	}

	res, err := c.Mutate(context.Background(), Intent{Resource: "lessons", Kind: KindCreate, Payload: map[string]any{"name": "Numbers"}})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if got, want := j.Events(), []string{"write lessons create", "invalidate lessons"}; !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if res.RequestID != "req-1" {
		t.Errorf("RequestID = %q", res.RequestID)
	}
	if len(res.Invalidated) != 2 || res.Invalidated[0].String() != "lessons" {
		t.Errorf("Invalidated = %v, want sorted lessons keys", res.Invalidated)
	}
}

func TestCoordinator_FailedWriteInvalidatesNothing(t *testing.T) {
	j := &journal{err: errors.New("connection refused")}
	c, _ := NewCoordinator(j, j)

	res, err := c.Mutate(context.Background(), Intent{Resource: "lessons", Kind: KindDelete, ID: "3"})
	if !errors.Is(err, cache.ErrTransport) {
		t.Fatalf("Mutate() error = %v, want transport error", err)
	}
	var te *cache.TransportError
	if !errors.As(err, &te) || te.Op != "delete" || te.Resource != "lessons" {
		t.Errorf("TransportError = %+v", te)
	}
	if res.RequestID == "" {
		t.Error("failed result should still carry the request ID")
	}
	if got := j.Events(); !slices.Equal(got, []string{"write lessons delete"}) {
		t.Errorf("events = %v", got)
	}
}

func TestCoordinator_Dependents(t *testing.T) {
	j := &journal{}
	c, _ := NewCoordinator(j, j,
		WithDependents("vocabularies", "lessons"),
		WithDependents("lessons", "vocabularies"),
	)

	if _, err := c.For("vocabularies").Delete(context.Background(), "12"); err != nil {
		t.Fatal(err)
	}
	want := []string{"write vocabularies delete", "invalidate vocabularies", "invalidate lessons"}
	if got := j.Events(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestCoordinator_RejectsInvalidIntent(t *testing.T) {
	j := &journal{}
	c, _ := NewCoordinator(j, j)

	_, err := c.Mutate(context.Background(), Intent{Resource: "lessons", Kind: KindUpdate})
	if !errors.Is(err, ErrInvalidIntent) {
		t.Fatalf("Mutate() error = %v, want ErrInvalidIntent", err)
	}
	if len(j.Events()) != 0 {
		t.Errorf("invalid intent reached the writer: %v", j.Events())
	}
}

func TestNewCoordinator_Validation(t *testing.T) {
	j := &journal{}
	if _, err := NewCoordinator(nil, j); !errors.Is(err, ErrNilWriter) {
		t.Errorf("nil writer: %v", err)
	}
	if _, err := NewCoordinator(j, nil); !errors.Is(err, ErrNilInvalidator) {
		t.Errorf("nil invalidator: %v", err)
	}
}

func TestCoordinator_RefetchesSubscribedKeys(t *testing.T) {
	var version atomic.Int32
	store, err := cache.NewStore(cache.FetcherFunc(func(_ context.Context, key cache.Key) (any, error) {
		return version.Add(1), nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	watched := cache.MustEncode("lessons", map[string]any{"page": 1})
	unwatched := cache.MustEncode("lessons", map[string]any{"page": 2})
	other := cache.MustEncode("users", nil)

	fresh := make(chan cache.Entry, 8)
	unsubscribe, err := store.Subscribe(watched, func(e cache.Entry) {
		if e.Status == cache.StatusFresh {
			fresh <- e
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer unsubscribe()
	first := waitFresh(t, fresh)

	for _, k := range []cache.Key{unwatched, other} {
		if _, err := store.Load(context.Background(), k); err != nil {
			t.Fatal(err)
		}
	}

	c, _ := NewCoordinator(WriterFunc(func(context.Context, Intent) (any, error) { return nil, nil }), store)
	res, err := c.For("lessons").Update(context.Background(), "1", map[string]any{"name": "Hello"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Invalidated) != 2 {
		t.Fatalf("Invalidated = %v, want both lessons keys", res.Invalidated)
	}

	second := waitFresh(t, fresh)
	if second.Data == first.Data {
		t.Errorf("watched key was not re-fetched: data still %v", second.Data)
	}
	if _, ok := store.Get(unwatched); ok {
		t.Error("unwatched stale key should be evicted on access")
	}
	if e, ok := store.Get(other); !ok || e.Status != cache.StatusFresh {
		t.Errorf("users entry = %+v, %v; want untouched", e, ok)
	}
}

func waitFresh(t *testing.T, ch <-chan cache.Entry) cache.Entry {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fresh entry")
		return cache.Entry{}
	}
}

func TestCoordinator_Traced(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	mw := observe.NewMiddleware(observe.NewTracer(tp.Tracer("test")), nil, nil)

	j := &journal{}
	c, _ := NewCoordinator(j, j, WithMiddleware(mw))
	if _, err := c.For("users").Do(context.Background(), "5", "role", map[string]string{"role": "admin"}); err != nil {
		t.Fatal(err)
	}

	ended := spans.Ended()
	if len(ended) != 1 || ended[0].Name() != "querysync.update.users" {
		t.Fatalf("spans = %v", ended)
	}
}

func TestMutator_Pending(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	w := WriterFunc(func(context.Context, Intent) (any, error) {
		close(started)
		<-release
		return nil, nil
	})
	c, _ := NewCoordinator(w, &journal{})
	m := c.For("lessons")
	if c.For("lessons") != m {
		t.Fatal("For() should return the same Mutator")
	}

	done := make(chan error, 1)
	go func() {
		_, err := m.Create(context.Background(), nil)
		done <- err
	}()
	<-started
	if m.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", m.Pending())
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", m.Pending())
	}
}
