package mutation

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jonwraymond/querysync/cache"
	"github.com/jonwraymond/querysync/observe"
)

// Writer performs a write against the remote resource.
type Writer interface {
	Write(ctx context.Context, intent Intent) (any, error)
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(ctx context.Context, intent Intent) (any, error)

// Write calls f.
func (f WriterFunc) Write(ctx context.Context, intent Intent) (any, error) {
	return f(ctx, intent)
}

// Invalidator marks every cached key of a resource stale. *cache.Store
// implements it.
type Invalidator interface {
	InvalidateResource(resource string) []cache.Key
}

// Result is a successful mutation.
type Result struct {
	// Value is whatever the writer returned.
	Value any

	// Invalidated lists the keys that went stale, sorted.
	Invalidated []cache.Key

	RequestID string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMiddleware instruments writes.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(c *Coordinator) {
		if mw != nil {
			c.mw = mw
		}
	}
}

// WithDependents declares that writes to resource also change what the
// dependent resources show, so their keys are invalidated too.
func WithDependents(resource string, dependents ...string) Option {
	return func(c *Coordinator) {
		c.dependents[resource] = append(c.dependents[resource], dependents...)
	}
}

// WithRequestIDs replaces the uuid request ID generator.
func WithRequestIDs(next func() string) Option {
	return func(c *Coordinator) { c.newID = next }
}

// Coordinator executes mutations and invalidates what they touch.
type Coordinator struct {
	writer     Writer
	inv        Invalidator
	mw         *observe.Middleware
	logger     observe.Logger
	dependents map[string][]string
	newID      func() string

	mu       sync.Mutex
	mutators map[string]*Mutator
}

// NewCoordinator creates a Coordinator writing through w and invalidating
// through inv.
func NewCoordinator(w Writer, inv Invalidator, opts ...Option) (*Coordinator, error) {
	if w == nil {
		return nil, ErrNilWriter
	}
	if inv == nil {
		return nil, ErrNilInvalidator
	}
	c := &Coordinator{
		writer:     w,
		inv:        inv,
		mw:         observe.NopMiddleware(),
		dependents: make(map[string][]string),
		newID:      uuid.NewString,
		mutators:   make(map[string]*Mutator),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.mw.Logger().With(observe.F("component", "mutation"))
	return c, nil
}

// Mutate validates intent, writes it, and on success invalidates every
// cached key of its resource and dependents. The returned error is an
// *IntentError or a *cache.TransportError; on error nothing is invalidated.
func (c *Coordinator) Mutate(ctx context.Context, intent Intent) (Result, error) {
	if err := intent.Validate(); err != nil {
		return Result{}, err
	}
	if intent.RequestID == "" {
		intent.RequestID = c.newID()
	}

	meta := observe.OpMeta{
		Resource:  intent.Resource,
		Op:        intent.Kind.String(),
		Key:       intent.ID,
		RequestID: intent.RequestID,
	}
	value, err := c.mw.Wrap(func(ctx context.Context, _ observe.OpMeta) (any, error) {
		return c.writer.Write(ctx, intent)
	})(ctx, meta)
	if err != nil {
		return Result{RequestID: intent.RequestID}, cache.AsTransportError(intent.Resource, intent.Kind.String(), err)
	}

	invalidated := c.invalidate(intent.Resource)
	c.logger.Info(ctx, "mutation applied", append(meta.Fields(), observe.F("invalidated", len(invalidated)))...)
	return Result{Value: value, Invalidated: invalidated, RequestID: intent.RequestID}, nil
}

// invalidate marks resource and its dependents stale, each at most once.
func (c *Coordinator) invalidate(resource string) []cache.Key {
	var keys []cache.Key
	seen := map[string]bool{}
	queue := []string{resource}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		if seen[r] {
			continue
		}
		seen[r] = true
		keys = append(keys, c.inv.InvalidateResource(r)...)
		queue = append(queue, c.dependents[r]...)
	}
	slices.SortFunc(keys, func(a, b cache.Key) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}

// For returns the Mutator for resource. Repeated calls return the same
// Mutator.
func (c *Coordinator) For(resource string) *Mutator {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.mutators[resource]
	if !ok {
		m = &Mutator{coord: c, resource: resource}
		c.mutators[resource] = m
	}
	return m
}
