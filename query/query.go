// Package query is the consumer-facing facade over the cache and the
// mutation coordinator.
//
// Query is a one-shot read through the cache, Watch keeps a view updated,
// and Mutator exposes writes that invalidate what they change. Transport
// failures are reported in Result.Err with StatusError rather than as the
// returned error, so a view can render them.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/querysync/cache"
	"github.com/jonwraymond/querysync/mutation"
	"github.com/jonwraymond/querysync/observe"
)

// Result is what a view renders.
type Result struct {
	Data      any
	Status    cache.Status
	Err       error
	FetchedAt time.Time
}

// Loading reports whether a fetch is in progress.
func (r Result) Loading() bool { return r.Status == cache.StatusPending }

func fromEntry(e cache.Entry) Result {
	return Result{Data: e.Data, Status: e.Status, Err: e.Err, FetchedAt: e.FetchedAt}
}

type options struct {
	store    []cache.Option
	mutation []mutation.Option
}

// Option configures a Client.
type Option func(*options)

// WithMiddleware instruments both fetches and writes.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *options) {
		o.store = append(o.store, cache.WithMiddleware(mw))
		o.mutation = append(o.mutation, mutation.WithMiddleware(mw))
	}
}

// WithStoreOptions passes options to the cache.Store.
func WithStoreOptions(opts ...cache.Option) Option {
	return func(o *options) { o.store = append(o.store, opts...) }
}

// WithMutationOptions passes options to the mutation.Coordinator.
func WithMutationOptions(opts ...mutation.Option) Option {
	return func(o *options) { o.mutation = append(o.mutation, opts...) }
}

// Client owns one cache and the coordinator that invalidates it.
type Client struct {
	store *cache.Store
	coord *mutation.Coordinator
}

// New creates a Client reading through fetcher and writing through writer.
func New(fetcher cache.Fetcher, writer mutation.Writer, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	store, err := cache.NewStore(fetcher, o.store...)
	if err != nil {
		return nil, err
	}
	coord, err := mutation.NewCoordinator(writer, store, o.mutation...)
	if err != nil {
		_ = store.Close(context.Background())
		return nil, err
	}
	return &Client{store: store, coord: coord}, nil
}

// Query returns the current data for resource and params, fetching when
// the cache has nothing fresh. Only invalid params, cancellation, and a
// closed client are returned as errors.
func (c *Client) Query(ctx context.Context, resource string, params map[string]any) (Result, error) {
	key, err := cache.Encode(resource, params)
	if err != nil {
		return Result{}, err
	}
	e, err := c.store.Load(ctx, key)
	if err != nil && !errors.Is(err, cache.ErrTransport) {
		return Result{}, err
	}
	return fromEntry(e), nil
}

// Watch calls fn with every change to the view of resource and params,
// starting with the current state. Call stop to release the view.
func (c *Client) Watch(resource string, params map[string]any, fn func(Result)) (stop func(), err error) {
	if fn == nil {
		return nil, cache.ErrNilListener
	}
	key, err := cache.Encode(resource, params)
	if err != nil {
		return nil, err
	}
	return c.store.Subscribe(key, func(e cache.Entry) { fn(fromEntry(e)) })
}

// Mutator returns the writer for resource.
func (c *Client) Mutator(resource string) *mutation.Mutator { return c.coord.For(resource) }

// Mutate runs intent and invalidates what it touched.
func (c *Client) Mutate(ctx context.Context, intent mutation.Intent) (mutation.Result, error) {
	return c.coord.Mutate(ctx, intent)
}

// Invalidate marks every cached view of resource stale.
func (c *Client) Invalidate(resource string) []cache.Key {
	return c.store.InvalidateResource(resource)
}

// Reset drops every cached view.
func (c *Client) Reset() { c.store.Reset() }

// Close cancels fetches and waits for them to finish or ctx to end.
func (c *Client) Close(ctx context.Context) error { return c.store.Close(ctx) }

// Store exposes the underlying cache.
func (c *Client) Store() *cache.Store { return c.store }
