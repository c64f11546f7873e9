package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// FetchFunc performs one remote fetch.
type FetchFunc func(ctx context.Context) (any, error)

// Deduplicator allows at most one in-flight fetch per key. Callers that
// arrive while a fetch is running join it and receive the same value or
// the same error value.
//
// The registration is removed when the fetch settles, before any caller is
// resolved, so a request after settlement always starts a new fetch.
type Deduplicator struct {
	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]*flight
	started  atomic.Int64
}

type flight struct {
	seq int64
}

// NewDeduplicator returns an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{inflight: make(map[string]*flight)}
}

// Request joins the in-flight fetch for key or starts fetch. The
// registration is in place when Request returns. fetch runs with ctx;
// joined callers' contexts have no effect on it.
func (d *Deduplicator) Request(ctx context.Context, key string, fetch FetchFunc) <-chan singleflight.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, joined := d.inflight[key]
	if !joined {
		f = &flight{seq: d.started.Add(1)}
		d.inflight[key] = f
	}
	// While d.mu is held the group entry exists iff the marker does, so a
	// joiner's fn is never invoked.
	return d.group.DoChan(key, func() (any, error) {
		defer d.release(key, f)
		return fetch(ctx)
	})
}

// Do is the blocking form of Request. ctx bounds only the wait.
func (d *Deduplicator) Do(ctx context.Context, key string, fetch FetchFunc) (v any, shared bool, err error) {
	ch := d.Request(ctx, key, fetch)
	select {
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Forget drops the registration for key. Callers already waiting still get
// the running fetch's outcome; the next Request starts a new fetch.
func (d *Deduplicator) Forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, key)
	d.group.Forget(key)
}

// InFlight reports whether a fetch is registered for key.
func (d *Deduplicator) InFlight(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[key]
	return ok
}

// Len returns the number of registered fetches.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

// Started returns how many fetches have been started.
func (d *Deduplicator) Started() int64 {
	return d.started.Load()
}

func (d *Deduplicator) release(key string, f *flight) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight[key] == f {
		delete(d.inflight, key)
		d.group.Forget(key)
	}
}
