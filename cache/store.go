package cache

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonwraymond/querysync/observe"
)

// Fetcher loads the remote collection or item addressed by key.
type Fetcher interface {
	Fetch(ctx context.Context, key Key) (any, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, key Key) (any, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, key Key) (any, error) {
	return f(ctx, key)
}

// Option configures a Store.
type Option func(*Store)

// WithPolicy sets the staleness policy.
func WithPolicy(p Policy) Option {
	return func(s *Store) { s.policy = p }
}

// WithMiddleware instruments fetches and records invalidation metrics.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(s *Store) {
		if mw != nil {
			s.mw = mw
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the single owner of cached entries.
//
// All methods are safe for concurrent use. Every state change happens under
// one lock; listeners are called after it is released, in change order.
// Fetches started by the Store run on its own context, which Close cancels.
type Store struct {
	fetcher Fetcher
	dedup   *Deduplicator
	policy  Policy
	mw      *observe.Middleware
	logger  observe.Logger
	now     func() time.Time
	events  dispatcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries map[Key]*record
	gen     uint64
	nextSub uint64
	closed  bool
}

// NewStore creates an empty Store that loads data through fetcher.
func NewStore(fetcher Fetcher, opts ...Option) (*Store, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	s := &Store{
		fetcher: fetcher,
		dedup:   NewDeduplicator(),
		policy:  DefaultPolicy(),
		mw:      observe.NopMiddleware(),
		now:     time.Now,
		entries: make(map[Key]*record),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.mw.Logger().With(observe.F("component", "cache"))
	s.events.logger = s.logger
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// Get returns a copy of the entry for key. A stale entry with no
// subscribers is evicted instead and reported absent.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	if evictable(r) {
		delete(s.entries, key)
		return Entry{}, false
	}
	return r.snapshot(), true
}

// Put stores data as the fresh value for key and notifies subscribers
// before returning. Any in-flight fetch for key is superseded and its
// result will be discarded.
func (s *Store) Put(key Key, data any) {
	s.mu.Lock()
	if s.closed || key.IsZero() {
		s.mu.Unlock()
		return
	}
	r, ok := s.entries[key]
	if !ok {
		r = s.newRecordLocked(key)
	}
	s.supersedeLocked(r)
	s.gen++
	r.gen = s.gen
	r.status = StatusFresh
	r.data = data
	r.err = nil
	r.fetchedAt = s.now()
	s.emitLocked(r)
	s.mu.Unlock()

	s.events.drain()
}

// Invalidate marks key stale. A subscribed key is re-fetched immediately;
// an unsubscribed one is evicted on its next access. It reports whether
// key was cached.
func (s *Store) Invalidate(key Key) bool {
	s.mu.Lock()
	r, ok := s.entries[key]
	if ok {
		s.invalidateLocked(r)
	}
	s.mu.Unlock()

	s.events.drain()
	if ok {
		s.mw.Metrics().RecordInvalidation(context.Background(), key.Resource(), 1)
	}
	return ok
}

// InvalidateResource invalidates every cached key of resource, all filter
// variants included, and returns them sorted by their encoded form.
func (s *Store) InvalidateResource(resource string) []Key {
	s.mu.Lock()
	var keys []Key
	for k := range s.entries {
		if k.resource == resource {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b Key) int {
		return strings.Compare(a.String(), b.String())
	})
	for _, k := range keys {
		s.invalidateLocked(s.entries[k])
	}
	s.mu.Unlock()

	s.events.drain()
	s.mw.Metrics().RecordInvalidation(context.Background(), resource, len(keys))
	s.logger.Debug(context.Background(), "resource invalidated",
		observe.F("resource", resource), observe.F("keys", len(keys)))
	return keys
}

// Subscribe registers fn for changes to key and returns a func that
// removes it. If key is already cached fn is called at once with the
// current entry. If key is not cached, or is stale, failed, or expired
// under the Policy, a fetch is started.
//
// Unsubscribing never cancels an in-flight fetch.
func (s *Store) Subscribe(key Key, fn Listener) (func(), error) {
	if fn == nil {
		return nil, ErrNilListener
	}
	if key.IsZero() {
		return nil, &KeyError{Reason: "zero key"}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	r, existed := s.entries[key]
	if !existed {
		r = s.newRecordLocked(key)
	}
	s.nextSub++
	sub := &subscription{id: s.nextSub, fn: fn}
	sub.active.Store(true)
	r.subs[sub.id] = sub

	if existed {
		s.events.enqueue(event{entry: r.snapshot(), subs: []*subscription{sub}})
	}
	if !existed || s.needsFetchLocked(r) {
		s.startFetchLocked(r)
	}
	s.mu.Unlock()

	s.events.drain()
	return func() { s.unsubscribe(r, sub) }, nil
}

func (s *Store) unsubscribe(r *record, sub *subscription) {
	if !sub.active.CompareAndSwap(true, false) {
		return
	}
	s.mu.Lock()
	delete(r.subs, sub.id)
	s.mu.Unlock()
}

// Load returns the entry for key, fetching it first unless it is fresh.
// Concurrent loads of one key share a single fetch. ctx bounds only the
// wait; the fetch itself keeps running for other readers.
//
// A failed fetch is recorded as a StatusError entry and returned as a
// *TransportError.
func (s *Store) Load(ctx context.Context, key Key) (Entry, error) {
	if key.IsZero() {
		return Entry{}, &KeyError{Reason: "zero key"}
	}

	waited := false
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return Entry{}, ErrClosed
		}
		r, ok := s.entries[key]
		if ok && evictable(r) {
			delete(s.entries, key)
			ok = false
		}
		if !ok {
			r = s.newRecordLocked(key)
		}

		switch {
		case r.status == StatusFresh && (waited || !s.policy.Expired(r.fetchedAt, s.now())):
			e := r.snapshot()
			s.mu.Unlock()
			return e, nil
		case r.status == StatusError && waited:
			e := r.snapshot()
			s.mu.Unlock()
			return e, e.Err
		case r.status != StatusPending:
			s.startFetchLocked(r)
		}
		done := r.done
		s.mu.Unlock()
		s.events.drain()

		select {
		case <-done:
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		}
		waited = true
	}
}

// Entries returns copies of all entries sorted by encoded key.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	out := make([]Entry, 0, len(s.entries))
	for _, r := range s.entries {
		out = append(out, r.snapshot())
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b Entry) int {
		return strings.Compare(a.Key.String(), b.Key.String())
	})
	return out
}

// Len returns the number of stored entries, including ones awaiting lazy
// eviction.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// InFlight returns the number of fetches currently registered.
func (s *Store) InFlight() int {
	return s.dedup.Len()
}

// Reset drops every entry and subscriber. Results of fetches still in
// flight are discarded when they arrive.
func (s *Store) Reset() {
	s.mu.Lock()
	for k, r := range s.entries {
		if r.status == StatusPending {
			s.dedup.Forget(k.String())
		}
		r.wake()
		for _, sub := range r.subs {
			sub.active.Store(false)
		}
	}
	s.entries = make(map[Key]*record)
	s.mu.Unlock()
}

// Close resets the Store, cancels outstanding fetches and waits for them to
// return or for ctx to end.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Reset()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func evictable(r *record) bool {
	return r.status == StatusStale && len(r.subs) == 0
}

func (s *Store) newRecordLocked(key Key) *record {
	r := &record{key: key, status: StatusStale, subs: make(map[uint64]*subscription)}
	s.entries[key] = r
	return r
}

func (s *Store) needsFetchLocked(r *record) bool {
	switch r.status {
	case StatusPending:
		return false
	case StatusFresh:
		return s.policy.Expired(r.fetchedAt, s.now())
	default:
		return true
	}
}

func (s *Store) invalidateLocked(r *record) {
	s.supersedeLocked(r)
	r.status = StatusStale
	r.err = nil
	s.emitLocked(r)
	if len(r.subs) > 0 {
		s.startFetchLocked(r)
	}
}

// supersedeLocked detaches a pending fetch from r so that its result is
// discarded.
func (s *Store) supersedeLocked(r *record) {
	if r.status != StatusPending {
		return
	}
	s.dedup.Forget(r.key.String())
	r.wake()
}

func (s *Store) startFetchLocked(r *record) {
	if s.closed {
		return
	}
	s.supersedeLocked(r)
	s.gen++
	r.gen = s.gen
	r.status = StatusPending
	r.done = make(chan struct{})

	key, gen := r.key, r.gen
	ch := s.dedup.Request(s.ctx, key.String(), func(ctx context.Context) (any, error) {
		return s.fetch(ctx, key)
	})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res := <-ch
		s.settle(key, gen, res.Val, res.Err)
	}()
	s.emitLocked(r)
}

func (s *Store) fetch(ctx context.Context, key Key) (any, error) {
	meta := observe.OpMeta{Resource: key.Resource(), Op: "fetch", Key: key.String()}
	v, err := s.mw.Wrap(func(ctx context.Context, _ observe.OpMeta) (any, error) {
		return s.fetcher.Fetch(ctx, key)
	})(ctx, meta)
	return v, AsTransportError(key.Resource(), "fetch", err)
}

// settle applies a fetch outcome if gen is still current for key.
func (s *Store) settle(key Key, gen uint64, data any, err error) {
	s.mu.Lock()
	r, ok := s.entries[key]
	if !ok || r.gen != gen {
		s.mu.Unlock()
		meta := observe.OpMeta{Resource: key.Resource(), Op: "fetch", Key: key.String()}
		s.mw.Metrics().RecordDiscard(context.Background(), meta)
		s.logger.Debug(context.Background(), "stale response discarded", meta.Fields()...)
		return
	}

	if err != nil {
		r.status = StatusError
		r.err = err
	} else {
		r.status = StatusFresh
		r.data = data
		r.err = nil
		r.fetchedAt = s.now()
	}
	r.wake()
	s.emitLocked(r)
	s.mu.Unlock()

	s.events.drain()
}

func (s *Store) emitLocked(r *record) {
	if len(r.subs) == 0 {
		return
	}
	subs := make([]*subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	slices.SortFunc(subs, func(a, b *subscription) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	s.events.enqueue(event{entry: r.snapshot(), subs: subs})
}
