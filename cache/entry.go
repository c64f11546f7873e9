package cache

import (
	"sync/atomic"
	"time"
)

// Status is the lifecycle state of an Entry.
type Status int

const (
	// StatusPending means a fetch is in flight. Data holds the previous
	// value, if any.
	StatusPending Status = iota
	// StatusFresh means Data reflects the latest completed fetch.
	StatusFresh
	// StatusStale means Data may no longer match the server.
	StatusStale
	// StatusError means the latest fetch failed; Err holds the failure.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is a point-in-time copy of one cached key.
type Entry struct {
	Key         Key
	Data        any
	Status      Status
	Err         error
	FetchedAt   time.Time
	Subscribers int
}

// Listener receives every status or data change of a subscribed key.
type Listener func(Entry)

// record is the Store-owned mutable state behind an Entry.
type record struct {
	key       Key
	data      any
	status    Status
	err       error
	fetchedAt time.Time

	// gen is the generation of the latest fetch or Put for key.
	gen uint64

	// done is closed when the pending fetch of generation gen settles or
	// is superseded. Nil unless pending.
	done chan struct{}

	subs map[uint64]*subscription
}

type subscription struct {
	id     uint64
	fn     Listener
	active atomic.Bool
}

func (r *record) snapshot() Entry {
	return Entry{
		Key:         r.key,
		Data:        r.data,
		Status:      r.status,
		Err:         r.err,
		FetchedAt:   r.fetchedAt,
		Subscribers: len(r.subs),
	}
}

// wake releases Load callers waiting on the current fetch.
func (r *record) wake() {
	if r.done != nil {
		close(r.done)
		r.done = nil
	}
}
