package cache

import "time"

// Policy configures when cached data stops counting as fresh.
type Policy struct {
	// StaleAfter makes a fresh entry older than this count as stale when it
	// is next loaded or subscribed to. Zero means entries stay fresh until
	// invalidated. Staleness is only ever evaluated on access.
	StaleAfter time.Duration
}

// DefaultPolicy returns a policy where only invalidation marks data stale.
func DefaultPolicy() Policy {
	return Policy{}
}

// Expired reports whether data fetched at fetchedAt is too old at now.
func (p Policy) Expired(fetchedAt, now time.Time) bool {
	if p.StaleAfter <= 0 || fetchedAt.IsZero() {
		return false
	}
	return now.Sub(fetchedAt) >= p.StaleAfter
}
