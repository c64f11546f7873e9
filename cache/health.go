package cache

import (
	"context"
	"fmt"

	"github.com/jonwraymond/querysync/health"
)

// Name implements health.Checker.
func (s *Store) Name() string { return "cache" }

// Check implements health.Checker. The Store is degraded while any entry
// holds a failed fetch and unhealthy once closed.
func (s *Store) Check(ctx context.Context) health.Result {
	s.mu.Lock()
	total, failed, closed := len(s.entries), 0, s.closed
	var lastErr error
	for _, r := range s.entries {
		if r.status == StatusError {
			failed++
			lastErr = r.err
		}
	}
	s.mu.Unlock()

	details := map[string]any{
		"entries":   total,
		"errors":    failed,
		"in_flight": s.dedup.Len(),
	}
	switch {
	case closed:
		return health.Unhealthy("store closed", ErrClosed).WithDetails(details)
	case failed > 0:
		r := health.Degraded(fmt.Sprintf("%d of %d entries failed", failed, total)).WithDetails(details)
		r.Error = lastErr
		return r
	default:
		return health.Healthy("ok").WithDetails(details)
	}
}

var _ health.Checker = (*Store)(nil)
