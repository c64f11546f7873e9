package resilience

import (
	"context"
	"errors"
)

var (
	// ErrCircuitOpen is returned without calling the server while the
	// breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimited is returned when no token is available.
	ErrRateLimited = errors.New("resilience: rate limit exceeded")

	// ErrTimeout is returned when a single attempt exceeds its deadline.
	ErrTimeout = errors.New("resilience: attempt timed out")
)

type temporary interface {
	Temporary() bool
}

// Transient reports whether err is worth another attempt: an attempt
// timeout, or any error in the chain that says it is Temporary.
// Cancellation of the caller's context is never transient.
func Transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var t temporary
	return errors.As(err, &t) && t.Temporary()
}
