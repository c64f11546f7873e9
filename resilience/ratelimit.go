package resilience

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// LimiterConfig configures a Limiter.
type LimiterConfig struct {
	// Rate is requests per second. Default: 50
	Rate float64

	// Burst is the bucket size. Default: 10
	Burst int

	// Wait blocks for a token instead of failing with ErrRateLimited.
	Wait bool
}

// Limiter caps the request rate towards the resource API.
type Limiter struct {
	config  LimiterConfig
	limiter *rate.Limiter
}

// NewLimiter applies defaults to config and returns a Limiter with a full
// bucket.
func NewLimiter(config LimiterConfig) *Limiter {
	if config.Rate <= 0 {
		config.Rate = 50
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	return &Limiter{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool { return l.limiter.Allow() }

// Execute runs op once a token is granted.
func (l *Limiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if !l.config.Wait {
		if !l.limiter.Allow() {
			return ErrRateLimited
		}
		return op(ctx)
	}
	if err := l.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// rate reports a wait that would outlive the deadline.
		return errors.Join(ErrRateLimited, err)
	}
	return op(ctx)
}

// Tokens returns the tokens currently available.
func (l *Limiter) Tokens() float64 { return l.limiter.Tokens() }
