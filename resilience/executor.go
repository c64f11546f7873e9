package resilience

import (
	"context"
	"errors"
	"time"
)

// Executor composes the guards around one remote call. From the outside
// in: limiter, breaker, retry, per-attempt timeout.
type Executor struct {
	limiter *Limiter
	breaker *Breaker
	retry   *Retry
	timeout time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor returns an Executor; with no options it just calls op.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithLimiter, WithBreaker and WithRetry add the corresponding guard.
func WithLimiter(l *Limiter) ExecutorOption { return func(e *Executor) { e.limiter = l } }
func WithBreaker(b *Breaker) ExecutorOption { return func(e *Executor) { e.breaker = b } }
func WithRetry(r *Retry) ExecutorOption     { return func(e *Executor) { e.retry = r } }

// WithTimeout bounds each attempt. Zero disables it.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = d }
}

// Breaker returns the configured breaker, or nil.
func (e *Executor) Breaker() *Breaker { return e.breaker }

// Execute runs op through the configured guards.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	return e.execute(ctx, op, true)
}

// ExecuteOnce runs op through every guard except retry. Use it for
// operations that must not be repeated, such as creates.
func (e *Executor) ExecuteOnce(ctx context.Context, op func(context.Context) error) error {
	return e.execute(ctx, op, false)
}

func (e *Executor) execute(ctx context.Context, op func(context.Context) error, retry bool) error {
	run := op

	if e.timeout > 0 {
		inner := run
		run = func(ctx context.Context) error { return attempt(ctx, e.timeout, inner) }
	}
	if e.retry != nil && retry {
		inner := run
		run = func(ctx context.Context) error { return e.retry.Execute(ctx, inner) }
	}
	if e.breaker != nil {
		inner := run
		run = func(ctx context.Context) error { return e.breaker.Execute(ctx, inner) }
	}
	if e.limiter != nil {
		inner := run
		run = func(ctx context.Context) error { return e.limiter.Execute(ctx, inner) }
	}
	return run(ctx)
}

// attempt runs op under its own deadline. A deadline that fires while the
// caller's context is still live becomes ErrTimeout.
func attempt(ctx context.Context, d time.Duration, op func(context.Context) error) error {
	actx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := op(actx)
	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	return err
}
