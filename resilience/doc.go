// Package resilience guards calls to the remote resource API.
//
// transport.Client runs every request through an Executor composed of:
//
//   - Limiter: a token bucket (golang.org/x/time/rate) that either waits
//     for a token or fails fast with ErrRateLimited.
//   - Breaker: stops calling a server that keeps failing and probes it
//     again after a cool-down.
//   - Retry: retries transient failures with capped backoff.
//   - a per-attempt deadline that reports ErrTimeout.
//
// Only transient errors are retried or counted against the breaker. An
// error is transient when it reports Temporary() == true, or when it is a
// deadline from the per-attempt timeout. Client errors such as a 404 or a
// validation failure pass straight through.
//
//	exec := resilience.NewExecutor(
//	    resilience.WithLimiter(resilience.NewLimiter(resilience.LimiterConfig{Rate: 20, Burst: 5, Wait: true})),
//	    resilience.WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{})),
//	    resilience.WithTimeout(5*time.Second),
//	)
//	err := exec.Execute(ctx, func(ctx context.Context) error { return send(ctx) })
package resilience
