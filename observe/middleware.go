package observe

import (
	"context"
	"time"
)

// OperationFunc performs one remote operation.
type OperationFunc func(ctx context.Context, meta OpMeta) (any, error)

// Middleware wraps operations with tracing, metrics, and logging.
//
// Errors and results from the wrapped function are returned unchanged.
// A nil *Middleware behaves like NopMiddleware.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = nopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// NopMiddleware returns a Middleware that only runs the wrapped function.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// MiddlewareFromObserver builds a Middleware from obs.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	if m == nil {
		return NopLogger()
	}
	return m.logger
}

// Metrics returns the middleware's metrics.
func (m *Middleware) Metrics() Metrics {
	if m == nil {
		return NopMetrics()
	}
	return m.metrics
}

// Wrap instruments fn.
func (m *Middleware) Wrap(fn OperationFunc) OperationFunc {
	if m == nil {
		return fn
	}
	return func(ctx context.Context, meta OpMeta) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordOperation(ctx, meta, duration, err)

		fields := append(meta.Fields(), F("duration_ms", float64(duration)/float64(time.Millisecond)))
		if err != nil {
			m.logger.Error(ctx, meta.Op+" failed", append(fields, F("error", err))...)
		} else {
			m.logger.Debug(ctx, meta.Op+" completed", fields...)
		}
		return result, err
	}
}
