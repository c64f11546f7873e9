package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache and mutation activity.
//
// Implementations must be safe for concurrent use and must not panic.
type Metrics interface {
	// RecordOperation records one fetch or write with its outcome.
	RecordOperation(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordInvalidation records how many keys one invalidation touched.
	RecordInvalidation(ctx context.Context, resource string, keys int)

	// RecordDiscard records a fetch result dropped because a newer fetch
	// for the same key was issued.
	RecordDiscard(ctx context.Context, meta OpMeta)
}

type otelMetrics struct {
	total       metric.Int64Counter
	errors      metric.Int64Counter
	duration    metric.Float64Histogram
	invalidated metric.Int64Counter
	discarded   metric.Int64Counter
}

// NewMetrics registers the querysync instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &otelMetrics{}
	var err error

	if m.total, err = meter.Int64Counter("querysync.op.total",
		metric.WithDescription("Remote operations issued"),
		metric.WithUnit("{call}")); err != nil {
		return nil, err
	}
	if m.errors, err = meter.Int64Counter("querysync.op.errors",
		metric.WithDescription("Remote operations that failed"),
		metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("querysync.op.duration_ms",
		metric.WithDescription("Remote operation duration in milliseconds"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.invalidated, err = meter.Int64Counter("querysync.invalidation.keys",
		metric.WithDescription("Cache keys marked stale by invalidation"),
		metric.WithUnit("{key}")); err != nil {
		return nil, err
	}
	if m.discarded, err = meter.Int64Counter("querysync.fetch.discarded",
		metric.WithDescription("Fetch results superseded by a newer fetch"),
		metric.WithUnit("{response}")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *otelMetrics) RecordOperation(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("querysync.resource", meta.Resource),
		attribute.String("querysync.op", meta.Op),
	)
	m.total.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

func (m *otelMetrics) RecordInvalidation(ctx context.Context, resource string, keys int) {
	m.invalidated.Add(ctx, int64(keys), metric.WithAttributes(
		attribute.String("querysync.resource", resource),
	))
}

func (m *otelMetrics) RecordDiscard(ctx context.Context, meta OpMeta) {
	m.discarded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("querysync.resource", meta.Resource),
	))
}

type nopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) RecordOperation(context.Context, OpMeta, time.Duration, error) {}
func (nopMetrics) RecordInvalidation(context.Context, string, int)              {}
func (nopMetrics) RecordDiscard(context.Context, OpMeta)                        {}
