package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// OpMeta describes one remote operation against a resource.
type OpMeta struct {
	Resource  string // resource name, e.g. "lessons"
	Op        string // fetch|create|update|delete
	Key       string // encoded cache key, fetches only
	RequestID string // correlation id, mutations only
}

// SpanName returns querysync.<op>.<resource>.
func (m OpMeta) SpanName() string {
	return "querysync." + m.Op + "." + m.Resource
}

// Fields returns the log fields for m, skipping empty ones.
func (m OpMeta) Fields() []Field {
	fields := []Field{F("resource", m.Resource), F("op", m.Op)}
	if m.Key != "" {
		fields = append(fields, F("key", m.Key))
	}
	if m.RequestID != "" {
		fields = append(fields, F("request_id", m.RequestID))
	}
	return fields
}

func (m OpMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("querysync.resource", m.Resource),
		attribute.String("querysync.op", m.Op),
	}
	if m.Key != "" {
		attrs = append(attrs, attribute.String("querysync.key", m.Key))
	}
	if m.RequestID != "" {
		attrs = append(attrs, attribute.String("querysync.request_id", m.RequestID))
	}
	return attrs
}

// Tracer starts and ends operation spans.
type Tracer interface {
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer adapts an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &otelTracer{tracer: t}
}

func (t *otelTracer) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *otelTracer) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func nopTracer() Tracer {
	return &otelTracer{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}
