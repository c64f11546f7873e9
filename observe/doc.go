// Package observe instruments cache fetches and mutations.
//
// It owns the OpenTelemetry tracer and meter providers, a JSON structured
// logger, and a Middleware that wraps a fetch or write with a span, metrics
// and a log line. The cache and mutation packages accept a *Middleware and
// fall back to NopMiddleware when none is configured.
//
// Span names follow querysync.<op>.<resource>, for example
// querysync.fetch.lessons or querysync.update.users.
package observe
