// Package transport is the HTTP adapter between the cache and the catalog
// REST API.
//
// Client implements cache.Fetcher and mutation.Writer:
//
//	fetch   GET    /api/{resource}?{params}
//	create  POST   /api/{resource}
//	update  PUT    /api/{resource}/{id}[/{action}]
//	delete  DELETE /api/{resource}/{id}
//
// Bodies are JSON; successful responses are returned undecoded as
// json.RawMessage. Every request carries an X-Request-ID and, when a
// TokenSource yields one, a bearer token. Requests are traced through
// otelhttp and run under a resilience.Executor. Non-2xx responses become
// *StatusError; 5xx, 408 and 429 are temporary and may be retried.
package transport
