package observe

import "errors"

// Configuration errors.
var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample percentage must be between 0.0 and 1.0")
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: invalid log level")
)

// ErrNilObserver indicates a nil Observer was passed to MiddlewareFromObserver.
var ErrNilObserver = errors.New("observe: observer is nil")

// RedactedFields lists log field keys whose values are never written.
var RedactedFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"authorization",
	"credential",
	"payload",
}

var redacted = func() map[string]bool {
	m := make(map[string]bool, len(RedactedFields))
	for _, k := range RedactedFields {
		m[k] = true
	}
	return m
}()
