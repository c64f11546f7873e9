package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrBaseURL = errors.New("transport: base URL must be absolute http(s)")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("transport: %s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("transport: %s %s: %d %s", e.Method, e.Path, e.Code, e.Message)
}

// StatusCode returns the HTTP status.
func (e *StatusError) StatusCode() int { return e.Code }

// Temporary reports whether retrying may succeed.
func (e *StatusError) Temporary() bool {
	switch {
	case e.Code >= 500,
		e.Code == http.StatusTooManyRequests,
		e.Code == http.StatusRequestTimeout:
		return true
	}
	return false
}

// NetworkError is a request that got no response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Temporary is always true; the caller's own cancellation is returned as
// the bare context error instead.
func (e *NetworkError) Temporary() bool { return true }
