package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKeyParams is matched by every key encoding failure.
	ErrInvalidKeyParams = errors.New("cache: invalid key params")

	// ErrTransport is matched by every fetch or write failure reported by
	// the remote side or the network.
	ErrTransport = errors.New("cache: transport failure")

	// ErrNilFetcher is returned by NewStore when no fetcher is supplied.
	ErrNilFetcher = errors.New("cache: fetcher is nil")

	// ErrNilListener is returned by Subscribe for a nil listener.
	ErrNilListener = errors.New("cache: listener is nil")

	// ErrClosed is returned by operations on a closed Store.
	ErrClosed = errors.New("cache: store is closed")
)

// KeyError describes a resource name or parameter that cannot be encoded.
type KeyError struct {
	Resource string
	Param    string
	Reason   string
}

func (e *KeyError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("cache: invalid key for resource %q: %s", e.Resource, e.Reason)
	}
	return fmt.Sprintf("cache: invalid key param %q for resource %q: %s", e.Param, e.Resource, e.Reason)
}

// Is reports whether target is ErrInvalidKeyParams.
func (e *KeyError) Is(target error) bool {
	return target == ErrInvalidKeyParams
}

// TransportError wraps a failed remote operation.
type TransportError struct {
	Resource   string
	Op         string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("cache: %s %s: status %d: %v", e.Op, e.Resource, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("cache: %s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// AsTransportError wraps err as a *TransportError for resource and op.
// Errors that already are one are returned unchanged; nil stays nil.
func AsTransportError(resource, op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	te = &TransportError{Resource: resource, Op: op, Err: err}
	var sc statusCoder
	if errors.As(err, &sc) {
		te.StatusCode = sc.StatusCode()
	}
	return te
}
