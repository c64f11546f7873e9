package mutation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIntent is matched by every IntentError.
	ErrInvalidIntent = errors.New("mutation: invalid intent")

	ErrNilWriter      = errors.New("mutation: writer is nil")
	ErrNilInvalidator = errors.New("mutation: invalidator is nil")

	// ErrNoDraft is returned when submitting a Draft that was never begun.
	ErrNoDraft = errors.New("mutation: no active draft")
)

// IntentError describes why an intent was rejected before it was sent.
type IntentError struct {
	Resource string
	Field    string
	Reason   string
}

func (e *IntentError) Error() string {
	return fmt.Sprintf("mutation: invalid %s on %q: %s", e.Field, e.Resource, e.Reason)
}

// Is matches ErrInvalidIntent.
func (e *IntentError) Is(target error) bool { return target == ErrInvalidIntent }
