package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is matched by every InputError.
	ErrInvalidInput = errors.New("catalog: invalid input")

	ErrUnknownScreen = errors.New("catalog: unknown screen")
)

// InputError is a form field that failed validation.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("catalog: %s: %s", e.Field, e.Reason)
}

// Is matches ErrInvalidInput.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }
