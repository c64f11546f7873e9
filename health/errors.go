package health

import "errors"

var (
	// ErrCheckTimeout is recorded when a checker does not answer before the
	// aggregator's deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrUnexpectedStatus is recorded by HTTPChecker for a non-2xx answer.
	ErrUnexpectedStatus = errors.New("health: unexpected status")
)
