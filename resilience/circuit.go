package resilience

import (
	"context"
	"sync"
	"time"
)

// State is the breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the run of consecutive failures that opens the
	// breaker. Default: 5
	MaxFailures int

	// CoolDown is how long the breaker stays open before letting a probe
	// through. Default: 30s
	CoolDown time.Duration

	// IsFailure decides what counts against the breaker. Default: Transient
	IsFailure func(err error) bool

	// OnStateChange is called with the breaker lock held; it must not call
	// back into the Breaker.
	OnStateChange func(from, to State)

	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Breaker stops calling a server after repeated transient failures.
// While half-open exactly one probe is admitted; its outcome closes or
// re-opens the breaker.
type Breaker struct {
	config BreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker applies defaults to config and returns a closed Breaker.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.CoolDown <= 0 {
		config.CoolDown = 30 * time.Second
	}
	if config.IsFailure == nil {
		config.IsFailure = Transient
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Breaker{config: config}
}

// Execute runs op unless the breaker is open.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := op(ctx)
	b.record(err)
	return err
}

// State returns the current state, moving open to half-open once the
// cool-down has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// Failures returns the current run of consecutive failures.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset closes the breaker.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.probing = false
	b.transitionLocked(StateClosed)
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := b.config.IsFailure(err)
	switch b.state {
	case StateClosed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.config.MaxFailures {
			b.openLocked()
		}
	case StateHalfOpen:
		b.probing = false
		if failed {
			b.openLocked()
			return
		}
		b.failures = 0
		b.transitionLocked(StateClosed)
	}
}

func (b *Breaker) stateLocked() State {
	if b.state == StateOpen && b.config.Now().Sub(b.openedAt) >= b.config.CoolDown {
		b.probing = false
		b.transitionLocked(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) openLocked() {
	b.openedAt = b.config.Now()
	b.transitionLocked(StateOpen)
}

func (b *Breaker) transitionLocked(to State) {
	from := b.state
	b.state = to
	if from != to && b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}
