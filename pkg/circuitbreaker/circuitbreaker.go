// Package circuitbreaker keeps a failing score board (Redis) from slowing
// down every leaderboard request: after repeated failures calls fail fast
// until the open period passes, then a probe decides whether to close again.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State of a circuit breaker.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the open period passes.
	StateOpen
	// StateHalfOpen lets a limited number of probes through.
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

var (
	// ErrCircuitOpen is returned while the circuit is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrProbeLimit is returned when all half-open probes are in flight.
	ErrProbeLimit = errors.New("circuit breaker probe limit reached")
)

// IsRejected reports whether err means the breaker refused the call
// without running it.
func IsRejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrProbeLimit)
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

// Settings configures a CircuitBreaker. Zero fields take the defaults noted.
type Settings struct {
	// Name identifies the breaker in logs.
	Name string

	// FailureThreshold consecutive failures open the circuit (default 5).
	FailureThreshold int

	// SuccessThreshold consecutive half-open successes close it (default 1).
	SuccessThreshold int

	// OpenFor is how long the circuit stays open before probing (default 30s).
	OpenFor time.Duration

	// HalfOpenProbes is the number of concurrent probes (default 1).
	HalfOpenProbes int

	// IsFailure decides which errors count against the circuit.
	// Nil counts every error. Errors it rejects count as successes.
	IsFailure func(error) bool

	// OnStateChange is called under the breaker's lock; keep it short.
	OnStateChange func(name string, from, to State)
}

func (s Settings) withDefaults() Settings {
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = 5
	}
	if s.SuccessThreshold <= 0 {
		s.SuccessThreshold = 1
	}
	if s.OpenFor <= 0 {
		s.OpenFor = 30 * time.Second
	}
	if s.HalfOpenProbes <= 0 {
		s.HalfOpenProbes = 1
	}
	return s
}

// Scoreboard returns the settings used for the class score board.
// A caller cancelling its context says nothing about Redis health.
func Scoreboard(onStateChange func(name string, from, to State)) Settings {
	return Settings{
		Name:             "scoreboard",
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenFor:          15 * time.Second,
		HalfOpenProbes:   1,
		IsFailure: func(err error) bool {
			return !errors.Is(err, context.Canceled)
		},
		OnStateChange: onStateChange,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CIRCUIT BREAKER
// ══════════════════════════════════════════════════════════════════════════════

// Counts are the breaker's running totals.
type Counts struct {
	Requests             int
	TotalSuccesses       int
	TotalFailures        int
	ConsecutiveSuccesses int
	ConsecutiveFailures  int
}

// CircuitBreaker guards calls to one dependency.
type CircuitBreaker struct {
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	probes   int
}

// New creates a closed breaker.
func New(settings Settings) *CircuitBreaker {
	return &CircuitBreaker{
		settings: settings.withDefaults(),
		now:      time.Now,
	}
}

// Execute runs fn unless the circuit rejects the call, and records the
// outcome. Rejections return ErrCircuitOpen or ErrProbeLimit.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.settings.OpenFor {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.probes = 1
		return nil

	case StateHalfOpen:
		if cb.probes >= cb.settings.HalfOpenProbes {
			return ErrProbeLimit
		}
		cb.probes++
		return nil
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.counts.Requests++

	failed := err != nil
	if failed && cb.settings.IsFailure != nil {
		failed = cb.settings.IsFailure(err)
	}

	if !failed {
		cb.counts.TotalSuccesses++
		cb.counts.ConsecutiveSuccesses++
		cb.counts.ConsecutiveFailures = 0
		if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.settings.SuccessThreshold {
			cb.transition(StateClosed)
		}
		return
	}

	cb.counts.TotalFailures++
	cb.counts.ConsecutiveFailures++
	cb.counts.ConsecutiveSuccesses = 0

	switch cb.state {
	case StateClosed:
		if cb.counts.ConsecutiveFailures >= cb.settings.FailureThreshold {
			cb.open()
		}
	case StateHalfOpen:
		// A failed probe reopens the circuit for a full period.
		cb.open()
	}
}

func (cb *CircuitBreaker) open() {
	cb.openedAt = cb.now()
	cb.transition(StateOpen)
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.counts.ConsecutiveSuccesses = 0
	cb.counts.ConsecutiveFailures = 0
	cb.probes = 0

	if cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.settings.Name, from, to)
	}
}

// State returns the current state. An open circuit whose period has passed
// still reports open until the next call probes it.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns a copy of the running totals.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Reset closes the circuit and clears the totals.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.counts = Counts{}
	cb.probes = 0
}

// Name returns the breaker's name.
func (cb *CircuitBreaker) Name() string {
	return cb.settings.Name
}
