package reliability

import (
	"fmt"
	"sync"
	"time"
)

// State represents the circuit breaker state
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

// CircuitBreaker implements the circuit breaker pattern with a split
// Allow/Record surface so that outcomes observed after admission, such as the
// terminal event of a response stream, can still be recorded.
type CircuitBreaker struct {
	mu              sync.RWMutex
	state           State
	failures        int
	successes       int
	lastFailureTime time.Time
	totalRequests   int64
	totalFailures   int64
	totalSuccesses  int64

	// Configuration
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	halfOpenLimit    int
	currentHalfOpen  int
	name             string
	onStateChange    func(from, to State, reason string)
}

// CircuitBreakerOption configures the circuit breaker
type CircuitBreakerOption func(*CircuitBreaker)

// WithFailureThreshold sets the consecutive failure count that opens the circuit
func WithFailureThreshold(threshold int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.failureThreshold = threshold
	}
}

// WithSuccessThreshold sets the successes required to close from half-open
func WithSuccessThreshold(threshold int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.successThreshold = threshold
	}
}

// WithOpenTimeout sets how long the circuit stays open before probing
func WithOpenTimeout(timeout time.Duration) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.openTimeout = timeout
	}
}

// WithHalfOpenLimit sets the max concurrent probes in half-open state
func WithHalfOpenLimit(limit int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.halfOpenLimit = limit
	}
}

// WithName sets the circuit breaker name for identification
func WithName(name string) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.name = name
	}
}

// WithStateChangeFunc sets a callback invoked on every state transition.
// The callback runs on its own goroutine and must not block indefinitely.
func WithStateChangeFunc(fn func(from, to State, reason string)) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.onStateChange = fn
	}
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(options ...CircuitBreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 3,
		openTimeout:      30 * time.Second,
		halfOpenLimit:    3,
		name:             "default",
	}

	for _, opt := range options {
		opt(cb)
	}

	return cb
}

// Allow reports whether a dispatch may proceed. An open circuit returns a
// *CircuitBreakerError; a half-open circuit admits a limited number of probes.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		nextRetry := cb.lastFailureTime.Add(cb.openTimeout)
		if time.Now().After(nextRetry) {
			oldState := cb.state
			cb.state = StateHalfOpen
			cb.currentHalfOpen = 0
			cb.successes = 0
			cb.notifyStateChange(oldState, cb.state, "open timeout expired")
			cb.currentHalfOpen++
			return nil
		}
		return &CircuitBreakerError{
			State:            cb.state,
			Name:             cb.name,
			Failures:         cb.failures,
			FailureThreshold: cb.failureThreshold,
			LastFailure:      cb.lastFailureTime,
			NextRetry:        nextRetry,
		}

	case StateHalfOpen:
		if cb.currentHalfOpen >= cb.halfOpenLimit {
			return &CircuitBreakerError{
				State:            cb.state,
				Name:             cb.name,
				Failures:         cb.failures,
				FailureThreshold: cb.failureThreshold,
				LastFailure:      cb.lastFailureTime,
				NextRetry:        time.Now().Add(time.Second),
			}
		}
		cb.currentHalfOpen++
		return nil

	default:
		return ErrUnknownState
	}
}

// Record records the outcome of an admitted dispatch
func (cb *CircuitBreaker) Record(err error) {
	if err != nil {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
}

// RecordFailure records a failed dispatch
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.totalFailures++
	cb.lastFailureTime = time.Now()
	oldState := cb.state

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.failureThreshold {
			cb.state = StateOpen
			cb.notifyStateChange(oldState, cb.state,
				fmt.Sprintf("failure threshold reached (%d/%d)", cb.failures, cb.failureThreshold))
		}

	case StateHalfOpen:
		// Single failure in half-open moves back to open
		cb.state = StateOpen
		cb.currentHalfOpen = 0
		cb.notifyStateChange(oldState, cb.state, "failure in half-open state")
	}

	if cb.state != StateClosed {
		cb.successes = 0
	}
}

// RecordSuccess records a successful dispatch
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.successes++
	cb.totalSuccesses++
	oldState := cb.state

	switch cb.state {
	case StateHalfOpen:
		if cb.successes >= cb.successThreshold {
			cb.state = StateClosed
			cb.failures = 0
			cb.currentHalfOpen = 0
			cb.notifyStateChange(oldState, cb.state,
				fmt.Sprintf("success threshold reached (%d/%d)", cb.successes, cb.successThreshold))
		}

	case StateClosed:
		// Reset failure counter on success in closed state
		if cb.failures > 0 {
			cb.failures = 0
		}
	}
}

// GetState returns the current state
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Name returns the circuit breaker name
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Reset returns the circuit breaker to the closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
	cb.currentHalfOpen = 0
}

// notifyStateChange invokes the state change callback. Caller holds the lock,
// so the callback runs on its own goroutine.
func (cb *CircuitBreaker) notifyStateChange(from, to State, reason string) {
	if cb.onStateChange == nil {
		return
	}
	go cb.onStateChange(from, to, reason)
}

// Snapshot returns a point-in-time view of the circuit breaker counters
func (cb *CircuitBreaker) Snapshot() CircuitBreakerStats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return CircuitBreakerStats{
		Name:             cb.name,
		State:            cb.state,
		TotalRequests:    cb.totalRequests,
		TotalFailures:    cb.totalFailures,
		TotalSuccesses:   cb.totalSuccesses,
		CurrentFailures:  cb.failures,
		CurrentSuccesses: cb.successes,
		LastFailureTime:  cb.lastFailureTime,
		Timestamp:        time.Now(),
	}
}

// CircuitBreakerStats represents circuit breaker counters
type CircuitBreakerStats struct {
	Name             string
	State            State
	TotalRequests    int64
	TotalFailures    int64
	TotalSuccesses   int64
	CurrentFailures  int
	CurrentSuccesses int
	LastFailureTime  time.Time
	Timestamp        time.Time
}
