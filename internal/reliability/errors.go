package reliability

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Circuit breaker errors
	ErrUnknownState = errors.New("circuit breaker: unknown state")
)

// CircuitBreakerError reports a dispatch blocked by the circuit breaker
type CircuitBreakerError struct {
	State            State
	Name             string
	Failures         int
	FailureThreshold int
	LastFailure      time.Time
	NextRetry        time.Time
}

func (e *CircuitBreakerError) Error() string {
	switch e.State {
	case StateOpen:
		retryIn := time.Until(e.NextRetry).Round(time.Second)
		return fmt.Sprintf("circuit breaker %s open: dispatch blocked (failures=%d/%d, retry in %v)",
			e.Name, e.Failures, e.FailureThreshold, retryIn)
	case StateHalfOpen:
		return fmt.Sprintf("circuit breaker %s half-open: probe limit reached", e.Name)
	default:
		return fmt.Sprintf("circuit breaker %s: dispatch blocked in state %v", e.Name, e.State)
	}
}

// IsCircuitOpen reports whether err is a circuit breaker rejection
func IsCircuitOpen(err error) bool {
	var cbErr *CircuitBreakerError
	return errors.As(err, &cbErr)
}

// PermanentError marks an error that must not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so retry policies stop immediately. A nil err returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries the permanent marker
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
