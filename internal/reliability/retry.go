package reliability

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines the interface for retry policies
type RetryPolicy interface {
	// ShouldRetry determines if a retry should be attempted
	ShouldRetry(attempt int, err error) (bool, time.Duration)
	// MaxRetries returns the maximum number of retries
	MaxRetries() int
	// NextDelay calculates the next retry delay
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with optional jitter
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxAttempts     int
	Jitter          bool
}

// NewExponentialBackoff creates a new exponential backoff policy
func NewExponentialBackoff(initial, max time.Duration, multiplier float64, maxRetries int) *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialInterval: initial,
		MaxInterval:     max,
		Multiplier:      multiplier,
		MaxAttempts:     maxRetries,
		Jitter:          true,
	}
}

// ShouldRetry implements RetryPolicy
func (e *ExponentialBackoff) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if attempt >= e.MaxAttempts || !retryable(err) {
		return false, 0
	}
	return true, e.NextDelay(attempt)
}

// MaxRetries implements RetryPolicy
func (e *ExponentialBackoff) MaxRetries() int {
	return e.MaxAttempts
}

// NextDelay implements RetryPolicy
func (e *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(e.InitialInterval) * math.Pow(e.Multiplier, float64(attempt))
	if delay > float64(e.MaxInterval) {
		delay = float64(e.MaxInterval)
	}
	if e.Jitter {
		delay = applyJitter(delay)
	}
	return time.Duration(delay)
}

// LinearBackoff implements a constant-interval retry policy with optional jitter
type LinearBackoff struct {
	Interval    time.Duration
	MaxAttempts int
	Jitter      bool
}

// NewLinearBackoff creates a new linear backoff policy
func NewLinearBackoff(interval time.Duration, maxRetries int) *LinearBackoff {
	return &LinearBackoff{
		Interval:    interval,
		MaxAttempts: maxRetries,
		Jitter:      true,
	}
}

// ShouldRetry implements RetryPolicy
func (l *LinearBackoff) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if attempt >= l.MaxAttempts || !retryable(err) {
		return false, 0
	}
	return true, l.NextDelay(attempt)
}

// MaxRetries implements RetryPolicy
func (l *LinearBackoff) MaxRetries() int {
	return l.MaxAttempts
}

// NextDelay implements RetryPolicy
func (l *LinearBackoff) NextDelay(attempt int) time.Duration {
	if l.Jitter {
		return time.Duration(applyJitter(float64(l.Interval)))
	}
	return l.Interval
}

// FixedDelay implements a fixed delay retry policy without jitter
type FixedDelay struct {
	Delay       time.Duration
	MaxAttempts int
}

// NewFixedDelay creates a new fixed delay policy
func NewFixedDelay(delay time.Duration, maxRetries int) *FixedDelay {
	return &FixedDelay{
		Delay:       delay,
		MaxAttempts: maxRetries,
	}
}

// ShouldRetry implements RetryPolicy
func (f *FixedDelay) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if attempt >= f.MaxAttempts || !retryable(err) {
		return false, 0
	}
	return true, f.Delay
}

// MaxRetries implements RetryPolicy
func (f *FixedDelay) MaxRetries() int {
	return f.MaxAttempts
}

// NextDelay implements RetryPolicy
func (f *FixedDelay) NextDelay(attempt int) time.Duration {
	return f.Delay
}

// applyJitter spreads a delay by ±15% to avoid synchronized retry storms
func applyJitter(delay float64) float64 {
	return delay + rand.Float64()*0.3*delay - 0.15*delay
}

// Retry executes fn until it succeeds, the policy declines, the error is
// permanent, or ctx is done. The last attempt's error is returned unchanged.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		shouldRetry, delay := policy.ShouldRetry(attempt, err)
		if !shouldRetry {
			return err
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// retryable reports whether an error may be retried. Permanent errors and
// context errors never are; everything else defaults to retryable.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !IsPermanent(err)
}
