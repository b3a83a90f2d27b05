// Package reliability provides patterns for building resilient HTTP dispatch.
//
// This package implements the reliability primitives used by the retry and
// circuit breaker interceptors:
//   - Retry Policies: Configurable retry strategies (exponential backoff, linear, fixed)
//   - Circuit Breaker: Prevents hammering an unhealthy origin by monitoring error rates
//   - Permanent errors: Marker wrapper that stops retry loops early
//
// Key features:
//   - Thread-safe implementations suitable for concurrent dispatch
//   - Configurable thresholds, timeouts and jitter
//   - Split Allow/Record surface so outcomes observed asynchronously
//     (for example at the terminal event of a response stream) can be recorded
//     after admission
//
// Example usage:
//
//	// Create a circuit breaker
//	cb := NewCircuitBreaker(
//	    WithFailureThreshold(5),
//	    WithSuccessThreshold(3),
//	    WithOpenTimeout(30 * time.Second),
//	)
//
//	// Guard a dispatch
//	if err := cb.Allow(); err != nil {
//	    return err
//	}
//	err := dispatch()
//	cb.Record(err)
package reliability
