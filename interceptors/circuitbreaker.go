package interceptors

import (
	"context"

	"github.com/marrek/httpwire/internal/reliability"
	"github.com/marrek/httpwire/wire"
)

// FailureClassifier decides whether a terminal event counts as a failure
// for circuit breaker accounting
type FailureClassifier func(terminal wire.Event) error

// DefaultFailureClassifier counts dispatch failures and 5xx responses
func DefaultFailureClassifier(terminal wire.Event) error {
	switch t := terminal.(type) {
	case *wire.Failure:
		return t.Err
	case *wire.Response:
		if t.Status >= 500 {
			return t.StatusError()
		}
		return nil
	default:
		return nil
	}
}

// CircuitBreakerInterceptor gates dispatch through a circuit breaker. An
// open circuit refuses synchronously without touching the inner handler;
// admitted dispatches record their outcome at the terminal event.
type CircuitBreakerInterceptor struct {
	breaker  *reliability.CircuitBreaker
	classify FailureClassifier
}

// NewCircuitBreakerInterceptor creates a new circuit breaker interceptor
func NewCircuitBreakerInterceptor(breaker *reliability.CircuitBreaker) *CircuitBreakerInterceptor {
	return &CircuitBreakerInterceptor{
		breaker:  breaker,
		classify: DefaultFailureClassifier,
	}
}

// WithFailureClassifier overrides the failure classification
func (i *CircuitBreakerInterceptor) WithFailureClassifier(fn FailureClassifier) *CircuitBreakerInterceptor {
	i.classify = fn
	return i
}

// Intercept implements Interceptor
func (i *CircuitBreakerInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	if err := i.breaker.Allow(); err != nil {
		return nil, err
	}

	stream, err := next.Handle(ctx, req)
	if err != nil {
		i.breaker.RecordFailure()
		return nil, err
	}

	recorded := false
	return wire.Pipe(ctx, stream, func(ev wire.Event) wire.Event {
		if wire.IsTerminal(ev) && !recorded {
			recorded = true
			i.breaker.Record(i.classify(ev))
		}
		return ev
	}), nil
}

// Name implements Interceptor
func (i *CircuitBreakerInterceptor) Name() string {
	return "CircuitBreakerInterceptor"
}
