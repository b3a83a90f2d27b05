package interceptors

import (
	"testing"
	"time"

	"github.com/marrek/httpwire/internal/reliability"
	"github.com/marrek/httpwire/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerInterceptor(t *testing.T) {
	t.Run("open circuit refuses without touching the inner handler", func(t *testing.T) {
		transport := &scriptedTransport{terminals: []wire.Event{
			&wire.Failure{Err: assert.AnError},
		}}
		breaker := reliability.NewCircuitBreaker(
			reliability.WithFailureThreshold(2),
			reliability.WithOpenTimeout(time.Hour),
		)
		chained := Chain(transport, NewCircuitBreakerInterceptor(breaker))

		for i := 0; i < 2; i++ {
			_, err := dispatch(t, chained, mustRequest(t, "GET", "https://example.com/"))
			assert.ErrorIs(t, err, assert.AnError)
		}
		assert.Equal(t, 2, transport.Calls())

		_, err := dispatch(t, chained, mustRequest(t, "GET", "https://example.com/"))
		require.Error(t, err)
		assert.True(t, reliability.IsCircuitOpen(err))
		assert.Equal(t, 2, transport.Calls(), "open circuit must not reach the transport")
	})

	t.Run("successes keep the circuit closed", func(t *testing.T) {
		transport := &countingTransport{}
		breaker := reliability.NewCircuitBreaker(reliability.WithFailureThreshold(2))
		chained := Chain(transport, NewCircuitBreakerInterceptor(breaker))

		for i := 0; i < 5; i++ {
			resp, err := dispatch(t, chained, mustRequest(t, "GET", "https://example.com/"))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.Status)
		}
		assert.Equal(t, 5, transport.Calls())
		assert.Equal(t, reliability.StateClosed, breaker.GetState())
	})

	t.Run("5xx responses count as failures by default", func(t *testing.T) {
		transport := &scriptedTransport{terminals: []wire.Event{
			&wire.Response{Status: 500, Header: wire.NewHeader()},
			&wire.Response{Status: 500, Header: wire.NewHeader()},
		}}
		breaker := reliability.NewCircuitBreaker(
			reliability.WithFailureThreshold(2),
			reliability.WithOpenTimeout(time.Hour),
		)
		chained := Chain(transport, NewCircuitBreakerInterceptor(breaker))

		for i := 0; i < 2; i++ {
			resp, err := dispatch(t, chained, mustRequest(t, "GET", "https://example.com/"))
			require.NoError(t, err)
			assert.Equal(t, 500, resp.Status)
		}

		assert.Equal(t, reliability.StateOpen, breaker.GetState())
	})

	t.Run("custom classifier overrides failure accounting", func(t *testing.T) {
		transport := &scriptedTransport{terminals: []wire.Event{
			&wire.Response{Status: 500, Header: wire.NewHeader()},
			&wire.Response{Status: 500, Header: wire.NewHeader()},
		}}
		breaker := reliability.NewCircuitBreaker(reliability.WithFailureThreshold(2))
		tolerant := NewCircuitBreakerInterceptor(breaker).
			WithFailureClassifier(func(terminal wire.Event) error {
				if f, ok := terminal.(*wire.Failure); ok {
					return f.Err
				}
				return nil
			})
		chained := Chain(transport, tolerant)

		for i := 0; i < 2; i++ {
			_, err := dispatch(t, chained, mustRequest(t, "GET", "https://example.com/"))
			require.NoError(t, err)
		}

		assert.Equal(t, reliability.StateClosed, breaker.GetState())
	})
}
