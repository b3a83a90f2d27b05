package interceptors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitInterceptor(t *testing.T) {
	t.Run("requests within the burst pass immediately", func(t *testing.T) {
		transport := &countingTransport{}
		chained := Chain(transport, NewRateLimitInterceptor(1, 3))

		start := time.Now()
		for i := 0; i < 3; i++ {
			_, err := dispatch(t, chained, mustRequest(t, "GET", "https://example.com/"))
			require.NoError(t, err)
		}

		assert.Equal(t, 3, transport.Calls())
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("hosts are limited independently", func(t *testing.T) {
		transport := &countingTransport{}
		chained := Chain(transport, NewRateLimitInterceptor(1, 1))

		start := time.Now()
		_, err := dispatch(t, chained, mustRequest(t, "GET", "https://a.example.com/"))
		require.NoError(t, err)
		_, err = dispatch(t, chained, mustRequest(t, "GET", "https://b.example.com/"))
		require.NoError(t, err)

		assert.Equal(t, 2, transport.Calls())
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("cancelled context aborts the wait synchronously", func(t *testing.T) {
		transport := &countingTransport{}
		limiter := NewRateLimitInterceptor(0.001, 1)
		chained := Chain(transport, limiter)

		// drain the single burst token
		_, err := dispatch(t, chained, mustRequest(t, "GET", "https://example.com/"))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		stream, err := chained.Handle(ctx, mustRequest(t, "GET", "https://example.com/"))

		require.Error(t, err)
		assert.Nil(t, stream)
		assert.Equal(t, 1, transport.Calls())
	})
}
