package interceptors

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marrek/httpwire/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// okTransport replies 200 and records the last request it saw
type okTransport struct {
	last *wire.Request
}

func (t *okTransport) Handle(ctx context.Context, req *wire.Request) (<-chan wire.Event, error) {
	t.last = req
	return wire.Emit(&wire.Response{Status: 200, Header: wire.NewHeader(), Body: []byte("ok")}), nil
}

func dispatch(t *testing.T, h Handler, req *wire.Request) (*wire.Response, error) {
	t.Helper()
	stream, err := h.Handle(context.Background(), req)
	if err != nil {
		return nil, err
	}
	_, resp, err := wire.Collect(context.Background(), stream)
	return resp, err
}

func TestLoggingInterceptor(t *testing.T) {
	t.Run("logs dispatch and completion", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		transport := &okTransport{}

		chained := Chain(transport, NewLoggingInterceptor(logger))
		resp, err := dispatch(t, chained, mustRequest(t, "GET", "https://example.com/items"))

		require.NoError(t, err)
		assert.Equal(t, 200, resp.Status)
		out := buf.String()
		assert.Contains(t, out, "dispatching request")
		assert.Contains(t, out, "request completed")
		assert.Contains(t, out, "statusCode=200")
		assert.Contains(t, out, "https://example.com/items")
	})

	t.Run("logs failures without altering the stream", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		failing := HandlerFunc(func(ctx context.Context, req *wire.Request) (<-chan wire.Event, error) {
			return wire.Fail(assert.AnError), nil
		})

		chained := Chain(failing, NewLoggingInterceptor(logger))
		_, err := dispatch(t, chained, mustRequest(t, "GET", "https://example.com/"))

		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, buf.String(), "request failed")
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		assert.NotPanics(t, func() {
			i := NewLoggingInterceptor(nil)
			_, _ = dispatch(t, Chain(&okTransport{}, i), mustRequest(t, "GET", "https://example.com/"))
		})
	})
}

func TestHeaderInterceptor(t *testing.T) {
	t.Run("applies defaults without replacing existing fields", func(t *testing.T) {
		transport := &okTransport{}
		i := NewHeaderInterceptor().
			Default("Accept", "application/json").
			Default("X-Tenant", "acme")

		req := mustRequest(t, "GET", "https://example.com/")
		req = req.WithHeader("Accept", "text/plain")
		_, err := dispatch(t, Chain(transport, i), req)

		require.NoError(t, err)
		assert.Equal(t, "text/plain", transport.last.Header().Get("Accept"))
		assert.Equal(t, "acme", transport.last.Header().Get("X-Tenant"))
		// the caller's request was never mutated
		assert.False(t, req.Header().Has("X-Tenant"))
	})

	t.Run("passes through untouched when nothing is missing", func(t *testing.T) {
		transport := &okTransport{}
		i := NewHeaderInterceptor().Default("Accept", "application/json")

		req := mustRequest(t, "GET", "https://example.com/")
		req = req.WithHeader("Accept", "text/plain")
		_, err := dispatch(t, Chain(transport, i), req)

		require.NoError(t, err)
		assert.Same(t, req, transport.last)
	})
}

func TestRequestIDInterceptor(t *testing.T) {
	t.Run("assigns an id when absent", func(t *testing.T) {
		transport := &okTransport{}
		_, err := dispatch(t, Chain(transport, NewRequestIDInterceptor()), mustRequest(t, "GET", "https://example.com/"))

		require.NoError(t, err)
		id := transport.last.Header().Get(RequestIDHeader)
		require.NotEmpty(t, id)
		_, parseErr := uuid.Parse(id)
		assert.NoError(t, parseErr)
	})

	t.Run("keeps an existing id", func(t *testing.T) {
		transport := &okTransport{}
		req := mustRequest(t, "GET", "https://example.com/").WithHeader(RequestIDHeader, "given-id")
		_, err := dispatch(t, Chain(transport, NewRequestIDInterceptor()), req)

		require.NoError(t, err)
		assert.Equal(t, "given-id", transport.last.Header().Get(RequestIDHeader))
	})

	t.Run("publishes the id on the context", func(t *testing.T) {
		var fromCtx string
		probe := HandlerFunc(func(ctx context.Context, req *wire.Request) (<-chan wire.Event, error) {
			fromCtx = RequestIDFromContext(ctx)
			return wire.Emit(&wire.Response{Status: 200, Header: wire.NewHeader()}), nil
		})
		_, err := dispatch(t, Chain(probe, NewRequestIDInterceptor()), mustRequest(t, "GET", "https://example.com/"))

		require.NoError(t, err)
		assert.NotEmpty(t, fromCtx)
	})
}

func TestTimeoutInterceptor(t *testing.T) {
	t.Run("fast dispatch passes through", func(t *testing.T) {
		transport := &okTransport{}
		resp, err := dispatch(t, Chain(transport, NewTimeoutInterceptor(time.Second)), mustRequest(t, "GET", "https://example.com/"))

		require.NoError(t, err)
		assert.Equal(t, 200, resp.Status)
	})

	t.Run("stalled dispatch fails with deadline exceeded", func(t *testing.T) {
		stalled := HandlerFunc(func(ctx context.Context, req *wire.Request) (<-chan wire.Event, error) {
			ch := make(chan wire.Event)
			go func() {
				defer close(ch)
				<-ctx.Done()
			}()
			return ch, nil
		})

		chained := Chain(stalled, NewTimeoutInterceptor(30*time.Millisecond))
		_, err := dispatch(t, chained, mustRequest(t, "GET", "https://example.com/"))

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
