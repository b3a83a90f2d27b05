package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/marrek/httpwire/wire"
)

// Handler dispatches a request and produces its event stream. The channel
// carries zero or more progress events followed by exactly one terminal
// event, then closes. The error return is reserved for synchronous dispatch
// refusal; a nil error means a stream was produced.
type Handler interface {
	Handle(ctx context.Context, req *wire.Request) (<-chan wire.Event, error)
}

// HandlerFunc is a function adapter for Handler
type HandlerFunc func(ctx context.Context, req *wire.Request) (<-chan wire.Event, error)

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, req *wire.Request) (<-chan wire.Event, error) {
	return f(ctx, req)
}

// Interceptor processes a request on its way to the terminal transport. An
// interceptor may transform the request (always via clone, never in place),
// short-circuit by producing a stream without invoking next, or pass through
// and transform the response stream.
type Interceptor interface {
	// Intercept processes a request and calls the next handler in the chain
	Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error)

	// Name returns the interceptor name for logging and debugging
	Name() string
}

// InterceptorFunc is a function adapter for Interceptor
type InterceptorFunc struct {
	name string
	fn   func(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error)
}

// NewInterceptorFunc creates a new function-based interceptor
func NewInterceptorFunc(name string, fn func(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error)) *InterceptorFunc {
	return &InterceptorFunc{name: name, fn: fn}
}

// Intercept implements Interceptor
func (i *InterceptorFunc) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	return i.fn(ctx, req, next)
}

// Name implements Interceptor
func (i *InterceptorFunc) Name() string {
	return i.name
}

// Built-in interceptors

// LoggingInterceptor logs request dispatch and completion
type LoggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor creates a new logging interceptor
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoggingInterceptor{logger: logger}
}

// Intercept implements Interceptor
func (i *LoggingInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	start := time.Now()

	i.logger.Info("dispatching request",
		"method", req.Method(),
		"url", req.URLString(),
	)

	stream, err := next.Handle(ctx, req)
	if err != nil {
		i.logger.Error("dispatch refused",
			"method", req.Method(),
			"url", req.URLString(),
			"error", err,
		)
		return nil, err
	}

	return wire.Pipe(ctx, stream, func(ev wire.Event) wire.Event {
		switch t := ev.(type) {
		case *wire.Response:
			i.logger.Info("request completed",
				"method", req.Method(),
				"url", req.URLString(),
				"statusCode", t.Status,
				"durationMs", time.Since(start).Milliseconds(),
				"bodyBytes", len(t.Body),
			)
		case *wire.Failure:
			i.logger.Error("request failed",
				"method", req.Method(),
				"url", req.URLString(),
				"durationMs", time.Since(start).Milliseconds(),
				"error", t.Err,
			)
		}
		return ev
	}), nil
}

// Name implements Interceptor
func (i *LoggingInterceptor) Name() string {
	return "LoggingInterceptor"
}

// HeaderInterceptor applies default header fields to requests that do not
// already carry them
type HeaderInterceptor struct {
	defaults []headerDefault
}

type headerDefault struct {
	name  string
	value string
}

// NewHeaderInterceptor creates an interceptor with no defaults configured
func NewHeaderInterceptor() *HeaderInterceptor {
	return &HeaderInterceptor{}
}

// Default adds a default header field and returns the interceptor for
// chaining. Defaults are applied in the order added; existing fields are
// never replaced.
func (i *HeaderInterceptor) Default(name, value string) *HeaderInterceptor {
	i.defaults = append(i.defaults, headerDefault{name: name, value: value})
	return i
}

// Intercept implements Interceptor
func (i *HeaderInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	missing := false
	for _, d := range i.defaults {
		if !req.Header().Has(d.name) {
			missing = true
			break
		}
	}
	if !missing {
		return next.Handle(ctx, req)
	}

	out := req.Clone()
	for _, d := range i.defaults {
		if !out.Header().Has(d.name) {
			out.Header().Set(d.name, d.value)
		}
	}
	return next.Handle(ctx, out)
}

// Name implements Interceptor
func (i *HeaderInterceptor) Name() string {
	return "HeaderInterceptor"
}

// RequestIDHeader is the default header carrying the request ID
const RequestIDHeader = "X-Request-Id"

// RequestIDInterceptor assigns a unique request ID when one is absent and
// publishes it on the context for downstream interceptors
type RequestIDInterceptor struct {
	header string
}

// NewRequestIDInterceptor creates a new request ID interceptor
func NewRequestIDInterceptor() *RequestIDInterceptor {
	return &RequestIDInterceptor{header: RequestIDHeader}
}

// WithHeaderName overrides the header carrying the request ID
func (i *RequestIDInterceptor) WithHeaderName(name string) *RequestIDInterceptor {
	i.header = name
	return i
}

// Intercept implements Interceptor
func (i *RequestIDInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	id := req.Header().Get(i.header)
	if id == "" {
		id = uuid.NewString()
		req = req.WithHeader(i.header, id)
	}
	return next.Handle(WithRequestID(ctx, id), req)
}

// Name implements Interceptor
func (i *RequestIDInterceptor) Name() string {
	return "RequestIDInterceptor"
}

// TimeoutInterceptor bounds each dispatch with a deadline
type TimeoutInterceptor struct {
	timeout time.Duration
}

// NewTimeoutInterceptor creates a new timeout interceptor
func NewTimeoutInterceptor(timeout time.Duration) *TimeoutInterceptor {
	return &TimeoutInterceptor{timeout: timeout}
}

// Intercept implements Interceptor
func (i *TimeoutInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	tctx, cancel := context.WithTimeout(ctx, i.timeout)

	stream, err := next.Handle(tctx, req)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan wire.Event)
	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-tctx.Done():
				// Inner producers stop on tctx; report the deadline to the
				// caller unless the caller itself went away.
				select {
				case out <- &wire.Failure{Err: tctx.Err()}:
				case <-ctx.Done():
				}
				return
			case ev, ok := <-stream:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-tctx.Done():
					return
				}
				if wire.IsTerminal(ev) {
					return
				}
			}
		}
	}()
	return out, nil
}

// Name implements Interceptor
func (i *TimeoutInterceptor) Name() string {
	return "TimeoutInterceptor"
}
