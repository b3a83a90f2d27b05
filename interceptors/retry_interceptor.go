package interceptors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/marrek/httpwire/internal/reliability"
	"github.com/marrek/httpwire/wire"
)

// errUnsubscribed aborts the retry loop when the caller goes away. Wrapped
// permanent so the policy never retries it.
var errUnsubscribed = errors.New("interceptors: caller unsubscribed")

// DefaultRetryableStatuses are the response statuses retried when no
// explicit set is configured
var DefaultRetryableStatuses = []int{429, 502, 503, 504}

// RetryInterceptor re-dispatches failed requests according to a retry
// policy. Transport failures and configured response statuses are retried;
// permanent errors, context errors and everything else end the loop. The
// final attempt's terminal event is delivered unchanged, so an exhausted
// retry on a 503 still surfaces the 503 response rather than a synthetic
// error. Request bodies are buffered by construction, so every attempt
// replays the same bytes.
type RetryInterceptor struct {
	retryPolicy reliability.RetryPolicy
	statuses    map[int]bool
	logger      *slog.Logger
}

// NewRetryInterceptor creates a new retry interceptor
func NewRetryInterceptor(retryPolicy reliability.RetryPolicy) *RetryInterceptor {
	statuses := make(map[int]bool, len(DefaultRetryableStatuses))
	for _, s := range DefaultRetryableStatuses {
		statuses[s] = true
	}
	return &RetryInterceptor{
		retryPolicy: retryPolicy,
		statuses:    statuses,
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger for the retry interceptor
func (r *RetryInterceptor) WithLogger(logger *slog.Logger) *RetryInterceptor {
	r.logger = logger
	return r
}

// WithRetryableStatuses replaces the set of response statuses that trigger a retry
func (r *RetryInterceptor) WithRetryableStatuses(statuses ...int) *RetryInterceptor {
	r.statuses = make(map[int]bool, len(statuses))
	for _, s := range statuses {
		r.statuses[s] = true
	}
	return r
}

// Intercept implements the Interceptor interface. The delay and decision
// loop is reliability.Retry; this layer maps stream terminals to the errors
// driving it.
func (r *RetryInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	out := make(chan wire.Event)
	go func() {
		defer close(out)

		forward := func(ev wire.Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var terminal wire.Event
		var lastErr error
		attempt := 0

		err := reliability.Retry(ctx, r.retryPolicy, func() error {
			if attempt > 0 {
				r.logger.Debug("retrying request",
					"method", req.Method(),
					"url", req.URLString(),
					"attempt", attempt,
					"error", lastErr,
				)
			}
			t := r.attempt(withAttempt(ctx, attempt), req, next, forward)
			attempt++
			if t == nil {
				return reliability.Permanent(errUnsubscribed)
			}
			terminal = t
			lastErr = r.classify(t)
			return lastErr
		})

		switch {
		case errors.Is(err, errUnsubscribed):
			// Caller unsubscribed mid-stream
		case err == nil || err == lastErr:
			// The last attempt stands as the final outcome, delivered
			// unchanged
			forward(terminal)
		default:
			// ctx ended between attempts
			forward(&wire.Failure{Err: err})
		}
	}()
	return out, nil
}

// attempt runs one inner dispatch, forwarding progress events and returning
// the terminal event. A nil return means the caller went away.
func (r *RetryInterceptor) attempt(ctx context.Context, req *wire.Request, next Handler, forward func(wire.Event) bool) wire.Event {
	stream, err := next.Handle(ctx, req)
	if err != nil {
		return &wire.Failure{Err: err}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-stream:
			if !ok {
				return &wire.Failure{Err: wire.ErrTruncatedStream}
			}
			if wire.IsTerminal(ev) {
				return ev
			}
			if !forward(ev) {
				return nil
			}
		}
	}
}

// classify maps a terminal event to the error driving the retry decision.
// Nil means the attempt stands as the final outcome.
func (r *RetryInterceptor) classify(terminal wire.Event) error {
	switch t := terminal.(type) {
	case *wire.Failure:
		return t.Err
	case *wire.Response:
		if r.statuses[t.Status] {
			return t.StatusError()
		}
		return nil
	default:
		return nil
	}
}

// Name returns the interceptor name
func (r *RetryInterceptor) Name() string {
	return "RetryInterceptor"
}
