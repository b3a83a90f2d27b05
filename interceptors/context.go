package interceptors

import (
	"context"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	requestIDKey contextKey = "httpwire:requestId"
	attemptKey   contextKey = "httpwire:attempt"
)

// WithRequestID returns a context carrying the request ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID set by the request ID
// interceptor, or "" when none is set
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withAttempt returns a context carrying the zero-based retry attempt number
func withAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey, attempt)
}

// AttemptFromContext returns the zero-based retry attempt number for the
// current dispatch. It is 0 for the first attempt and when no retry
// interceptor is installed.
func AttemptFromContext(ctx context.Context) int {
	attempt, _ := ctx.Value(attemptKey).(int)
	return attempt
}
