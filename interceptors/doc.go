// Package interceptors provides the interceptor chain at the heart of the
// httpwire client.
//
// A Handler converts a request into a lazy event stream; an Interceptor
// wraps a Handler, free to transform the request, short-circuit, or
// transform the response stream. Chain composes an ordered interceptor list
// around a terminal transport, and LazyHandler defers that composition to
// the first dispatch so interceptor sources that depend on the handler
// itself can be resolved safely, exactly once.
//
// Key features:
//   - Chain composition: Last interceptor in the list is the outermost
//     wrapper; an empty list is the transport itself
//   - Lazy, memoized construction: Source resolved on first use, cached in a
//     lock-free cell, resolution failures retried on the next dispatch
//   - Built-in suite: logging, metrics, tracing, auth, XSRF, request IDs,
//     header defaults, rate limiting, retry, circuit breaking, timeouts,
//     caching and short-circuiting
//
// Example usage:
//
//	chain := interceptors.Chain(transport,
//	    interceptors.NewRetryInterceptor(reliability.NewExponentialBackoff(
//	        100*time.Millisecond, 5*time.Second, 2.0, 3)),
//	    interceptors.NewLoggingInterceptor(logger),
//	)
//	stream, err := chain.Handle(ctx, req)
package interceptors
