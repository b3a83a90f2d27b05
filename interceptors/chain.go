package interceptors

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/marrek/httpwire/wire"
)

// Chain composes interceptors around a terminal transport into a single
// handler. Composition folds forward over the list, wrapping as it goes, so
// the interceptor at the highest index becomes the outermost wrapper: for a
// list [A, B], handling runs B, then A, then the transport, and response
// events flow back transport, A, B. An empty list returns the transport
// itself with no wrapping overhead.
func Chain(transport Handler, ics ...Interceptor) Handler {
	handler := transport
	for _, ic := range ics {
		ic := ic
		inner := handler
		handler = HandlerFunc(func(ctx context.Context, req *wire.Request) (<-chan wire.Event, error) {
			return ic.Intercept(ctx, req, inner)
		})
	}
	return handler
}

// Source yields the ordered interceptor list for a lazily composed handler.
// A source may itself depend indirectly on the handler under construction,
// so it is resolved on first dispatch rather than at construction time, and
// at most once per handler instance on success.
type Source interface {
	Resolve() ([]Interceptor, error)
}

// SourceFunc is a function adapter for Source
type SourceFunc func() ([]Interceptor, error)

// Resolve implements Source
func (f SourceFunc) Resolve() ([]Interceptor, error) {
	return f()
}

// Static returns a Source that always yields the given interceptors
func Static(ics ...Interceptor) Source {
	return SourceFunc(func() ([]Interceptor, error) {
		return ics, nil
	})
}

// LazyHandler is a handler whose interceptor chain is resolved and composed
// on first dispatch, then cached for every later dispatch on the same
// instance. A nil source bypasses composition entirely and dispatches
// straight to the transport.
type LazyHandler struct {
	source    Source
	transport Handler
	chain     atomic.Pointer[builtChain]
}

// builtChain is the once-built record published to the cache cell. Racing
// first dispatches may each build one; the fold is pure, so every build is
// equivalent and the last store simply wins.
type builtChain struct {
	handler Handler
}

// NewLazyHandler creates a handler around transport whose chain is built
// from source on first use
func NewLazyHandler(source Source, transport Handler) *LazyHandler {
	return &LazyHandler{
		source:    source,
		transport: transport,
	}
}

// Handle implements Handler. The first call resolves the source and builds
// the chain; a resolution failure is returned synchronously, nothing is
// cached, and the next call retries. Construction is all-or-nothing: no
// interceptor is dropped on error.
func (l *LazyHandler) Handle(ctx context.Context, req *wire.Request) (<-chan wire.Event, error) {
	if l.source == nil {
		return l.transport.Handle(ctx, req)
	}
	if c := l.chain.Load(); c != nil {
		return c.handler.Handle(ctx, req)
	}

	ics, err := l.source.Resolve()
	if err != nil {
		return nil, fmt.Errorf("interceptors: resolve chain: %w", err)
	}
	built := &builtChain{handler: Chain(l.transport, ics...)}
	l.chain.Store(built)
	return built.handler.Handle(ctx, req)
}
