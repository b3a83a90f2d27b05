package interceptors

import (
	"context"
	"strings"

	"github.com/marrek/httpwire/wire"
)

// RequestFilter decides whether an interceptor applies to a request
type RequestFilter interface {
	// Matches reports whether the request passes the filter
	Matches(req *wire.Request) bool
}

// RequestFilterFunc is a function adapter for RequestFilter
type RequestFilterFunc func(req *wire.Request) bool

// Matches implements RequestFilter
func (f RequestFilterFunc) Matches(req *wire.Request) bool {
	return f(req)
}

// MethodFilter matches requests using any of the given methods
func MethodFilter(methods ...string) RequestFilter {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[strings.ToUpper(m)] = true
	}
	return RequestFilterFunc(func(req *wire.Request) bool {
		return set[req.Method()]
	})
}

// HostFilter matches requests addressed to the given host
func HostFilter(host string) RequestFilter {
	return RequestFilterFunc(func(req *wire.Request) bool {
		return strings.EqualFold(req.URL().Host, host)
	})
}

// PathPrefixFilter matches requests whose URL path starts with prefix
func PathPrefixFilter(prefix string) RequestFilter {
	return RequestFilterFunc(func(req *wire.Request) bool {
		return strings.HasPrefix(req.URL().Path, prefix)
	})
}

// AllOf matches when every filter matches
func AllOf(filters ...RequestFilter) RequestFilter {
	return RequestFilterFunc(func(req *wire.Request) bool {
		for _, f := range filters {
			if !f.Matches(req) {
				return false
			}
		}
		return true
	})
}

// AnyOf matches when at least one filter matches
func AnyOf(filters ...RequestFilter) RequestFilter {
	return RequestFilterFunc(func(req *wire.Request) bool {
		for _, f := range filters {
			if f.Matches(req) {
				return true
			}
		}
		return false
	})
}

// Not inverts a filter
func Not(filter RequestFilter) RequestFilter {
	return RequestFilterFunc(func(req *wire.Request) bool {
		return !filter.Matches(req)
	})
}

// ConditionalInterceptor applies an inner interceptor only to matching
// requests; everything else bypasses it straight to the next handler
type ConditionalInterceptor struct {
	filter RequestFilter
	inner  Interceptor
}

// NewConditionalInterceptor wraps inner so it only sees requests matching filter
func NewConditionalInterceptor(filter RequestFilter, inner Interceptor) *ConditionalInterceptor {
	return &ConditionalInterceptor{filter: filter, inner: inner}
}

// Intercept implements Interceptor
func (i *ConditionalInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	if !i.filter.Matches(req) {
		return next.Handle(ctx, req)
	}
	return i.inner.Intercept(ctx, req, next)
}

// Name implements Interceptor
func (i *ConditionalInterceptor) Name() string {
	return "ConditionalInterceptor(" + i.inner.Name() + ")"
}
