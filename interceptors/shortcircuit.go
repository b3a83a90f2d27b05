package interceptors

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/marrek/httpwire/wire"
)

// ShortCircuitInterceptor answers requests with a fixed scripted stream
// without ever invoking the rest of the chain. It is the building block for
// stubbing a transport in tests and for fixed responses in production
// wiring (maintenance pages, kill switches).
type ShortCircuitInterceptor struct {
	script func(req *wire.Request) []wire.Event
}

// NewShortCircuitInterceptor creates an interceptor replaying the given
// events for every request
func NewShortCircuitInterceptor(events ...wire.Event) *ShortCircuitInterceptor {
	return &ShortCircuitInterceptor{
		script: func(*wire.Request) []wire.Event { return events },
	}
}

// NewShortCircuitFunc creates an interceptor whose script depends on the request
func NewShortCircuitFunc(script func(req *wire.Request) []wire.Event) *ShortCircuitInterceptor {
	return &ShortCircuitInterceptor{script: script}
}

// ShortCircuitResponse is a convenience constructor for a stream carrying a
// single terminal response
func ShortCircuitResponse(status int, body []byte) *ShortCircuitInterceptor {
	return NewShortCircuitInterceptor(&wire.Response{
		Status: status,
		Header: wire.NewHeader(),
		Body:   body,
	})
}

// Intercept implements Interceptor. next is never invoked.
func (i *ShortCircuitInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	return wire.Emit(i.script(req)...), nil
}

// Name implements Interceptor
func (i *ShortCircuitInterceptor) Name() string {
	return "ShortCircuitInterceptor"
}

// CacheInterceptor serves repeated GET requests from an in-memory LRU cache.
// A fresh hit short-circuits the chain with a replayed response stream; a
// miss passes through and records the terminal response when it is a
// success. Only GET requests are considered.
type CacheInterceptor struct {
	cache *lru.Cache[string, *cacheEntry]
	ttl   time.Duration
	vary  []string
}

type cacheEntry struct {
	resp    *wire.Response
	expires time.Time
}

// CacheOption configures the cache interceptor
type CacheOption func(*CacheInterceptor)

// WithTTL bounds how long a cached response stays fresh. Zero means no
// time-based expiry; entries then live until evicted by the LRU.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CacheInterceptor) {
		c.ttl = ttl
	}
}

// WithVaryHeaders adds request headers that participate in the cache key
func WithVaryHeaders(names ...string) CacheOption {
	return func(c *CacheInterceptor) {
		c.vary = append(c.vary, names...)
	}
}

// NewCacheInterceptor creates a cache holding up to size responses
func NewCacheInterceptor(size int, opts ...CacheOption) (*CacheInterceptor, error) {
	cache, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("interceptors: create cache: %w", err)
	}
	c := &CacheInterceptor{cache: cache}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (i *CacheInterceptor) key(req *wire.Request) string {
	var b strings.Builder
	b.WriteString(req.Method())
	b.WriteByte(' ')
	b.WriteString(req.URLString())
	for _, name := range i.vary {
		b.WriteByte('\n')
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(req.Header().Get(name))
	}
	return b.String()
}

// Intercept implements Interceptor
func (i *CacheInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	if req.Method() != "GET" {
		return next.Handle(ctx, req)
	}

	key := i.key(req)
	if entry, ok := i.cache.Get(key); ok {
		if i.ttl == 0 || time.Now().Before(entry.expires) {
			return wire.Emit(entry.resp.Clone()), nil
		}
		i.cache.Remove(key)
	}

	stream, err := next.Handle(ctx, req)
	if err != nil {
		return nil, err
	}

	return wire.Pipe(ctx, stream, func(ev wire.Event) wire.Event {
		if resp, ok := ev.(*wire.Response); ok && resp.Success() {
			i.cache.Add(key, &cacheEntry{
				resp:    resp.Clone(),
				expires: time.Now().Add(i.ttl),
			})
		}
		return ev
	}), nil
}

// Name implements Interceptor
func (i *CacheInterceptor) Name() string {
	return "CacheInterceptor"
}

// Purge drops every cached response
func (i *CacheInterceptor) Purge() {
	i.cache.Purge()
}

// Len returns the number of cached responses
func (i *CacheInterceptor) Len() int {
	return i.cache.Len()
}
