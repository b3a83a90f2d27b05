package interceptors

import (
	"context"
	"fmt"
	"sync"

	"github.com/marrek/httpwire/wire"
	"golang.org/x/time/rate"
)

// RateLimitInterceptor throttles dispatch with a token bucket per target
// host. Limiters are created lazily on first dispatch to a host; waiting
// for a token respects the request context.
type RateLimitInterceptor struct {
	rps   float64
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimitInterceptor creates a limiter allowing rps requests per
// second with the given burst per host. A burst below 1 is raised to 1.
func NewRateLimitInterceptor(rps float64, burst int) *RateLimitInterceptor {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitInterceptor{
		rps:      rps,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (i *RateLimitInterceptor) limiter(host string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	lim, ok := i.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(i.rps), i.burst)
		i.limiters[host] = lim
	}
	return lim
}

// Intercept implements Interceptor
func (i *RateLimitInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	host := req.URL().Host
	if err := i.limiter(host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("interceptors: rate limit wait for %s: %w", host, err)
	}
	return next.Handle(ctx, req)
}

// Name implements Interceptor
func (i *RateLimitInterceptor) Name() string {
	return "RateLimitInterceptor"
}
