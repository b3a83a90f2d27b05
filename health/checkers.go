package health

import (
	"context"
	"fmt"
	"time"

	"github.com/marrek/httpwire"
	"github.com/marrek/httpwire/wire"
)

// EndpointChecker probes a URL through an httpwire client. The probe goes
// through the client's full interceptor chain, so it observes the same
// auth, retries and limits as production traffic.
type EndpointChecker struct {
	name             string
	client           *httpwire.Client
	url              string
	expectedStatus   int
	degradedLatency  time.Duration
	unhealthyLatency time.Duration
}

// EndpointOption configures an EndpointChecker
type EndpointOption func(*EndpointChecker)

// WithExpectedStatus overrides the status treated as healthy (default 200)
func WithExpectedStatus(status int) EndpointOption {
	return func(c *EndpointChecker) {
		c.expectedStatus = status
	}
}

// WithLatencyThresholds sets the latencies above which the endpoint is
// reported degraded and unhealthy respectively
func WithLatencyThresholds(degraded, unhealthy time.Duration) EndpointOption {
	return func(c *EndpointChecker) {
		c.degradedLatency = degraded
		c.unhealthyLatency = unhealthy
	}
}

// NewEndpointChecker creates a checker probing url with client
func NewEndpointChecker(name string, client *httpwire.Client, url string, opts ...EndpointOption) *EndpointChecker {
	c := &EndpointChecker{
		name:             name,
		client:           client,
		url:              url,
		expectedStatus:   200,
		degradedLatency:  500 * time.Millisecond,
		unhealthyLatency: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Checker
func (c *EndpointChecker) Name() string {
	return c.name
}

// Check implements Checker
func (c *EndpointChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.name,
		Timestamp: start,
		Details: map[string]interface{}{
			"url": c.url,
		},
	}

	resp, err := c.client.Get(ctx, c.url, wire.WithHeader("Accept", "*/*"))
	result.Duration = time.Since(start)
	result.Details["latencyMs"] = result.Duration.Milliseconds()

	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = "Probe failed"
		result.Error = err.Error()
		return result
	}

	result.Details["statusCode"] = resp.Status
	if resp.Status != c.expectedStatus {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("Expected status %d, got %d", c.expectedStatus, resp.Status)
		return result
	}

	switch {
	case result.Duration >= c.unhealthyLatency:
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("Latency %v above unhealthy threshold %v", result.Duration, c.unhealthyLatency)
	case result.Duration >= c.degradedLatency:
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("Latency %v above degraded threshold %v", result.Duration, c.degradedLatency)
	default:
		result.Status = StatusHealthy
		result.Message = "Endpoint responding"
	}
	return result
}
