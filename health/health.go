// Package health provides endpoint health checks built on the httpwire
// client: checkers probe URLs through the same interceptor chain production
// traffic uses, and a registry aggregates their results into one snapshot.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string                 `json:"name"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Duration  time.Duration          `json:"duration"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Error     string                 `json:"error,omitempty"`
}

// OverallHealth represents the aggregate of one registry run
type OverallHealth struct {
	RunID     string                 `json:"runId"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
	Checks    map[string]CheckResult `json:"checks"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Checker defines the interface for health checks
type Checker interface {
	Check(ctx context.Context) CheckResult
	Name() string
}

// CheckerFunc is a function adapter for Checker
type CheckerFunc struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewCheckerFunc creates a function-based checker
func NewCheckerFunc(name string, fn func(ctx context.Context) CheckResult) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Check implements Checker
func (c *CheckerFunc) Check(ctx context.Context) CheckResult {
	return c.fn(ctx)
}

// Name implements Checker
func (c *CheckerFunc) Name() string {
	return c.name
}

// Registry manages health checks
type Registry struct {
	checkers map[string]Checker
	metadata map[string]interface{}
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewRegistry creates a new health check registry
func NewRegistry() *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		metadata: make(map[string]interface{}),
		timeout:  10 * time.Second,
	}
}

// Register adds a health checker
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// Unregister removes a health checker
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkers, name)
}

// SetMetadata sets global metadata included in every snapshot
func (r *Registry) SetMetadata(key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[key] = value
}

// SetTimeout bounds each registry run
func (r *Registry) SetTimeout(timeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = timeout
}

// Check executes all registered checks concurrently and aggregates a
// snapshot. The worst individual status wins; a check that does not finish
// before the run deadline is reported unhealthy.
func (r *Registry) Check(ctx context.Context) OverallHealth {
	start := time.Now()

	r.mu.RLock()
	checkers := make(map[string]Checker, len(r.checkers))
	for k, v := range r.checkers {
		checkers[k] = v
	}
	metadata := make(map[string]interface{}, len(r.metadata))
	for k, v := range r.metadata {
		metadata[k] = v
	}
	timeout := r.timeout
	r.mu.RUnlock()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type namedResult struct {
		name   string
		result CheckResult
	}
	resultChan := make(chan namedResult, len(checkers))

	for name, checker := range checkers {
		go func(name string, checker Checker) {
			resultChan <- namedResult{name: name, result: checker.Check(runCtx)}
		}(name, checker)
	}

	checks := make(map[string]CheckResult)
	overallStatus := StatusHealthy

collectLoop:
	for i := 0; i < len(checkers); i++ {
		select {
		case res := <-resultChan:
			checks[res.name] = res.result
			switch res.result.Status {
			case StatusUnhealthy:
				overallStatus = StatusUnhealthy
			case StatusDegraded:
				if overallStatus == StatusHealthy {
					overallStatus = StatusDegraded
				}
			}
		case <-runCtx.Done():
			for name := range checkers {
				if _, exists := checks[name]; !exists {
					checks[name] = CheckResult{
						Name:      name,
						Status:    StatusUnhealthy,
						Message:   "Check timed out",
						Duration:  time.Since(start),
						Timestamp: time.Now(),
						Error:     runCtx.Err().Error(),
					}
				}
			}
			overallStatus = StatusUnhealthy
			break collectLoop
		}
	}

	return OverallHealth{
		RunID:     uuid.NewString(),
		Status:    overallStatus,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Checks:    checks,
		Metadata:  metadata,
	}
}

// Healthy reports whether the snapshot carries no degraded or unhealthy check
func (h OverallHealth) Healthy() bool {
	return h.Status == StatusHealthy
}
