package health

import (
	"context"
	"testing"
	"time"

	"github.com/marrek/httpwire"
	"github.com/marrek/httpwire/wiretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticChecker(name string, status Status) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) CheckResult {
		return CheckResult{Name: name, Status: status, Timestamp: time.Now()}
	})
}

func TestRegistry(t *testing.T) {
	t.Run("all healthy checks aggregate to healthy", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(staticChecker("a", StatusHealthy))
		registry.Register(staticChecker("b", StatusHealthy))

		health := registry.Check(context.Background())

		assert.True(t, health.Healthy())
		assert.Equal(t, StatusHealthy, health.Status)
		assert.Len(t, health.Checks, 2)
		assert.NotEmpty(t, health.RunID)
	})

	t.Run("the worst individual status wins", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(staticChecker("ok", StatusHealthy))
		registry.Register(staticChecker("slow", StatusDegraded))

		health := registry.Check(context.Background())
		assert.Equal(t, StatusDegraded, health.Status)
		assert.False(t, health.Healthy())

		registry.Register(staticChecker("down", StatusUnhealthy))
		health = registry.Check(context.Background())
		assert.Equal(t, StatusUnhealthy, health.Status)
	})

	t.Run("checks run concurrently", func(t *testing.T) {
		registry := NewRegistry()
		for _, name := range []string{"a", "b", "c"} {
			name := name
			registry.Register(NewCheckerFunc(name, func(ctx context.Context) CheckResult {
				time.Sleep(50 * time.Millisecond)
				return CheckResult{Name: name, Status: StatusHealthy}
			}))
		}

		start := time.Now()
		health := registry.Check(context.Background())
		elapsed := time.Since(start)

		assert.True(t, health.Healthy())
		assert.Less(t, elapsed, 120*time.Millisecond, "checks should not run sequentially")
	})

	t.Run("a stuck check is reported unhealthy at the deadline", func(t *testing.T) {
		registry := NewRegistry()
		registry.SetTimeout(30 * time.Millisecond)
		registry.Register(staticChecker("fast", StatusHealthy))
		registry.Register(NewCheckerFunc("stuck", func(ctx context.Context) CheckResult {
			<-ctx.Done()
			time.Sleep(time.Second)
			return CheckResult{Name: "stuck", Status: StatusHealthy}
		}))

		health := registry.Check(context.Background())

		assert.Equal(t, StatusUnhealthy, health.Status)
		stuck, ok := health.Checks["stuck"]
		require.True(t, ok)
		assert.Equal(t, StatusUnhealthy, stuck.Status)
		assert.Equal(t, "Check timed out", stuck.Message)
	})

	t.Run("unregister removes a checker", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(staticChecker("gone", StatusUnhealthy))
		registry.Unregister("gone")

		health := registry.Check(context.Background())
		assert.True(t, health.Healthy())
		assert.Empty(t, health.Checks)
	})

	t.Run("metadata rides along in the snapshot", func(t *testing.T) {
		registry := NewRegistry()
		registry.SetMetadata("service", "httpwire-test")

		health := registry.Check(context.Background())
		assert.Equal(t, "httpwire-test", health.Metadata["service"])
	})
}

func TestEndpointChecker(t *testing.T) {
	newClient := func(t *testing.T, mock *wiretest.MockTransport) *httpwire.Client {
		t.Helper()
		client, err := httpwire.NewClient(httpwire.WithTransport(mock))
		require.NoError(t, err)
		return client
	}

	t.Run("a responsive endpoint is healthy", func(t *testing.T) {
		mock := wiretest.NewMockTransport()
		mock.Expect("GET", "https://api.example.com/healthz").Respond(200, []byte("ok"))

		checker := NewEndpointChecker("api", newClient(t, mock), "https://api.example.com/healthz")
		result := checker.Check(context.Background())

		assert.Equal(t, StatusHealthy, result.Status)
		assert.Equal(t, 200, result.Details["statusCode"])
		assert.Equal(t, "https://api.example.com/healthz", result.Details["url"])
	})

	t.Run("an unexpected status is unhealthy", func(t *testing.T) {
		mock := wiretest.NewMockTransport()
		mock.Expect("GET", "https://api.example.com/healthz").Respond(503, nil)

		checker := NewEndpointChecker("api", newClient(t, mock), "https://api.example.com/healthz")
		result := checker.Check(context.Background())

		assert.Equal(t, StatusUnhealthy, result.Status)
		assert.Contains(t, result.Message, "503")
	})

	t.Run("the expected status can be overridden", func(t *testing.T) {
		mock := wiretest.NewMockTransport()
		mock.Expect("GET", "https://api.example.com/healthz").Respond(204, nil)

		checker := NewEndpointChecker("api", newClient(t, mock), "https://api.example.com/healthz",
			WithExpectedStatus(204))
		result := checker.Check(context.Background())

		assert.Equal(t, StatusHealthy, result.Status)
	})

	t.Run("a failed dispatch is unhealthy with the error attached", func(t *testing.T) {
		mock := wiretest.NewMockTransport()
		mock.Expect("GET", "https://api.example.com/healthz").Fail(assert.AnError)

		checker := NewEndpointChecker("api", newClient(t, mock), "https://api.example.com/healthz")
		result := checker.Check(context.Background())

		assert.Equal(t, StatusUnhealthy, result.Status)
		assert.NotEmpty(t, result.Error)
	})

	t.Run("slow responses degrade the endpoint", func(t *testing.T) {
		mock := wiretest.NewMockTransport()
		mock.Expect("GET", "https://api.example.com/healthz").Respond(200, nil)

		checker := NewEndpointChecker("api", newClient(t, mock), "https://api.example.com/healthz",
			WithLatencyThresholds(0, time.Hour))
		result := checker.Check(context.Background())

		assert.Equal(t, StatusDegraded, result.Status)
	})
}
