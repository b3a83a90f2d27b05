// Package config provides declarative YAML configuration for assembling an
// httpwire client with its interceptor suite.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/marrek/httpwire"
	"github.com/marrek/httpwire/interceptors"
	"github.com/marrek/httpwire/internal/reliability"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"
)

// Config is the YAML schema for a client. Unknown keys are rejected.
type Config struct {
	BaseURL   string            `yaml:"base_url"`
	Timeout   Duration          `yaml:"timeout"`
	UserAgent string            `yaml:"user_agent"`
	Headers   map[string]string `yaml:"headers"`

	Retry     RetryConfig     `yaml:"retry"`
	Breaker   BreakerConfig   `yaml:"circuit_breaker"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// RetryConfig configures the retry interceptor
type RetryConfig struct {
	Enabled      bool     `yaml:"enabled"`
	MaxRetries   int      `yaml:"max_retries"`
	InitialDelay Duration `yaml:"initial_delay"`
	MaxDelay     Duration `yaml:"max_delay"`
	Multiplier   float64  `yaml:"multiplier"`
	Statuses     []int    `yaml:"statuses"`
}

// BreakerConfig configures the circuit breaker interceptor
type BreakerConfig struct {
	Enabled          bool     `yaml:"enabled"`
	FailureThreshold int      `yaml:"failure_threshold"`
	SuccessThreshold int      `yaml:"success_threshold"`
	OpenTimeout      Duration `yaml:"open_timeout"`
}

// RateLimitConfig configures the per-host rate limiter
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// CacheConfig configures the GET response cache
type CacheConfig struct {
	Enabled bool     `yaml:"enabled"`
	Size    int      `yaml:"size"`
	TTL     Duration `yaml:"ttl"`
}

// AuthConfig configures bearer authentication. Token and Secret are passed
// through os.ExpandEnv, so secrets can live in the environment
// (token: ${API_TOKEN}) instead of the file.
type AuthConfig struct {
	Enabled bool     `yaml:"enabled"`
	Kind    string   `yaml:"kind"` // static or jwt
	Token   string   `yaml:"token"`
	Secret  string   `yaml:"secret"`
	Issuer  string   `yaml:"issuer"`
	TTL     Duration `yaml:"ttl"`
}

// LoggingConfig configures the logging interceptor
type LoggingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig configures the Prometheus metrics interceptor
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig configures the OpenTelemetry tracing interceptor
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Parse decodes and validates a YAML document
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a YAML config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

func (c *Config) applyDefaults() {
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.InitialDelay == 0 {
		c.Retry.InitialDelay = Duration(100 * time.Millisecond)
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = Duration(5 * time.Second)
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = 2.0
	}
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.SuccessThreshold == 0 {
		c.Breaker.SuccessThreshold = 3
	}
	if c.Breaker.OpenTimeout == 0 {
		c.Breaker.OpenTimeout = Duration(30 * time.Second)
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 1
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 128
	}
	if c.Auth.Kind == "" {
		c.Auth.Kind = "static"
	}
	if c.Auth.TTL == 0 {
		c.Auth.TTL = Duration(15 * time.Minute)
	}
}

func (c *Config) validate() error {
	if c.Retry.Enabled && c.Retry.MaxRetries < 0 {
		return fmt.Errorf("config: retry.max_retries must not be negative")
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("config: rate_limit.rps must be positive")
	}
	if c.Cache.Enabled && c.Cache.Size <= 0 {
		return fmt.Errorf("config: cache.size must be positive")
	}
	if c.Auth.Enabled {
		switch c.Auth.Kind {
		case "static":
			if os.ExpandEnv(c.Auth.Token) == "" {
				return fmt.Errorf("config: auth.token is required for static auth")
			}
		case "jwt":
			if os.ExpandEnv(c.Auth.Secret) == "" {
				return fmt.Errorf("config: auth.secret is required for jwt auth")
			}
		default:
			return fmt.Errorf("config: unknown auth.kind %q", c.Auth.Kind)
		}
	}
	return nil
}

// Dependencies are runtime collaborators the config cannot construct itself
type Dependencies struct {
	Logger         *slog.Logger
	Registerer     prometheus.Registerer
	TracerProvider trace.TracerProvider
}

// ClientOptions translates the config into client options. The interceptor
// list is assembled innermost-first, so the request path runs logging,
// metrics, tracing, request ID, headers, auth, cache, retry, circuit
// breaker, rate limit, timeout, then the transport.
func (c *Config) ClientOptions(deps Dependencies) ([]httpwire.ClientOption, error) {
	opts := []httpwire.ClientOption{}

	if c.BaseURL != "" {
		opts = append(opts, httpwire.WithBaseURL(c.BaseURL))
	}
	if c.Timeout > 0 {
		opts = append(opts, httpwire.WithTimeout(time.Duration(c.Timeout)))
	}
	if c.UserAgent != "" {
		opts = append(opts, httpwire.WithUserAgent(c.UserAgent))
	}
	for name, value := range c.Headers {
		opts = append(opts, httpwire.WithDefaultHeader(name, value))
	}
	if deps.Logger != nil {
		opts = append(opts, httpwire.WithLogger(deps.Logger))
	}

	ics, err := c.buildInterceptors(deps)
	if err != nil {
		return nil, err
	}
	if len(ics) > 0 {
		opts = append(opts, httpwire.WithInterceptors(ics...))
	}
	return opts, nil
}

// buildInterceptors assembles the enabled suite in fixed order, index 0
// innermost (closest to the transport)
func (c *Config) buildInterceptors(deps Dependencies) ([]interceptors.Interceptor, error) {
	var ics []interceptors.Interceptor

	if c.RateLimit.Enabled {
		ics = append(ics, interceptors.NewRateLimitInterceptor(c.RateLimit.RPS, c.RateLimit.Burst))
	}
	if c.Breaker.Enabled {
		breaker := reliability.NewCircuitBreaker(
			reliability.WithFailureThreshold(c.Breaker.FailureThreshold),
			reliability.WithSuccessThreshold(c.Breaker.SuccessThreshold),
			reliability.WithOpenTimeout(time.Duration(c.Breaker.OpenTimeout)),
		)
		ics = append(ics, interceptors.NewCircuitBreakerInterceptor(breaker))
	}
	if c.Retry.Enabled {
		policy := reliability.NewExponentialBackoff(
			time.Duration(c.Retry.InitialDelay), time.Duration(c.Retry.MaxDelay), c.Retry.Multiplier, c.Retry.MaxRetries)
		retry := interceptors.NewRetryInterceptor(policy)
		if deps.Logger != nil {
			retry = retry.WithLogger(deps.Logger)
		}
		if len(c.Retry.Statuses) > 0 {
			retry = retry.WithRetryableStatuses(c.Retry.Statuses...)
		}
		ics = append(ics, retry)
	}
	if c.Cache.Enabled {
		cache, err := interceptors.NewCacheInterceptor(c.Cache.Size, interceptors.WithTTL(time.Duration(c.Cache.TTL)))
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		ics = append(ics, cache)
	}
	if c.Auth.Enabled {
		provider, err := c.tokenProvider()
		if err != nil {
			return nil, err
		}
		ics = append(ics, interceptors.NewAuthInterceptor(provider))
	}
	ics = append(ics, interceptors.NewRequestIDInterceptor())
	if c.Tracing.Enabled {
		ics = append(ics, interceptors.NewTracingInterceptor(deps.TracerProvider))
	}
	if c.Metrics.Enabled {
		ics = append(ics, interceptors.NewMetricsInterceptor(deps.Registerer))
	}
	if c.Logging.Enabled {
		ics = append(ics, interceptors.NewLoggingInterceptor(deps.Logger))
	}
	return ics, nil
}

func (c *Config) tokenProvider() (interceptors.TokenProvider, error) {
	switch c.Auth.Kind {
	case "static":
		return interceptors.StaticToken(os.ExpandEnv(c.Auth.Token)), nil
	case "jwt":
		return interceptors.NewJWTProvider(
			[]byte(os.ExpandEnv(c.Auth.Secret)),
			interceptors.WithIssuer(c.Auth.Issuer),
			interceptors.WithTokenTTL(time.Duration(c.Auth.TTL)),
		)
	default:
		return nil, fmt.Errorf("config: unknown auth.kind %q", c.Auth.Kind)
	}
}
