// Package config loads catalog client settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jonwraymond/querysync/cache"
	"github.com/jonwraymond/querysync/observe"
	"github.com/jonwraymond/querysync/resilience"
	"github.com/jonwraymond/querysync/secret"
)

// Prefix is prepended to every variable name.
const Prefix = "QUERYSYNC_"

var ErrInvalid = errors.New("config: invalid")

// Config is every catalog client setting, read from QUERYSYNC_* variables.
type Config struct {
	// BaseURL is the root of the catalog API; requests go to BaseURL/api/...
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:5000"`
	// APIToken is the bearer token sent with every request. May be a
	// secretref.
	APIToken string `env:"API_TOKEN"`
	// TokenKey verifies APIToken to learn the caller's role. May be a
	// secretref. Without it catalogctl skips its screen checks and leaves
	// authorization to the API.
	TokenKey    string `env:"TOKEN_KEY"`
	TokenIssuer string `env:"TOKEN_ISSUER"`
	// HealthPath, when set, is requested with GET by the health check.
	HealthPath string `env:"HEALTH_PATH"`
	// SecretsDir resolves relative secretref:file: paths.
	SecretsDir string `env:"SECRETS_DIR"`

	// StaleAfter ages out cached views on access. Zero keeps them until
	// invalidated.
	StaleAfter time.Duration `env:"STALE_AFTER" envDefault:"0s"`
	PageSize   int           `env:"PAGE_SIZE" envDefault:"10"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	RetryAttempts   int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelay      time.Duration `env:"RETRY_DELAY" envDefault:"200ms"`
	RateLimit       float64       `env:"RATE_LIMIT" envDefault:"20"`
	RateBurst       int           `env:"RATE_BURST" envDefault:"5"`
	BreakerFailures int           `env:"BREAKER_FAILURES" envDefault:"5"`
	BreakerCoolDown time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`

	ServiceName     string  `env:"SERVICE_NAME" envDefault:"catalogctl"`
	LogLevel        string  `env:"LOG_LEVEL" envDefault:"info"`
	TracingExporter string  `env:"TRACING_EXPORTER" envDefault:"none"`
	SamplePct       float64 `env:"TRACING_SAMPLE" envDefault:"1"`
	MetricsExporter string  `env:"METRICS_EXPORTER" envDefault:"none"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field rules.
func (c Config) Validate() error {
	invalid := func(name, format string, args ...any) error {
		return fmt.Errorf("%w: %s%s: %s", ErrInvalid, Prefix, name, fmt.Sprintf(format, args...))
	}
	u, err := url.Parse(c.BaseURL)
	switch {
	case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		return invalid("BASE_URL", "%q is not an http(s) URL", c.BaseURL)
	case c.PageSize < 1:
		return invalid("PAGE_SIZE", "must be at least 1")
	case c.StaleAfter < 0:
		return invalid("STALE_AFTER", "must not be negative")
	case c.RetryAttempts < 1:
		return invalid("RETRY_ATTEMPTS", "must be at least 1")
	case c.RateLimit <= 0 || c.RateBurst < 1:
		return invalid("RATE_LIMIT", "rate and burst must be positive")
	case c.BreakerFailures < 1:
		return invalid("BREAKER_FAILURES", "must be at least 1")
	}
	if err := c.Observe().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ResolveSecrets replaces secret references in APIToken and TokenKey.
func (c Config) ResolveSecrets(ctx context.Context, r *secret.Resolver) (Config, error) {
	if r == nil {
		r = secret.NewResolver(secret.EnvProvider{}, secret.FileProvider{Dir: c.SecretsDir})
	}
	for name, field := range map[string]*string{"API_TOKEN": &c.APIToken, "TOKEN_KEY": &c.TokenKey} {
		if !secret.IsRef(*field) {
			continue
		}
		v, err := r.Resolve(ctx, *field)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s%s: %w", Prefix, name, err)
		}
		*field = v
	}
	return c, nil
}

// Observe maps the telemetry settings.
func (c Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   c.TracingExporter != "none" && c.TracingExporter != "",
			Exporter:  c.TracingExporter,
			SamplePct: c.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.MetricsExporter != "none" && c.MetricsExporter != "",
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{Enabled: true, Level: c.LogLevel},
	}
}

// Policy is the cache staleness policy.
func (c Config) Policy() cache.Policy {
	return cache.Policy{StaleAfter: c.StaleAfter}
}

// Executor builds the guard chain for transport calls.
func (c Config) Executor(onStateChange func(from, to resilience.State)) *resilience.Executor {
	return resilience.NewExecutor(
		resilience.WithLimiter(resilience.NewLimiter(resilience.LimiterConfig{
			Rate:  c.RateLimit,
			Burst: c.RateBurst,
			Wait:  true,
		})),
		resilience.WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{
			MaxFailures:   c.BreakerFailures,
			CoolDown:      c.BreakerCoolDown,
			OnStateChange: onStateChange,
		})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  c.RetryAttempts,
			InitialDelay: c.RetryDelay,
			Jitter:       true,
		})),
		resilience.WithTimeout(c.RequestTimeout),
	)
}
