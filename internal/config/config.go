// Package config loads server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hebrew-tools/nakdan"
	"github.com/hebrew-tools/nakdan/internal/client/dicta"
)

// Metrics backends.
const (
	MetricsPrometheus = "prometheus"
	MetricsLogger     = "logger"
	MetricsNone       = "none"
)

// Config holds all server configuration.
type Config struct {
	Listen        string        `yaml:"listen"`
	Log           LogConfig     `yaml:"log"`
	Cache         CacheConfig   `yaml:"cache"`
	Client        ClientConfig  `yaml:"client"`
	Metrics       MetricsConfig `yaml:"metrics"`
	SingleFlight  bool          `yaml:"single_flight"`
	MaxTextLength int           `yaml:"max_text_length"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Development bool   `yaml:"development"`
	Level       string `yaml:"level"`
}

// CacheConfig holds the initial cache settings.
type CacheConfig struct {
	EnableTimeout       bool          `yaml:"enable_timeout"`
	Duration            time.Duration `yaml:"duration"`
	MaxSize             int           `yaml:"max_size"`
	MaintenanceInterval time.Duration `yaml:"maintenance_interval"`
}

// ClientConfig configures the Dicta client.
type ClientConfig struct {
	URL            string        `yaml:"url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	Backoff        time.Duration `yaml:"backoff"`
	RateLimit      float64       `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`
}

// MetricsConfig selects the stats backend.
type MetricsConfig struct {
	Backend string `yaml:"backend"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Log: LogConfig{
			Level: "info",
		},
		Cache: CacheConfig{
			EnableTimeout:       false,
			Duration:            nakdan.DefaultCacheDuration,
			MaxSize:             nakdan.DefaultMaxCacheSize,
			MaintenanceInterval: 5 * time.Minute,
		},
		Client: ClientConfig{
			URL:            dicta.DefaultURL,
			RequestTimeout: nakdan.DefaultRequestTimeout,
			AttemptTimeout: dicta.DefaultRequestTimeout,
			MaxRetries:     dicta.DefaultMaxRetries,
			Backoff:        dicta.DefaultBackoff,
		},
		Metrics: MetricsConfig{
			Backend: MetricsPrometheus,
		},
		MaxTextLength: nakdan.DefaultMaxTextLength,
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.Cache.Duration < nakdan.MinCacheDuration || c.Cache.Duration > nakdan.MaxCacheDuration {
		errs = append(errs, fmt.Errorf("cache.duration %s is outside [%s, %s]",
			c.Cache.Duration, nakdan.MinCacheDuration, nakdan.MaxCacheDuration))
	}
	if c.Cache.MaxSize < nakdan.MinCacheSize || c.Cache.MaxSize > nakdan.MaxCacheSize {
		errs = append(errs, fmt.Errorf("cache.max_size %d is outside [%d, %d]",
			c.Cache.MaxSize, nakdan.MinCacheSize, nakdan.MaxCacheSize))
	}
	if c.Cache.MaintenanceInterval < 0 {
		errs = append(errs, errors.New("cache.maintenance_interval is negative"))
	}
	if c.Client.URL == "" {
		errs = append(errs, errors.New("client.url is empty"))
	}
	if c.Client.MaxRetries < 0 {
		errs = append(errs, errors.New("client.max_retries is negative"))
	}
	if c.Client.RateLimit < 0 || c.Client.RateBurst < 0 {
		errs = append(errs, errors.New("client rate limit is negative"))
	}
	switch c.Metrics.Backend {
	case MetricsPrometheus, MetricsLogger, MetricsNone:
	default:
		errs = append(errs, fmt.Errorf("metrics.backend %q is not one of %s, %s, %s",
			c.Metrics.Backend, MetricsPrometheus, MetricsLogger, MetricsNone))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// CoordinatorOptions returns the coordinator settings as options.
func (c *Config) CoordinatorOptions() []nakdan.Option {
	return []nakdan.Option{
		nakdan.WithConfig(nakdan.Config{
			EnableCacheTimeout: c.Cache.EnableTimeout,
			CacheDuration:      c.Cache.Duration,
			MaxCacheSize:       c.Cache.MaxSize,
		}),
		nakdan.WithRequestTimeout(c.Client.RequestTimeout),
		nakdan.WithMaxTextLength(c.MaxTextLength),
		nakdan.WithSingleFlight(c.SingleFlight),
		nakdan.WithMaintenanceInterval(c.Cache.MaintenanceInterval),
	}
}

// ClientOptions returns the Dicta client settings as options.
func (c *Config) ClientOptions() []dicta.Option {
	opts := []dicta.Option{
		dicta.WithURL(c.Client.URL),
		dicta.WithMaxRetries(c.Client.MaxRetries),
		dicta.WithBackoff(c.Client.Backoff),
	}
	if c.Client.AttemptTimeout > 0 {
		opts = append(opts, dicta.WithAttemptTimeout(c.Client.AttemptTimeout))
	}
	if c.Client.RateLimit > 0 {
		opts = append(opts, dicta.WithRateLimit(c.Client.RateLimit, max(c.Client.RateBurst, 1)))
	}
	return opts
}
