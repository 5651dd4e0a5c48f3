// Package config loads the aistream CLI configuration from a YAML file, an
// optional .env file and AISTREAM_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Provider       ProviderConfig       `yaml:"provider"`
	Timeout        time.Duration        `yaml:"timeout"`
	Retry          RetryConfig          `yaml:"retry"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Cache          CacheConfig          `yaml:"cache"`
	Logger         LoggerConfig         `yaml:"logger"`
	Tracer         TracerConfig         `yaml:"tracer"`
	Observer       string               `yaml:"observer"` // "none", "slog" or "otel"
}

// ProviderConfig selects the adapter. Empty APIKey and BaseURL leave the
// adapter's own environment variables in charge.
type ProviderConfig struct {
	Name    string `yaml:"name"` // "openai", "anthropic" or "gemini"
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// RetryConfig configures the retry middleware. MaxRetries 0 disables it.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// RateLimitConfig configures the client-side throttle. RequestsPerSecond 0
// disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CircuitBreakerConfig configures the circuit breaker middleware.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// CacheConfig configures the response cache for non-streamed calls.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// LoggerConfig configures the process logger.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
	Output string `yaml:"output"` // "stdout", "stderr" or a file path
	// Middleware is the request logging verbosity: "off", "minimal",
	// "standard" or "verbose".
	Middleware string `yaml:"middleware"`
}

// TracerConfig configures OpenTelemetry tracing.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "noop" or "stdout"
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Provider: ProviderConfig{Name: "openai"},
		Timeout:  2 * time.Minute,
		Retry: RetryConfig{
			MaxRetries:     2,
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
			Interval:    time.Minute,
		},
		Cache: CacheConfig{
			TTL:        5 * time.Minute,
			MaxEntries: 256,
		},
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			Middleware: "off",
		},
		Tracer: TracerConfig{
			Exporter: "noop",
		},
		Observer: "none",
	}
}

// Load reads the dotenv files (missing ones are skipped), then the YAML file
// at path on top of [Defaults], then applies environment overrides and
// validates the result. A missing YAML file is not an error. An empty path
// skips the file.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv exports the files' variables without overriding ones already set.
func loadDotEnv(files []string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnvOverrides maps AISTREAM_* env vars to config fields. Malformed
// numbers and durations are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AISTREAM_PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("AISTREAM_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("AISTREAM_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("AISTREAM_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if d, ok := envDuration("AISTREAM_TIMEOUT"); ok {
		cfg.Timeout = d
	}
	if v := os.Getenv("AISTREAM_RETRY_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Retry.MaxRetries = n
		}
	}
	if v := os.Getenv("AISTREAM_RATE_LIMIT_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil && rps >= 0 {
			cfg.RateLimit.RequestsPerSecond = rps
		}
	}
	if v := os.Getenv("AISTREAM_CIRCUIT_BREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = v == "true"
	}
	if v := os.Getenv("AISTREAM_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = v == "true"
	}
	if d, ok := envDuration("AISTREAM_CACHE_TTL"); ok {
		cfg.Cache.TTL = d
	}
	if v := os.Getenv("AISTREAM_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("AISTREAM_LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("AISTREAM_LOG_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("AISTREAM_TRACER_ENABLED"); v != "" {
		cfg.Tracer.Enabled = v == "true"
	}
	if v := os.Getenv("AISTREAM_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("AISTREAM_OBSERVER"); v != "" {
		cfg.Observer = v
	}
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
