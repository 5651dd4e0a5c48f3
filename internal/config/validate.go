package config

import (
	"fmt"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

var (
	validProviders = map[string]bool{"openai": true, "anthropic": true, "gemini": true}
	validObservers = map[string]bool{"none": true, "slog": true, "otel": true}
	validFormats   = map[string]bool{"text": true, "json": true}
	validLevels    = map[string]bool{"": true, "trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	validExporters = map[string]bool{"": true, "noop": true, "stdout": true}
	validVerbosity = map[string]bool{"off": true, "minimal": true, "standard": true, "verbose": true}
)

// Validate checks cfg for structural correctness. It returns a *ValidationError
// listing every problem found.
func Validate(cfg *Config) error {
	ve := &ValidationError{}

	if !validProviders[cfg.Provider.Name] {
		ve.Add("provider.name %q must be one of openai, anthropic, gemini", cfg.Provider.Name)
	}
	if cfg.Timeout < 0 {
		ve.Add("timeout must be >= 0")
	}

	if cfg.Retry.MaxRetries < 0 {
		ve.Add("retry.max_retries must be >= 0")
	}
	if cfg.Retry.InitialBackoff < 0 || cfg.Retry.MaxBackoff < 0 {
		ve.Add("retry backoffs must be >= 0")
	}

	if cfg.RateLimit.RequestsPerSecond < 0 {
		ve.Add("rate_limit.requests_per_second must be >= 0")
	}
	if cfg.RateLimit.Burst < 0 {
		ve.Add("rate_limit.burst must be >= 0")
	}

	if cfg.CircuitBreaker.Enabled && cfg.CircuitBreaker.Timeout < 0 {
		ve.Add("circuit_breaker.timeout must be >= 0")
	}

	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		ve.Add("cache.ttl must be > 0 when the cache is enabled")
	}
	if cfg.Cache.MaxEntries < 0 {
		ve.Add("cache.max_entries must be >= 0")
	}

	if !validLevels[strings.ToLower(cfg.Logger.Level)] {
		ve.Add("logger.level %q must be trace, debug, info, warn or error", cfg.Logger.Level)
	}
	if !validFormats[strings.ToLower(cfg.Logger.Format)] {
		ve.Add("logger.format %q must be text or json", cfg.Logger.Format)
	}
	if !validVerbosity[cfg.Logger.Middleware] {
		ve.Add("logger.middleware %q must be off, minimal, standard or verbose", cfg.Logger.Middleware)
	}
	if !validExporters[cfg.Tracer.Exporter] {
		ve.Add("tracer.exporter %q must be noop or stdout", cfg.Tracer.Exporter)
	}
	if !validObservers[cfg.Observer] {
		ve.Add("observer %q must be none, slog or otel", cfg.Observer)
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
