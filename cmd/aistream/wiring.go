package main

import (
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/leofalp/aistream/core/client"
	"github.com/leofalp/aistream/core/client/middleware"
	"github.com/leofalp/aistream/core/transport"
	"github.com/leofalp/aistream/internal/config"
	"github.com/leofalp/aistream/providers/ai"
	"github.com/leofalp/aistream/providers/ai/anthropic"
	"github.com/leofalp/aistream/providers/ai/gemini"
	"github.com/leofalp/aistream/providers/ai/openai"
	"github.com/leofalp/aistream/providers/observability"
	otelobs "github.com/leofalp/aistream/providers/observability/otel"
	slogobs "github.com/leofalp/aistream/providers/observability/slog"
)

// newClient assembles the adapter, transport, middleware and observer
// described by cfg.
func newClient(cfg *config.Config, logger *slog.Logger) (*client.Client, error) {
	adapter, err := newAdapter(cfg.Provider)
	if err != nil {
		return nil, err
	}

	httpTransport := transport.New(
		transport.WithHTTPClient(transport.NewHTTPClient(transport.PoolConfig{})),
		transport.WithMiddleware(
			transport.RequestID(""),
			transport.Logging(logger),
		),
	)

	opts := []client.Option{
		client.WithTransport(httpTransport),
		client.WithDefaultModel(cfg.Provider.Model),
		client.WithMiddleware(newMiddleware(cfg, logger)...),
	}
	if observer := newObserver(cfg.Observer, logger); observer != nil {
		opts = append(opts, client.WithObserver(observer))
	}

	return client.New(adapter, opts...)
}

func newAdapter(cfg config.ProviderConfig) (ai.Adapter, error) {
	switch cfg.Name {
	case "openai":
		adapter := openai.New()
		if cfg.APIKey != "" {
			adapter.WithAPIKey(cfg.APIKey)
		}
		if cfg.BaseURL != "" {
			adapter.WithBaseURL(cfg.BaseURL)
		}
		return adapter, nil
	case "anthropic":
		adapter := anthropic.New()
		if cfg.APIKey != "" {
			adapter.WithAPIKey(cfg.APIKey)
		}
		if cfg.BaseURL != "" {
			adapter.WithBaseURL(cfg.BaseURL)
		}
		return adapter, nil
	case "gemini":
		adapter := gemini.New()
		if cfg.APIKey != "" {
			adapter.WithAPIKey(cfg.APIKey)
		}
		if cfg.BaseURL != "" {
			adapter.WithBaseURL(cfg.BaseURL)
		}
		return adapter, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

// newMiddleware returns the enabled middleware, outermost first: cache hits
// skip everything else, the timeout bounds all retries, and the breaker sees
// the outcome of a whole retry sequence.
func newMiddleware(cfg *config.Config, logger *slog.Logger) []client.MiddlewareConfig {
	var mws []client.MiddlewareConfig

	if cfg.Cache.Enabled {
		mws = append(mws, middleware.NewCacheMiddleware(middleware.CacheConfig{
			TTL:        cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
		}))
	}
	if cfg.Timeout > 0 {
		mws = append(mws, middleware.NewTimeoutMiddleware(cfg.Timeout))
	}
	if cfg.CircuitBreaker.Enabled {
		mws = append(mws, middleware.NewCircuitBreakerMiddleware(middleware.CircuitBreakerConfig{
			Name:        cfg.Provider.Name,
			MaxFailures: cfg.CircuitBreaker.MaxFailures,
			Timeout:     cfg.CircuitBreaker.Timeout,
			Interval:    cfg.CircuitBreaker.Interval,
		}, logger))
	}
	if cfg.Retry.MaxRetries > 0 {
		mws = append(mws, middleware.NewRetryMiddleware(middleware.RetryConfig{
			MaxRetries:     cfg.Retry.MaxRetries,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
		}))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		mws = append(mws, middleware.NewRateLimitMiddleware(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst))
	}
	if cfg.Logger.Middleware != "off" && cfg.Logger.Middleware != "" {
		mws = append(mws, middleware.NewLoggingMiddleware(logger, middleware.ParseLogLevel(cfg.Logger.Middleware)))
	}

	return mws
}

// newObserver returns nil for "none".
func newObserver(kind string, logger *slog.Logger) observability.Provider {
	switch kind {
	case "slog":
		return slogobs.New(logger)
	case "otel":
		return otelobs.New(otelobs.WithLogger(logger))
	default:
		return nil
	}
}
