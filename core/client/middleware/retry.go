package middleware

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/leofalp/aistream/core/client"
	"github.com/leofalp/aistream/core/transport"
	"github.com/leofalp/aistream/providers/ai"
)

// RetryConfig holds the tuning parameters for the retry middleware. Zero values
// are replaced with the defaults documented below when NewRetryMiddleware is called.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first failure.
	// A value of 3 means the adapter is called at most 4 times.
	// Default: 3.
	MaxRetries int

	// InitialBackoff is the wait duration before the first retry attempt.
	// Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff. A server-provided Retry-After is
	// not capped.
	// Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth multiplier:
	// backoff = min(InitialBackoff * BackoffFactor^attempt, MaxBackoff).
	// Default: 2.0.
	BackoffFactor float64

	// JitterFraction adds random noise in [0, JitterFraction * backoff].
	// Default: 0.1.
	JitterFraction float64

	// RetryableFunc returns true when an error should trigger a retry.
	// Default: [DefaultRetryable].
	RetryableFunc func(error) bool
}

// DefaultRetryable retries rate limits, 5xx responses, and transport timeouts
// or connection failures.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ai.IsRetryable(err) ||
		transport.IsKind(err, transport.KindTimeout) ||
		transport.IsKind(err, transport.KindNoConnection)
}

func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}
	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}
	if config.RetryableFunc == nil {
		config.RetryableFunc = DefaultRetryable
	}
}

// computeBackoff returns the wait before retry number attempt+1 (0-indexed).
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}

	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter
	return time.Duration(base + jitter)
}

// waitBefore picks the delay for the next attempt: the server's Retry-After
// when present, the computed backoff otherwise.
func waitBefore(config RetryConfig, attempt int, lastErr error) time.Duration {
	if retryAfter := ai.RetryAfterOf(lastErr); retryAfter > 0 {
		return retryAfter
	}
	return computeBackoff(config, attempt)
}

// NewRetryMiddleware constructs a MiddlewareConfig that retries failed
// Complete calls and failed stream initiation. Errors raised after the first
// delta has been delivered are never retried, since the caller already saw
// part of the output.
//
// On exhaustion the returned error wraps both [ErrRetryExhausted] and the last
// adapter error.
func NewRetryMiddleware(config RetryConfig) client.MiddlewareConfig {
	applyRetryDefaults(&config)

	return client.MiddlewareConfig{
		Complete: func(next client.CompleteFunc) client.CompleteFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				return withRetry(ctx, config, func() (*ai.ChatResponse, error) {
					return next(ctx, request)
				})
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				return withRetry(ctx, config, func() (*ai.ChatStream, error) {
					return next(ctx, request)
				})
			}
		},
	}
}

func withRetry[T any](ctx context.Context, config RetryConfig, call func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(waitBefore(config, attempt-1, lastErr))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, fmt.Errorf("retry interrupted: %w (last error: %w)", ctx.Err(), lastErr)
			case <-timer.C:
			}
		}

		result, err := call()
		if err == nil {
			return result, nil
		}
		lastErr = err

		// A caller-side cancellation looks like a transport timeout; never retry it.
		if ctx.Err() != nil || !config.RetryableFunc(err) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr)
}
