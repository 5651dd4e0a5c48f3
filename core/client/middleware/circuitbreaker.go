package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/leofalp/aistream/core/client"
	"github.com/leofalp/aistream/core/transport"
	"github.com/leofalp/aistream/providers/ai"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Name labels the breaker in state-change logs. Default: "llm".
	Name string
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before going half-open.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing failure
	// counts. Negative disables clearing.
	Interval time.Duration
}

// NewCircuitBreakerMiddleware guards Complete calls and stream initiation with
// a circuit breaker. Only server-side failures count: 5xx and rate-limit
// responses and transport failures. Client errors such as a bad API key or an
// invalid request, and the caller's own cancellation, leave it closed. Errors
// inside an already-started stream are not counted.
//
// While open, calls fail fast with an error wrapping [ErrCircuitOpen].
func NewCircuitBreakerMiddleware(config CircuitBreakerConfig, logger *slog.Logger) client.MiddlewareConfig {
	if logger == nil {
		logger = slog.Default()
	}
	name := config.Name
	if name == "" {
		name = "llm"
	}
	maxFailures := config.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := config.Interval
	switch {
	case interval == 0:
		interval = defaultCBInterval
	case interval < 0:
		interval = 0
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // one probe in half-open state
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return !isServerFailure(err)
		},
	}

	completeBreaker := gobreaker.NewCircuitBreaker[*ai.ChatResponse](settings)
	streamBreaker := gobreaker.NewCircuitBreaker[*ai.ChatStream](settings)

	return client.MiddlewareConfig{
		Complete: func(next client.CompleteFunc) client.CompleteFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				response, err := completeBreaker.Execute(func() (*ai.ChatResponse, error) {
					return next(ctx, request)
				})
				return response, wrapBreakerError(name, err)
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				stream, err := streamBreaker.Execute(func() (*ai.ChatStream, error) {
					return next(ctx, request)
				})
				return stream, wrapBreakerError(name, err)
			}
		},
	}
}

// isServerFailure reports whether err says the provider side is unhealthy.
func isServerFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || transport.IsKind(err, transport.KindCancelled) {
		return false
	}

	var apiErr *ai.APIError
	if errors.As(err, &apiErr) {
		return errors.Is(err, ai.ErrRateLimited) || apiErr.StatusCode >= 500
	}

	var transportErr *transport.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Kind == transport.KindNoConnection || transportErr.Kind == transport.KindTimeout
	}

	// Parse errors, incomplete streams and unknown failures say nothing about
	// server health.
	return false
}

func wrapBreakerError(name string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w (%s): %w", ErrCircuitOpen, name, err)
	}
	return err
}
