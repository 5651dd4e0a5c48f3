package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/leofalp/aistream/core/client"
	"github.com/leofalp/aistream/providers/ai"
)

// NewRateLimitMiddleware throttles outgoing calls with a token bucket shared
// by Complete and Stream. Calls block until a token is available or the
// context is done. A burst below 1 is raised to 1.
func NewRateLimitMiddleware(limit rate.Limit, burst int) client.MiddlewareConfig {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)

	return client.MiddlewareConfig{
		Complete: func(next client.CompleteFunc) client.CompleteFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				if err := limiter.Wait(ctx); err != nil {
					return nil, fmt.Errorf("rate limit wait: %w", err)
				}
				return next(ctx, request)
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				if err := limiter.Wait(ctx); err != nil {
					return nil, fmt.Errorf("rate limit wait: %w", err)
				}
				return next(ctx, request)
			}
		},
	}
}
