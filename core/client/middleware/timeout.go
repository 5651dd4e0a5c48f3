package middleware

import (
	"context"
	"time"

	"github.com/leofalp/aistream/core/client"
	"github.com/leofalp/aistream/providers/ai"
)

// NewTimeoutMiddleware creates a MiddlewareConfig that enforces a deadline on
// both Complete calls and streams.
//
// For streams the cancel function is not deferred when the StreamFunc returns.
// It runs once the terminal delta is delivered, an error occurs, or the caller
// abandons the iterator, so the deadline governs the complete lifetime of the
// stream.
//
// A shorter deadline already on the caller's context wins.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Complete: buildCompleteTimeout(timeout),
		Stream:   buildStreamTimeout(timeout),
	}
}

func buildCompleteTimeout(timeout time.Duration) client.Middleware {
	return func(next client.CompleteFunc) client.CompleteFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}

func buildStreamTimeout(timeout time.Duration) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)

			stream, err := next(ctx, request)
			if err != nil {
				cancel()
				return nil, err
			}

			return wrapStreamWithCancel(stream, cancel), nil
		}
	}
}

// wrapStreamWithCancel calls cancel once the stream finishes, errors, or the
// caller breaks out of the loop.
func wrapStreamWithCancel(stream *ai.ChatStream, cancel context.CancelFunc) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.ChatDelta, error) bool) {
		defer cancel()

		for delta, err := range stream.Iter() {
			if !yield(delta, err) || err != nil || delta.IsFinished() {
				return
			}
		}
	})
}
