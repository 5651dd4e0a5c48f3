package client

import (
	"context"

	"github.com/leofalp/aistream/providers/ai"
)

// CompleteFunc performs one non-streaming call. It is the unit threaded
// through the complete middleware chain.
type CompleteFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// StreamFunc opens one stream. It is the unit threaded through the stream
// middleware chain. Errors returned here happen before the first delta; later
// failures travel inside the ChatStream.
type StreamFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error)

// Middleware wraps a CompleteFunc.
type Middleware func(next CompleteFunc) CompleteFunc

// StreamMiddleware wraps a StreamFunc. It may wrap the returned ChatStream to
// observe or transform the delta sequence.
type StreamMiddleware func(next StreamFunc) StreamFunc

// MiddlewareConfig pairs a complete middleware with its streaming counterpart.
// Either field may be nil, in which case that kind of call bypasses this
// entry; [New] rejects entries where both are nil.
type MiddlewareConfig struct {
	Complete Middleware
	Stream   StreamMiddleware
}

// buildCompleteChain wraps base so that middlewares[0] is the outermost layer.
func buildCompleteChain(base CompleteFunc, middlewares []MiddlewareConfig) CompleteFunc {
	chain := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Complete != nil {
			chain = middlewares[i].Complete(chain)
		}
	}
	return chain
}

// buildStreamChain wraps base so that the first entry with a Stream
// middleware is the outermost layer.
func buildStreamChain(base StreamFunc, middlewares []MiddlewareConfig) StreamFunc {
	chain := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}
	return chain
}
