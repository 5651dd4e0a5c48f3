package middleware

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/leofalp/aistream/core/client"
	"github.com/leofalp/aistream/providers/ai"
)

// ========== Shared fakes ==========

var testRequest = ai.ChatRequest{
	Messages: []ai.Message{ai.UserMessage("What is 2+2?")},
	Options:  ai.ChatOptions{Model: "test-model"},
}

func okResponse(content string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Model:        "test-model",
		Message:      ai.AssistantMessage(content),
		FinishReason: ai.FinishReasonStop,
		Usage:        &ai.Usage{PromptTokens: 5, CompletionTokens: 1},
	}
}

// scriptedComplete returns errs in order, then a successful response.
func scriptedComplete(calls *atomic.Int32, errs ...error) client.CompleteFunc {
	return func(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		n := int(calls.Add(1)) - 1
		if n < len(errs) {
			return nil, errs[n]
		}
		return okResponse("4"), nil
	}
}

// scriptedStream is the streaming counterpart of scriptedComplete.
func scriptedStream(calls *atomic.Int32, errs ...error) client.StreamFunc {
	return func(_ context.Context, _ ai.ChatRequest) (*ai.ChatStream, error) {
		n := int(calls.Add(1)) - 1
		if n < len(errs) {
			return nil, errs[n]
		}
		return deltaStream(
			ai.ChatDelta{Content: "4", Role: ai.RoleAssistant},
			ai.ChatDelta{FinishReason: ai.FinishReasonStop, Usage: &ai.Usage{PromptTokens: 5, CompletionTokens: 1}},
		), nil
	}
}

func deltaStream(deltas ...ai.ChatDelta) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.ChatDelta, error) bool) {
		for _, delta := range deltas {
			if !yield(delta, nil) {
				return
			}
		}
	})
}

func apiError(status int) *ai.APIError {
	apiErr := &ai.APIError{Provider: "openai", StatusCode: status, Message: http.StatusText(status)}
	switch status {
	case http.StatusTooManyRequests:
		apiErr.Kind = ai.ErrRateLimited
	case http.StatusUnauthorized:
		apiErr.Kind = ai.ErrUnauthorized
	case http.StatusBadRequest:
		apiErr.Kind = ai.ErrInvalidRequest
	}
	return apiErr
}
