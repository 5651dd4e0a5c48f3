package middleware

import (
	"context"
	"log/slog"

	"github.com/leofalp/aistream/core/client"
	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
)

// LogLevel controls how much detail the logging middleware emits per request.
type LogLevel int

const (
	// LogLevelMinimal logs only the model name, total duration, and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the message count, finish reason, and delta count.
	LogLevelStandard

	// LogLevelVerbose adds the first message and the response content, each
	// truncated to 500 characters.
	//
	// WARNING: DO NOT use LogLevelVerbose in production. It logs raw prompt
	// and response text, which may contain secrets or PII.
	LogLevelVerbose
)

// ParseLogLevel maps "minimal", "standard" and "verbose" to a LogLevel. Any
// other value yields LogLevelStandard.
func ParseLogLevel(value string) LogLevel {
	switch value {
	case "minimal":
		return LogLevelMinimal
	case "verbose":
		return LogLevelVerbose
	default:
		return LogLevelStandard
	}
}

const truncateLen = 500

// NewLoggingMiddleware creates a MiddlewareConfig that emits slog entries
// before and after every call. For streams the completion entry is emitted
// once the terminal delta arrives, an error occurs, or the caller stops early.
//
// The logger must not be nil; use slog.Default() when no logger is configured.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Complete: buildCompleteLogging(logger, level),
		Stream:   buildStreamLogging(logger, level),
	}
}

func buildCompleteLogging(logger *slog.Logger, level LogLevel) client.Middleware {
	return func(next client.CompleteFunc) client.CompleteFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			logger.InfoContext(ctx, "llm complete", buildRequestAttrs(request, level)...)

			timer := utils.NewTimer()
			response, err := next(ctx, request)
			timer.Stop()

			if err != nil {
				logger.ErrorContext(ctx, "llm complete failed",
					slog.String("model", request.Options.Model),
					slog.Duration("duration", timer.GetDuration()),
					slog.String("error_kind", client.ErrorKind(err)),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "llm complete finished",
				append([]any{slog.String("model", modelOf(response, request))},
					buildResponseAttrs(response, timer, level)...)...,
			)
			return response, nil
		}
	}
}

func buildStreamLogging(logger *slog.Logger, level LogLevel) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			logger.InfoContext(ctx, "llm stream", buildRequestAttrs(request, level)...)

			timer := utils.NewTimer()
			stream, err := next(ctx, request)
			if err != nil {
				timer.Stop()
				logger.ErrorContext(ctx, "llm stream failed",
					slog.String("model", request.Options.Model),
					slog.Duration("duration", timer.GetDuration()),
					slog.String("error_kind", client.ErrorKind(err)),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			return wrapStreamWithLogging(ctx, stream, logger, request.Options.Model, level, timer), nil
		}
	}
}

// wrapStreamWithLogging passes deltas through and logs one completion, error
// or abandonment entry at the end.
func wrapStreamWithLogging(ctx context.Context, stream *ai.ChatStream, logger *slog.Logger, model string, level LogLevel, timer *utils.Timer) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.ChatDelta, error) bool) {
		summary := &ai.ChatResponse{Message: ai.AssistantMessage("")}
		var content []byte
		deltas := 0

		for delta, err := range stream.Iter() {
			if err != nil {
				timer.Stop()
				logger.ErrorContext(ctx, "llm stream failed",
					slog.String("model", model),
					slog.Duration("duration", timer.GetDuration()),
					slog.Int("deltas", deltas),
					slog.String("error_kind", client.ErrorKind(err)),
					slog.String("error", err.Error()),
				)
				yield(delta, err)
				return
			}

			deltas++
			if level >= LogLevelVerbose {
				content = append(content, delta.Content...)
			}
			if delta.Usage != nil {
				summary.Usage = delta.Usage
			}
			summary.FinishReason = delta.FinishReason

			if !yield(delta, nil) {
				timer.Stop()
				logger.InfoContext(ctx, "llm stream abandoned",
					slog.String("model", model),
					slog.Duration("duration", timer.GetDuration()),
					slog.Int("deltas", deltas),
				)
				return
			}
			if delta.IsFinished() {
				break
			}
		}

		timer.Stop()
		summary.Message.Content = string(content)

		attrs := []any{slog.String("model", model)}
		attrs = append(attrs, buildResponseAttrs(summary, timer, level)...)
		if level >= LogLevelStandard {
			attrs = append(attrs, slog.Int("deltas", deltas))
		}
		logger.InfoContext(ctx, "llm stream completed", attrs...)
	})
}

// buildRequestAttrs returns slog attributes for an outgoing request.
func buildRequestAttrs(request ai.ChatRequest, level LogLevel) []any {
	attrs := []any{slog.String("model", request.Options.Model)}

	if level >= LogLevelStandard {
		attrs = append(attrs, slog.Int("message_count", len(request.Messages)))
	}

	if level >= LogLevelVerbose && len(request.Messages) > 0 {
		first := request.Messages[0]
		attrs = append(attrs,
			slog.String("first_message_role", string(first.Role)),
			slog.String("first_message_content", utils.TruncateString(first.Text(), truncateLen)),
		)
	}

	return attrs
}

// buildResponseAttrs returns slog attributes for a finished call, without the model.
func buildResponseAttrs(response *ai.ChatResponse, timer *utils.Timer, level LogLevel) []any {
	attrs := []any{slog.Duration("duration", timer.GetDuration())}

	if usage := response.Usage; usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", usage.PromptTokens),
			slog.Int("completion_tokens", usage.CompletionTokens),
			slog.Int("total_tokens", usage.TotalTokens()),
		)
	}

	if level >= LogLevelStandard && response.FinishReason != "" {
		attrs = append(attrs, slog.String("finish_reason", string(response.FinishReason)))
	}

	if level >= LogLevelVerbose {
		if content := response.Content(); content != "" {
			attrs = append(attrs, slog.String("response_content", utils.TruncateString(content, truncateLen)))
		}
	}

	return attrs
}

// modelOf prefers the model the provider reported.
func modelOf(response *ai.ChatResponse, request ai.ChatRequest) string {
	if response.Model != "" {
		return response.Model
	}
	return request.Options.Model
}
