package client

import (
	"context"

	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
	"github.com/leofalp/aistream/providers/observability"
)

// NewObservabilityMiddleware creates a MiddlewareConfig that records a span,
// metrics and log events for every call.
//
// For streams the span stays open until the terminal delta, an error, or the
// caller breaking out of the loop. The time to the first delta is recorded as
// a span event and a histogram.
//
// [New] installs it as the outermost layer when [WithObserver] is given, so it
// observes the final outcome after retries and timeouts.
func NewObservabilityMiddleware(observer observability.Provider, providerName, defaultModel string) MiddlewareConfig {
	return MiddlewareConfig{
		Complete: buildObsComplete(observer, providerName, defaultModel),
		Stream:   buildObsStream(observer, providerName, defaultModel),
	}
}

// callObservation is the state of one observed call.
type callObservation struct {
	observer observability.Provider
	span     observability.Span
	timer    *utils.Timer
	attrs    []observability.Attribute // provider and model, on every record
}

func startObservation(ctx context.Context, observer observability.Provider, spanName, providerName, model string, request ai.ChatRequest) (context.Context, *callObservation) {
	attrs := []observability.Attribute{
		observability.String(observability.AttrLLMProvider, providerName),
		observability.String(observability.AttrLLMModel, model),
	}

	ctx, span := observer.StartSpan(ctx, spanName, attrs...)
	ctx = observability.ContextWithSpan(ctx, span)
	ctx = observability.ContextWithObserver(ctx, observer)

	observer.Debug(ctx, "llm call",
		append(attrs,
			observability.Bool(observability.AttrLLMStreaming, spanName == observability.SpanClientStream),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		)...,
	)

	return ctx, &callObservation{observer: observer, span: span, timer: utils.NewTimer(), attrs: attrs}
}

// fail records a failed call and ends the span.
func (o *callObservation) fail(ctx context.Context, err error) {
	o.timer.Stop()
	kind := ErrorKind(err)

	o.span.RecordError(err)
	o.span.SetAttributes(observability.String(observability.AttrErrorKind, kind))
	o.span.SetStatus(observability.StatusError, "llm call failed")
	o.span.End()

	o.observer.Error(ctx, "llm call failed",
		append(o.attrs,
			observability.Error(err),
			observability.String(observability.AttrErrorKind, kind),
			observability.Duration(observability.AttrDuration, o.timer.GetDuration()),
		)...,
	)
	o.observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		append(o.attrs, observability.String(observability.AttrStatus, "error"))...,
	)
}

// succeed records duration, counters, token usage and a log entry, then ends the span.
func (o *callObservation) succeed(ctx context.Context, response *ai.ChatResponse, extra ...observability.Attribute) {
	o.timer.Stop()
	elapsed := o.timer.GetDuration()

	o.observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(), o.attrs...)
	o.observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		append(o.attrs, observability.String(observability.AttrStatus, "success"))...,
	)

	logAttrs := append(append([]observability.Attribute{}, o.attrs...),
		observability.String(observability.AttrLLMFinishReason, string(response.FinishReason)),
		observability.Duration(observability.AttrDuration, elapsed),
	)
	logAttrs = append(logAttrs, extra...)

	if usage := response.Usage; usage != nil {
		o.observer.Counter(observability.MetricClientTokensTotal).Add(ctx, int64(usage.TotalTokens()), o.attrs...)
		o.observer.Counter(observability.MetricClientTokensPrompt).Add(ctx, int64(usage.PromptTokens), o.attrs...)
		o.observer.Counter(observability.MetricClientTokensCompletion).Add(ctx, int64(usage.CompletionTokens), o.attrs...)

		tokenAttrs := []observability.Attribute{
			observability.Int(observability.AttrLLMTokensPrompt, usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, usage.CompletionTokens),
			observability.Int(observability.AttrLLMTokensTotal, usage.TotalTokens()),
		}
		o.span.SetAttributes(tokenAttrs...)
		logAttrs = append(logAttrs, tokenAttrs...)
	}

	if response.ID != "" {
		o.span.SetAttributes(observability.String(observability.AttrLLMResponseID, response.ID))
	}
	if content := response.Content(); content != "" {
		logAttrs = append(logAttrs, observability.String(observability.AttrResponseContent, utils.TruncateString(content, 100)))
	}

	o.observer.Info(ctx, "llm call completed", logAttrs...)

	o.span.SetAttributes(observability.String(observability.AttrLLMFinishReason, string(response.FinishReason)))
	o.span.SetStatus(observability.StatusOK, "success")
	o.span.End()
}

func buildObsComplete(observer observability.Provider, providerName, defaultModel string) Middleware {
	return func(next CompleteFunc) CompleteFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			ctx, observation := startObservation(ctx, observer, observability.SpanClientComplete,
				providerName, effectiveModel(request.Options.Model, defaultModel), request)

			response, err := next(ctx, request)
			if err != nil {
				observation.fail(ctx, err)
				return nil, err
			}

			observation.succeed(ctx, response)
			return response, nil
		}
	}
}

func buildObsStream(observer observability.Provider, providerName, defaultModel string) StreamMiddleware {
	return func(next StreamFunc) StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			ctx, observation := startObservation(ctx, observer, observability.SpanClientStream,
				providerName, effectiveModel(request.Options.Model, defaultModel), request)

			stream, err := next(ctx, request)
			if err != nil {
				observation.fail(ctx, err)
				return nil, err
			}

			return wrapStreamWithObservability(ctx, stream, observation), nil
		}
	}
}

// wrapStreamWithObservability passes deltas through unchanged and records the
// outcome once the stream finishes, fails, or is abandoned.
func wrapStreamWithObservability(ctx context.Context, stream *ai.ChatStream, observation *callObservation) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.ChatDelta, error) bool) {
		summary := &ai.ChatResponse{}
		deltas := 0

		for delta, err := range stream.Iter() {
			if err != nil {
				observation.fail(ctx, err)
				yield(delta, err)
				return
			}

			if deltas == 0 {
				firstDelta := observation.timer.Elapsed()
				observation.span.AddEvent(observability.EventFirstDelta,
					observability.Duration(observability.AttrDuration, firstDelta))
				observation.observer.Histogram(observability.MetricClientTimeToFirstDelta).Record(ctx, firstDelta.Seconds(), observation.attrs...)
			}
			deltas++

			if delta.Usage != nil {
				summary.Usage = delta.Usage
			}
			if delta.FinishReason != "" {
				summary.FinishReason = delta.FinishReason
			}

			if !yield(delta, nil) {
				observation.timer.Stop()
				observation.span.SetAttributes(observability.Int(observability.AttrResponseDeltas, deltas))
				observation.span.SetStatus(observability.StatusOK, "llm stream abandoned")
				observation.span.End()

				observation.observer.Info(ctx, "llm stream abandoned",
					append(observation.attrs,
						observability.Int(observability.AttrResponseDeltas, deltas),
						observability.Duration(observability.AttrDuration, observation.timer.GetDuration()),
					)...,
				)
				return
			}
		}

		observation.span.SetAttributes(observability.Int(observability.AttrResponseDeltas, deltas))
		observation.succeed(ctx, summary, observability.Int(observability.AttrResponseDeltas, deltas))
	})
}

// effectiveModel returns the request-level model when set, falling back to the
// client's configured default. Both being empty is valid (adapter chooses).
func effectiveModel(requestModel, defaultModel string) string {
	if requestModel != "" {
		return requestModel
	}
	return defaultModel
}
