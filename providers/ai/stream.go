package ai

import (
	"iter"
	"strings"
)

// ChatStream wraps a streaming iterator of normalized deltas and provides
// accumulation into a final ChatResponse. It supports both range-based
// iteration for real-time token processing and a convenience Collect() method
// for callers who want the complete response.
//
// Important: callers must consume the stream, either by iterating with Iter()
// (including breaking out of the loop early) or by calling Collect(). The
// underlying connection is only released when the iterator completes or is
// abandoned via a loop break. A stream is single-use.
type ChatStream struct {
	iterator iter.Seq2[ChatDelta, error]
}

// NewChatStream creates a ChatStream from a raw delta iterator. The iterator
// yields deltas with a nil error and may yield one non-nil error to signal a
// mid-stream failure.
func NewChatStream(iterator iter.Seq2[ChatDelta, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// NewResponseStream replays a complete ChatResponse as a two-delta stream: a
// content delta followed by the terminal delta carrying usage.
func NewResponseStream(response *ChatResponse) *ChatStream {
	return NewChatStream(func(yield func(ChatDelta, error) bool) {
		role := response.Message.Role
		if role == "" {
			role = RoleAssistant
		}
		if !yield(ChatDelta{Role: role, Content: response.Content()}, nil) {
			return
		}

		finishReason := response.FinishReason
		if finishReason == "" {
			finishReason = FinishReasonStop
		}
		yield(ChatDelta{FinishReason: finishReason, Usage: response.Usage}, nil)
	})
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
// Example:
//
//	for delta, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    fmt.Print(delta.Content)
//	}
func (stream *ChatStream) Iter() iter.Seq2[ChatDelta, error] {
	return stream.iterator
}

// Collect consumes the entire stream and returns the accumulated response:
// content concatenated in order, the last usage reported, and the finish
// reason of the terminal delta. A mid-stream error stops collection and is
// returned together with the partial response.
func (stream *ChatStream) Collect() (*ChatResponse, error) {
	accumulated := &ChatResponse{Message: Message{Role: RoleAssistant}}
	var content strings.Builder

	for delta, err := range stream.iterator {
		if err != nil {
			accumulated.Message.Content = content.String()
			return accumulated, err
		}

		content.WriteString(delta.Content)
		if delta.Role != "" {
			accumulated.Message.Role = delta.Role
		}
		if delta.Usage != nil {
			accumulated.Usage = delta.Usage
		}
		if delta.FinishReason != "" {
			accumulated.FinishReason = delta.FinishReason
		}
	}

	accumulated.Message.Content = content.String()
	return accumulated, nil
}
