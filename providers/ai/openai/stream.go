package openai

import (
	"encoding/json"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/providers/ai"
)

// ParseStreamEvent implements ai.Adapter.
//
// "[DONE]" becomes a terminal stop delta. Otherwise the first choice's role,
// content and finish reason are mapped, along with usage when the chunk
// carries it. Chunks with none of these (e.g. an empty keep-alive chunk)
// return nil.
func (a *Adapter) ParseStreamEvent(event sse.Event) (*ai.ChatDelta, error) {
	if event.IsDone() {
		return &ai.ChatDelta{FinishReason: ai.FinishReasonStop}, nil
	}

	var chunk chatCompletionStreamChunk
	if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
		return nil, ai.NewParseError(providerName, event.Data, err)
	}

	if chunk.Error != nil {
		return nil, &ai.APIError{
			Provider: providerName,
			Code:     chunk.Error.code(),
			Message:  chunk.Error.Message,
		}
	}

	delta := ai.ChatDelta{Usage: toUsage(chunk.Usage)}
	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]
		delta.Role = ai.MessageRole(choice.Delta.Role)
		if choice.Delta.Content != nil {
			delta.Content = *choice.Delta.Content
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			delta.FinishReason = mapFinishReason(*choice.FinishReason)
		}
	}

	if delta == (ai.ChatDelta{}) {
		return nil, nil
	}
	return &delta, nil
}
