package anthropic

import (
	"encoding/json"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/providers/ai"
)

// ParseStreamEvent implements ai.Adapter. Event types the caller has no use
// for (ping, content_block_start/stop, unknown future types) return nil.
func (a *Adapter) ParseStreamEvent(event sse.Event) (*ai.ChatDelta, error) {
	var streamEvent anthropicStreamEvent
	if err := json.Unmarshal([]byte(event.Data), &streamEvent); err != nil {
		return nil, ai.NewParseError(providerName, event.Data, err)
	}

	switch streamEvent.Type {
	case "message_start":
		role := ai.RoleAssistant
		if streamEvent.Message != nil && streamEvent.Message.Role != "" {
			role = ai.MessageRole(streamEvent.Message.Role)
		}
		return &ai.ChatDelta{Role: role}, nil

	case "content_block_delta":
		if streamEvent.Delta == nil || streamEvent.Delta.Text == "" {
			return nil, nil
		}
		if streamEvent.Delta.Type != "" && streamEvent.Delta.Type != "text_delta" {
			return nil, nil
		}
		return &ai.ChatDelta{Content: streamEvent.Delta.Text}, nil

	case "message_delta":
		delta := ai.ChatDelta{Usage: toUsage(streamEvent.Usage)}
		if streamEvent.Delta != nil && streamEvent.Delta.StopReason != "" {
			delta.FinishReason = mapStopReason(streamEvent.Delta.StopReason)
		}
		if delta == (ai.ChatDelta{}) {
			return nil, nil
		}
		return &delta, nil

	case "message_stop":
		return &ai.ChatDelta{FinishReason: ai.FinishReasonStop}, nil

	case "error":
		apiErr := &ai.APIError{Provider: providerName}
		if streamEvent.Error != nil {
			apiErr.Code = streamEvent.Error.Type
			apiErr.Message = streamEvent.Error.Message
		}
		return nil, apiErr

	default:
		return nil, nil
	}
}
