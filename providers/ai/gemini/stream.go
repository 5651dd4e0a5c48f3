package gemini

import (
	"encoding/json"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/providers/ai"
)

// ParseStreamEvent implements ai.Adapter.
//
// The first candidate's text parts are concatenated into the delta content,
// and its finishReason (when present) makes the delta terminal. A record
// without candidates is an error report, a blocked prompt, or nothing.
func (a *Adapter) ParseStreamEvent(event sse.Event) (*ai.ChatDelta, error) {
	var response generateContentResponse
	if err := json.Unmarshal([]byte(event.Data), &response); err != nil {
		return nil, ai.NewParseError(providerName, event.Data, err)
	}

	if len(response.Candidates) == 0 {
		switch {
		case response.Error != nil:
			return nil, toAPIError(response.Error)
		case response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "":
			return &ai.ChatDelta{FinishReason: ai.FinishReasonContentFilter, Usage: toUsage(response.UsageMetadata)}, nil
		default:
			return nil, nil
		}
	}

	first := response.Candidates[0]
	text, hasParts := candidateText(first)
	if !hasParts && first.FinishReason == "" {
		return nil, nil
	}

	delta := &ai.ChatDelta{Content: text, Usage: toUsage(response.UsageMetadata)}
	if hasParts {
		delta.Role = ai.RoleAssistant
	}
	if first.FinishReason != "" {
		delta.FinishReason = mapFinishReason(first.FinishReason)
	}
	return delta, nil
}
