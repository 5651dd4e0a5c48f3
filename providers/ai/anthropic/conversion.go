package anthropic

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/aistream/providers/ai"
)

// requestToAnthropic converts provider-agnostic input into an anthropicRequest.
// System messages are hoisted into the top-level system field.
func requestToAnthropic(model string, messages []ai.Message, options ai.ChatOptions) anthropicRequest {
	request := anthropicRequest{
		Model:         model,
		MaxTokens:     defaultMaxTokens,
		Temperature:   options.Temperature,
		TopP:          options.TopP,
		StopSequences: options.Stop,
		Stream:        options.Stream,
	}
	if options.MaxTokens != nil {
		request.MaxTokens = *options.MaxTokens
	}

	var system []string
	for _, message := range messages {
		if message.Role == ai.RoleSystem {
			system = append(system, message.Text())
			continue
		}
		request.Messages = appendMessage(request.Messages, toAnthropicMessage(message))
	}
	request.System = strings.Join(system, "\n\n")

	return request
}

// appendMessage merges consecutive messages with the same role, since the
// API requires user and assistant turns to alternate.
func appendMessage(messages []anthropicMessage, message anthropicMessage) []anthropicMessage {
	if len(message.Content) == 0 {
		return messages
	}
	if last := len(messages) - 1; last >= 0 && messages[last].Role == message.Role {
		messages[last].Content = append(messages[last].Content, message.Content...)
		return messages
	}
	return append(messages, message)
}

// toAnthropicMessage maps one non-system message. Tool output is sent as
// user text since there is no tool_use id to reference.
func toAnthropicMessage(message ai.Message) anthropicMessage {
	role := "user"
	if message.Role == ai.RoleAssistant {
		role = "assistant"
	}

	if message.Role == ai.RoleTool {
		text := fmt.Sprintf("Tool %s output:\n%s", message.Name, message.Text())
		if message.Name == "" {
			text = "Tool output:\n" + message.Text()
		}
		return anthropicMessage{Role: role, Content: []anthropicContentBlock{{Type: "text", Text: text}}}
	}

	var blocks []anthropicContentBlock
	for _, part := range message.ContentParts() {
		switch part.Type {
		case ai.ContentPartText:
			blocks = append(blocks, anthropicContentBlock{Type: "text", Text: part.Text})
		case ai.ContentPartImage:
			if part.Image != nil {
				blocks = append(blocks, anthropicContentBlock{Type: "image", Source: toImageSource(part.Image)})
			}
		}
	}
	return anthropicMessage{Role: role, Content: blocks}
}

func toImageSource(image *ai.ImageSource) *imageSource {
	if image.URL != "" {
		return &imageSource{Type: "url", URL: image.URL}
	}
	mediaType := image.MediaType
	if mediaType == "" {
		mediaType = "image/png"
	}
	return &imageSource{
		Type:      "base64",
		MediaType: mediaType,
		Data:      base64.StdEncoding.EncodeToString(image.Data),
	}
}

// mapStopReason normalizes Anthropic stop reasons.
func mapStopReason(reason string) ai.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return ai.FinishReasonStop
	case "max_tokens":
		return ai.FinishReasonLength
	case "tool_use":
		return ai.FinishReasonToolCalls
	default:
		return ai.FinishReasonOther
	}
}

func toUsage(usage *anthropicUsage) *ai.Usage {
	if usage == nil {
		return nil
	}
	return &ai.Usage{PromptTokens: usage.InputTokens, CompletionTokens: usage.OutputTokens}
}

// ParseResponse implements ai.Adapter for the non-streaming endpoint. Text
// blocks are concatenated; other block types are skipped.
func (a *Adapter) ParseResponse(body []byte) (*ai.ChatResponse, error) {
	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, ai.NewParseError(providerName, string(body), err)
	}
	if response.Type != "" && response.Type != "message" {
		return nil, ai.NewParseError(providerName, string(body), fmt.Errorf("unexpected response type %q", response.Type))
	}

	var content strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &ai.ChatResponse{
		ID:           response.ID,
		Model:        response.Model,
		Message:      ai.AssistantMessage(content.String()),
		FinishReason: mapStopReason(response.StopReason),
		Usage:        toUsage(response.Usage),
	}, nil
}
