package openai

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/leofalp/aistream/providers/ai"
)

// toChatCompletionRequest converts provider-agnostic input to the wire body.
func toChatCompletionRequest(model string, messages []ai.Message, options ai.ChatOptions) chatCompletionRequest {
	request := chatCompletionRequest{
		Model:       model,
		Messages:    make([]chatMessage, 0, len(messages)),
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
		TopP:        options.TopP,
		Stop:        options.Stop,
		Stream:      options.Stream,
	}

	for _, message := range messages {
		request.Messages = append(request.Messages, toChatMessage(message))
	}
	return request
}

// toChatMessage maps one message. Tool output has no tool_call_id to link
// to, so it is sent as user text naming the tool.
func toChatMessage(message ai.Message) chatMessage {
	if message.Role == ai.RoleTool {
		return chatMessage{Role: string(ai.RoleUser), Content: toolOutputText(message)}
	}

	wire := chatMessage{Role: string(message.Role), Name: message.Name}
	if len(message.Parts) == 0 {
		wire.Content = message.Content
		return wire
	}

	parts := make([]contentPart, 0, len(message.Parts))
	for _, part := range message.Parts {
		switch part.Type {
		case ai.ContentPartText:
			parts = append(parts, contentPart{Type: "text", Text: part.Text})
		case ai.ContentPartImage:
			if part.Image != nil {
				parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: imageReference(part.Image)}})
			}
		}
	}
	wire.Content = parts
	return wire
}

// imageReference returns the image URL, or a data URL for inline bytes.
func imageReference(image *ai.ImageSource) string {
	if image.URL != "" {
		return image.URL
	}
	mediaType := image.MediaType
	if mediaType == "" {
		mediaType = "image/png"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
}

func toolOutputText(message ai.Message) string {
	if message.Name == "" {
		return "Tool output:\n" + message.Text()
	}
	return fmt.Sprintf("Tool %s output:\n%s", message.Name, message.Text())
}

// mapFinishReason normalizes OpenAI finish reasons.
func mapFinishReason(reason string) ai.FinishReason {
	switch reason {
	case "stop":
		return ai.FinishReasonStop
	case "length":
		return ai.FinishReasonLength
	case "content_filter":
		return ai.FinishReasonContentFilter
	case "tool_calls", "function_call":
		return ai.FinishReasonToolCalls
	default:
		return ai.FinishReasonOther
	}
}

func toUsage(usage *chatUsage) *ai.Usage {
	if usage == nil {
		return nil
	}
	return &ai.Usage{PromptTokens: usage.PromptTokens, CompletionTokens: usage.CompletionTokens}
}

// ParseResponse implements ai.Adapter for the non-streaming endpoint.
func (a *Adapter) ParseResponse(body []byte) (*ai.ChatResponse, error) {
	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, ai.NewParseError(providerName, string(body), err)
	}
	if len(response.Choices) == 0 {
		return nil, ai.NewParseError(providerName, string(body), fmt.Errorf("response has no choices"))
	}

	choice := response.Choices[0]
	content := ""
	if choice.Message.Content != nil {
		content = *choice.Message.Content
	} else if choice.Message.Refusal != nil {
		content = *choice.Message.Refusal
	}

	finishReason := ai.FinishReasonStop
	if choice.FinishReason != "" {
		finishReason = mapFinishReason(choice.FinishReason)
	}

	return &ai.ChatResponse{
		ID:           response.ID,
		Model:        response.Model,
		Message:      ai.AssistantMessage(content),
		FinishReason: finishReason,
		Usage:        toUsage(response.Usage),
	}, nil
}
