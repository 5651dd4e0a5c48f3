package gemini

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/leofalp/aistream/providers/ai"
)

// requestToGemini converts provider-agnostic input to a generateContentRequest.
func requestToGemini(messages []ai.Message, options ai.ChatOptions) generateContentRequest {
	var request generateContentRequest

	var systemParts []part
	for _, message := range messages {
		if message.Role == ai.RoleSystem {
			systemParts = append(systemParts, part{Text: message.Text()})
			continue
		}
		if turn := toContent(message); len(turn.Parts) > 0 {
			request.Contents = append(request.Contents, turn)
		}
	}
	if len(systemParts) > 0 {
		request.SystemInstruction = &systemInstruction{Parts: systemParts}
	}

	if options.Temperature != nil || options.TopP != nil || options.MaxTokens != nil || len(options.Stop) > 0 {
		request.GenerationConfig = &generationConfig{
			Temperature:     options.Temperature,
			TopP:            options.TopP,
			MaxOutputTokens: options.MaxTokens,
			StopSequences:   options.Stop,
		}
	}

	return request
}

// toContent maps one message. Assistant turns use the "model" role; tool
// output is sent as user text.
func toContent(message ai.Message) content {
	switch message.Role {
	case ai.RoleAssistant:
		return content{Role: "model", Parts: toParts(message.ContentParts())}
	case ai.RoleTool:
		text := "Tool output:\n" + message.Text()
		if message.Name != "" {
			text = fmt.Sprintf("Tool %s output:\n%s", message.Name, message.Text())
		}
		return content{Role: "user", Parts: []part{{Text: text}}}
	default:
		return content{Role: "user", Parts: toParts(message.ContentParts())}
	}
}

func toParts(contentParts []ai.ContentPart) []part {
	parts := make([]part, 0, len(contentParts))
	for _, contentPart := range contentParts {
		switch contentPart.Type {
		case ai.ContentPartText:
			parts = append(parts, part{Text: contentPart.Text})
		case ai.ContentPartImage:
			image := contentPart.Image
			if image == nil {
				continue
			}
			if image.URL != "" {
				parts = append(parts, part{FileData: &fileData{MimeType: image.MediaType, FileURI: image.URL}})
				continue
			}
			mimeType := image.MediaType
			if mimeType == "" {
				mimeType = "image/png"
			}
			parts = append(parts, part{InlineData: &inlineData{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(image.Data),
			}})
		}
	}
	return parts
}

// mapFinishReason normalizes Gemini finish reasons.
func mapFinishReason(reason string) ai.FinishReason {
	switch reason {
	case "STOP":
		return ai.FinishReasonStop
	case "MAX_TOKENS":
		return ai.FinishReasonLength
	case "SAFETY":
		return ai.FinishReasonContentFilter
	default:
		return ai.FinishReasonOther
	}
}

func toUsage(metadata *usageMetadata) *ai.Usage {
	if metadata == nil {
		return nil
	}
	return &ai.Usage{PromptTokens: metadata.PromptTokenCount, CompletionTokens: metadata.CandidatesTokenCount}
}

// candidateText concatenates the non-thought text parts of a candidate.
func candidateText(candidate candidate) (string, bool) {
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, p := range candidate.Content.Parts {
		if !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	return sb.String(), true
}

func toAPIError(err *apiError) *ai.APIError {
	message := err.Message
	if err.Status != "" {
		message = err.Status + ": " + message
	}
	return &ai.APIError{Provider: providerName, Code: strconv.Itoa(err.Code), Message: message}
}

// ParseResponse implements ai.Adapter for generateContent.
func (a *Adapter) ParseResponse(body []byte) (*ai.ChatResponse, error) {
	var response generateContentResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, ai.NewParseError(providerName, string(body), err)
	}
	if response.Error != nil {
		return nil, toAPIError(response.Error)
	}

	chatResponse := &ai.ChatResponse{
		ID:      response.ResponseID,
		Model:   response.ModelVersion,
		Message: ai.AssistantMessage(""),
		Usage:   toUsage(response.UsageMetadata),
	}

	if len(response.Candidates) == 0 {
		if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			chatResponse.FinishReason = ai.FinishReasonContentFilter
			return chatResponse, nil
		}
		return nil, ai.NewParseError(providerName, string(body), fmt.Errorf("response has no candidates"))
	}

	text, _ := candidateText(response.Candidates[0])
	chatResponse.Message.Content = text
	chatResponse.FinishReason = ai.FinishReasonStop
	if reason := response.Candidates[0].FinishReason; reason != "" {
		chatResponse.FinishReason = mapFinishReason(reason)
	}
	return chatResponse, nil
}
