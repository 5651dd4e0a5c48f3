package openai

import (
	"encoding/json"
	"strings"
)

/*
	CHAT COMPLETIONS API - REQUEST TYPES
*/

// chatCompletionRequest is the body sent to /chat/completions.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// chatMessage is one message. Content is either a plain string or a list of
// content parts, so it is kept as any.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
	Name    string `json:"name,omitempty"`
}

// contentPart is one element of a multi-part message.
type contentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

/*
	CHAT COMPLETIONS API - RESPONSE TYPES
*/

// chatCompletionResponse is the non-streaming response body.
type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}

type chatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
		Refusal *string `json:"refusal,omitempty"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

/*
	CHAT COMPLETIONS STREAMING API - RESPONSE TYPES

	Each SSE data payload is a "chat.completion.chunk" carrying incremental
	deltas. Some OpenAI-compatible servers also report failures mid-stream as a
	data payload with an "error" object instead of closing with a status code.
*/

// chatCompletionStreamChunk is a single SSE chunk.
type chatCompletionStreamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"` // "chat.completion.chunk"
	Model   string         `json:"model"`
	Choices []streamChoice `json:"choices"`
	Usage   *chatUsage     `json:"usage,omitempty"`
	Error   *apiErrorBody  `json:"error,omitempty"`
}

// streamChoice uses Delta instead of Message.
type streamChoice struct {
	Index        int         `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"` // Nullable; nil until the final chunk
}

type streamDelta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"` // Nullable to distinguish empty string from absent
}

/*
	ERRORS
*/

// apiErrorBody is the "error" object of OpenAI error responses.
type apiErrorBody struct {
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Code    json.RawMessage `json:"code,omitempty"` // string, number or null depending on the server
}

// code returns the error code as text, falling back to the type.
func (e *apiErrorBody) code() string {
	code := strings.Trim(string(e.Code), `"`)
	if code == "" || code == "null" {
		return e.Type
	}
	return code
}
