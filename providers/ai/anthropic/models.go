package anthropic

/*
	MESSAGES API - REQUEST TYPES
*/

// anthropicRequest is the body sent to /messages.
type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	System        string             `json:"system,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
	Temperature   *float64           `json:"temperature,omitempty"`
	TopP          *float64           `json:"top_p,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
	Stream        bool               `json:"stream,omitempty"`
}

// anthropicMessage is one conversation turn. Roles must alternate between
// "user" and "assistant".
type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

// anthropicContentBlock is a text or image block.
type anthropicContentBlock struct {
	Type   string       `json:"type"` // "text" or "image"
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"` // "base64" or "url"
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

/*
	MESSAGES API - RESPONSE TYPES
*/

// anthropicResponse is the non-streaming response body and the "message"
// object of message_start events.
type anthropicResponse struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Role       string                 `json:"role"`
	Model      string                 `json:"model"`
	Content    []responseContentBlock `json:"content"`
	StopReason string                 `json:"stop_reason"`
	Usage      *anthropicUsage        `json:"usage,omitempty"`
}

type responseContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// anthropicError is the "error" object of error responses and error events.
type anthropicError struct {
	Type    string `json:"type"`    // Error type (e.g., "overloaded_error", "api_error")
	Message string `json:"message"` // Human-readable error description
}

/*
	ANTHROPIC SSE STREAMING - WIRE TYPES

	Anthropic streaming uses SSE with "event:" lines to identify event types,
	followed by "data:" lines containing JSON payloads with a redundant "type"
	field, which is what the adapter discriminates on.

	Event lifecycle:
	  message_start → content_block_start → content_block_delta → content_block_stop →
	  message_delta → message_stop
*/

// anthropicStreamEvent is the top-level envelope for all Anthropic SSE events.
// The Type field discriminates which optional fields are populated.
type anthropicStreamEvent struct {
	Type    string             `json:"type"`              // Event discriminator
	Message *anthropicResponse `json:"message,omitempty"` // For "message_start"
	Index   int                `json:"index,omitempty"`   // For content_block_start/delta/stop
	Delta   *streamDelta       `json:"delta,omitempty"`   // For "content_block_delta" and "message_delta"
	Usage   *anthropicUsage    `json:"usage,omitempty"`   // For "message_delta"
	Error   *anthropicError    `json:"error,omitempty"`   // For "error" events
}

// streamDelta carries incremental content within a content_block_delta or message_delta event.
// The Type field discriminates the kind of delta:
//   - "text_delta": Text field is populated
//   - "thinking_delta", "input_json_delta": ignored
//   - (no type on message_delta): StopReason is populated
type streamDelta struct {
	Type       string `json:"type,omitempty"`
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}
