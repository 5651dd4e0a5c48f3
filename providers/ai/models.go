package ai

import (
	"slices"
	"strings"
)

/*
	##### PROVIDER INPUT #####
*/

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
	RoleTool      MessageRole = "tool"      // Tool/function output
)

// ContentPartType identifies the payload of a ContentPart.
type ContentPartType string

const (
	ContentPartText  ContentPartType = "text"
	ContentPartImage ContentPartType = "image"
)

// ImageSource is an image attached to a message. Either Data (raw bytes,
// base64-encoded on the wire) or URL is set.
type ImageSource struct {
	MediaType string `json:"media_type,omitempty"` // e.g. "image/png"
	Data      []byte `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// ContentPart is one element of a multi-part message.
type ContentPart struct {
	Type  ContentPartType `json:"type"`
	Text  string          `json:"text,omitempty"`
	Image *ImageSource    `json:"image,omitempty"`
}

// TextPart builds a text ContentPart.
func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentPartText, Text: text}
}

// ImagePart builds an inline image ContentPart.
func ImagePart(mediaType string, data []byte) ContentPart {
	return ContentPart{Type: ContentPartImage, Image: &ImageSource{MediaType: mediaType, Data: data}}
}

// ImageURLPart builds an image ContentPart referenced by URL.
func ImageURLPart(url string) ContentPart {
	return ContentPart{Type: ContentPartImage, Image: &ImageSource{URL: url}}
}

// Message represents a single message in a conversation.
//
// Content is the plain-text form. When Parts is non-empty it takes precedence
// and Content is ignored by the adapters.
type Message struct {
	Role    MessageRole   `json:"role"`
	Content string        `json:"content,omitempty"`
	Parts   []ContentPart `json:"parts,omitempty"`
	Name    string        `json:"name,omitempty"` // Optional participant or tool name
}

// SystemMessage builds a system message.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Content: text} }

// UserMessage builds a user message. Extra parts (images) are appended after
// the text.
func UserMessage(text string, parts ...ContentPart) Message {
	if len(parts) == 0 {
		return Message{Role: RoleUser, Content: text}
	}
	all := make([]ContentPart, 0, len(parts)+1)
	if text != "" {
		all = append(all, TextPart(text))
	}
	return Message{Role: RoleUser, Parts: append(all, parts...)}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Content: text} }

// ToolMessage builds a tool output message.
func ToolMessage(name, output string) Message {
	return Message{Role: RoleTool, Name: name, Content: output}
}

// ContentParts returns the message as parts, wrapping plain Content in a
// single text part.
func (m Message) ContentParts() []ContentPart {
	if len(m.Parts) > 0 {
		return m.Parts
	}
	if m.Content == "" {
		return nil
	}
	return []ContentPart{TextPart(m.Content)}
}

// Text concatenates all text of the message.
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var sb strings.Builder
	for _, part := range m.Parts {
		if part.Type == ContentPartText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// ChatOptions are per-request generation settings. Nil pointers mean "use the
// provider default".
type ChatOptions struct {
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"` // Sampling temperature [0..2]
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"` // Nucleus sampling [0..1]
	Stop        []string `json:"stop,omitempty"`
	Stream      bool     `json:"stream,omitempty"` // Set by the client, not by callers
}

// Clone returns a deep copy so callers' options are never mutated.
func (o ChatOptions) Clone() ChatOptions {
	clone := o
	if o.Temperature != nil {
		temperature := *o.Temperature
		clone.Temperature = &temperature
	}
	if o.MaxTokens != nil {
		maxTokens := *o.MaxTokens
		clone.MaxTokens = &maxTokens
	}
	if o.TopP != nil {
		topP := *o.TopP
		clone.TopP = &topP
	}
	clone.Stop = slices.Clone(o.Stop)
	return clone
}

// ChatRequest is the unit of work passed through the client middleware chain.
type ChatRequest struct {
	Messages []Message   `json:"messages"`
	Options  ChatOptions `json:"options"`
}

/*
	##### PROVIDER OUTPUT #####
*/

// FinishReason is the normalized reason a generation ended.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonOther         FinishReason = "other"
)

// Usage holds token counts reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
}

// TotalTokens is prompt plus completion tokens.
func (u Usage) TotalTokens() int {
	return u.PromptTokens + u.CompletionTokens
}

// ChatDelta is one normalized increment of a streamed response. A delta with
// a FinishReason is terminal and is always the last one of a stream.
type ChatDelta struct {
	Content      string       `json:"content,omitempty"`
	Role         MessageRole  `json:"role,omitempty"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
	Usage        *Usage       `json:"usage,omitempty"`
}

// IsFinished reports whether this is the terminal delta.
func (d ChatDelta) IsFinished() bool {
	return d.FinishReason != ""
}

// ChatResponse is an assembled (or non-streamed) response.
type ChatResponse struct {
	ID           string       `json:"id,omitempty"`
	Model        string       `json:"model,omitempty"`
	Message      Message      `json:"message"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
	Usage        *Usage       `json:"usage,omitempty"`
}

// Content is a shortcut for the assembled text.
func (r *ChatResponse) Content() string {
	return r.Message.Text()
}
