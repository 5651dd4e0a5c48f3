package openai

import (
	"errors"
	"testing"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/providers/ai"
)

// ========== ParseStreamEvent tests ==========

// TestParseStreamEvent_Table covers the chunk shapes the API produces.
func TestParseStreamEvent_Table(t *testing.T) {
	tests := []struct {
		name string
		data string
		want *ai.ChatDelta
	}{
		{
			name: "done sentinel",
			data: "[DONE]",
			want: &ai.ChatDelta{FinishReason: ai.FinishReasonStop},
		},
		{
			name: "role chunk",
			data: `{"choices":[{"index":0,"delta":{"role":"assistant","content":""},"finish_reason":null}]}`,
			want: &ai.ChatDelta{Role: ai.RoleAssistant},
		},
		{
			name: "content chunk",
			data: `{"choices":[{"index":0,"delta":{"content":"Hel"},"finish_reason":null}]}`,
			want: &ai.ChatDelta{Content: "Hel"},
		},
		{
			name: "finish stop",
			data: `{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
			want: &ai.ChatDelta{FinishReason: ai.FinishReasonStop},
		},
		{
			name: "finish length",
			data: `{"choices":[{"index":0,"delta":{},"finish_reason":"length"}]}`,
			want: &ai.ChatDelta{FinishReason: ai.FinishReasonLength},
		},
		{
			name: "finish content filter",
			data: `{"choices":[{"index":0,"delta":{},"finish_reason":"content_filter"}]}`,
			want: &ai.ChatDelta{FinishReason: ai.FinishReasonContentFilter},
		},
		{
			name: "finish tool calls",
			data: `{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
			want: &ai.ChatDelta{FinishReason: ai.FinishReasonToolCalls},
		},
		{
			name: "finish unknown",
			data: `{"choices":[{"index":0,"delta":{},"finish_reason":"whatever"}]}`,
			want: &ai.ChatDelta{FinishReason: ai.FinishReasonOther},
		},
		{
			name: "empty choices without usage",
			data: `{"id":"x","choices":[]}`,
			want: nil,
		},
	}

	adapter := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := adapter.ParseStreamEvent(sse.Event{Data: tt.data})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want == nil {
				if got != nil {
					t.Errorf("expected nil delta, got %+v", got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

// TestParseStreamEvent_UsageChunk_ReportsUsage verifies usage mapping.
func TestParseStreamEvent_UsageChunk_ReportsUsage(t *testing.T) {
	data := `{"choices":[{"index":0,"delta":{"content":"4"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`

	delta, err := New().ParseStreamEvent(sse.Event{Data: data})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta.Content != "4" || !delta.IsFinished() {
		t.Errorf("unexpected delta %+v", delta)
	}
	if delta.Usage == nil || delta.Usage.PromptTokens != 10 || delta.Usage.CompletionTokens != 2 {
		t.Errorf("unexpected usage %+v", delta.Usage)
	}
}

// TestParseStreamEvent_MalformedJSON_ReturnsParseError verifies parse failures.
func TestParseStreamEvent_MalformedJSON_ReturnsParseError(t *testing.T) {
	_, err := New().ParseStreamEvent(sse.Event{Data: `{"choices":[`})

	var parseErr *ai.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Provider != "openai" || parseErr.Fragment != `{"choices":[` {
		t.Errorf("unexpected parse error %+v", parseErr)
	}
}

// TestParseStreamEvent_ErrorPayload_ReturnsAPIError verifies in-stream errors.
func TestParseStreamEvent_ErrorPayload_ReturnsAPIError(t *testing.T) {
	data := `{"error":{"message":"server overloaded","type":"server_error","code":null}}`

	_, err := New().ParseStreamEvent(sse.Event{Data: data})

	var apiErr *ai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "server_error" || apiErr.Message != "server overloaded" {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}
