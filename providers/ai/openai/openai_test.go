package openai

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
)

// decodeBody unmarshals a built request body into a generic map.
func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("invalid request body: %v", err)
	}
	return decoded
}

// ========== BuildRequest tests ==========

// TestBuildRequest_Streaming_SetsEndpointHeadersAndBody verifies the wire request.
func TestBuildRequest_Streaming_SetsEndpointHeadersAndBody(t *testing.T) {
	adapter := New().WithAPIKey("sk-test").WithBaseURL("http://localhost:9999/v1")

	request, err := adapter.BuildRequest(
		[]ai.Message{ai.SystemMessage("be brief"), ai.UserMessage("hi")},
		ai.ChatOptions{Model: "gpt-4o", Temperature: utils.Ptr(0.2), MaxTokens: utils.Ptr(50), Stop: []string{"END"}, Stream: true},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if request.Method != http.MethodPost || request.URL != "http://localhost:9999/v1/chat/completions" {
		t.Errorf("unexpected target %s %s", request.Method, request.URL)
	}
	if request.Header.Get("Authorization") != "Bearer sk-test" {
		t.Errorf("unexpected auth header %q", request.Header.Get("Authorization"))
	}
	if request.Header.Get("Accept") != "text/event-stream" {
		t.Errorf("expected SSE accept header, got %q", request.Header.Get("Accept"))
	}

	body := decodeBody(t, request.Body)
	if body["model"] != "gpt-4o" || body["stream"] != true || body["temperature"] != 0.2 || body["max_tokens"] != float64(50) {
		t.Errorf("unexpected body %v", body)
	}
	messages := body["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	system := messages[0].(map[string]any)
	if system["role"] != "system" || system["content"] != "be brief" {
		t.Errorf("expected inline system message, got %v", system)
	}
}

// TestBuildRequest_NonStreaming_OmitsStreamFlag verifies the complete path.
func TestBuildRequest_NonStreaming_OmitsStreamFlag(t *testing.T) {
	request, err := New().WithAPIKey("k").BuildRequest([]ai.Message{ai.UserMessage("hi")}, ai.ChatOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := decodeBody(t, request.Body)
	if _, ok := body["stream"]; ok {
		t.Error("expected stream to be omitted")
	}
	if _, ok := body["temperature"]; ok {
		t.Error("expected unset temperature to be omitted")
	}
	if body["model"] != defaultModel {
		t.Errorf("expected default model, got %v", body["model"])
	}
}

// TestBuildRequest_ImageParts_UseDataURL verifies multi-part conversion.
func TestBuildRequest_ImageParts_UseDataURL(t *testing.T) {
	request, err := New().WithAPIKey("k").BuildRequest(
		[]ai.Message{ai.UserMessage("what is this?", ai.ImagePart("image/png", []byte("png")), ai.ImageURLPart("https://x/y.jpg"))},
		ai.ChatOptions{Model: "m"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content := decodeBody(t, request.Body)["messages"].([]any)[0].(map[string]any)["content"].([]any)
	if len(content) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(content))
	}
	inline := content[1].(map[string]any)["image_url"].(map[string]any)["url"]
	if inline != "data:image/png;base64,cG5n" {
		t.Errorf("unexpected data url %v", inline)
	}
	remote := content[2].(map[string]any)["image_url"].(map[string]any)["url"]
	if remote != "https://x/y.jpg" {
		t.Errorf("unexpected remote url %v", remote)
	}
}

// TestBuildRequest_ToolMessage_SentAsUserText verifies tool output mapping.
func TestBuildRequest_ToolMessage_SentAsUserText(t *testing.T) {
	request, err := New().WithAPIKey("k").BuildRequest([]ai.Message{ai.ToolMessage("clock", "12:00")}, ai.ChatOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	message := decodeBody(t, request.Body)["messages"].([]any)[0].(map[string]any)
	if message["role"] != "user" || message["content"] != "Tool clock output:\n12:00" {
		t.Errorf("unexpected tool message %v", message)
	}
}

// TestBuildRequest_MissingAPIKey_ReturnsError verifies credential checks.
func TestBuildRequest_MissingAPIKey_ReturnsError(t *testing.T) {
	_, err := (&Adapter{baseURL: defaultBaseURL}).BuildRequest([]ai.Message{ai.UserMessage("hi")}, ai.ChatOptions{})
	if !errors.Is(err, ai.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

// TestNew_ReadsEnvironment verifies env configuration.
func TestNew_ReadsEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OPENAI_API_BASE_URL", "http://proxy/v1")

	adapter := New()
	if adapter.apiKey != "env-key" || adapter.baseURL != "http://proxy/v1" {
		t.Errorf("unexpected adapter %+v", adapter)
	}
	if adapter.Name() != "openai" {
		t.Errorf("unexpected name %q", adapter.Name())
	}
}

// ========== ParseResponse tests ==========

// TestParseResponse_MapsContentUsageAndFinish verifies non-streaming decoding.
func TestParseResponse_MapsContentUsageAndFinish(t *testing.T) {
	body := `{"id":"chatcmpl-1","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"4"},"finish_reason":"length"}],"usage":{"prompt_tokens":9,"completion_tokens":1,"total_tokens":10}}`

	response, err := New().ParseResponse([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content() != "4" || response.FinishReason != ai.FinishReasonLength {
		t.Errorf("unexpected response %+v", response)
	}
	if response.Usage == nil || response.Usage.TotalTokens() != 10 {
		t.Errorf("unexpected usage %+v", response.Usage)
	}
	if response.ID != "chatcmpl-1" || response.Model != "gpt-4o" {
		t.Errorf("unexpected metadata %+v", response)
	}
}

// TestParseResponse_Invalid_ReturnsParseError verifies malformed bodies.
func TestParseResponse_Invalid_ReturnsParseError(t *testing.T) {
	for _, body := range []string{`not json`, `{"choices":[]}`} {
		_, err := New().ParseResponse([]byte(body))
		var parseErr *ai.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("%s: expected ParseError, got %v", body, err)
		}
	}
}
