package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leofalp/aistream/internal/config"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	root := newRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--env-file", filepath.Join(dir, "missing.env"),
	}, args...))

	err := root.Execute()
	return out.String(), err
}

// fakeOpenAI serves a canned reply over SSE or as a single JSON body and
// records the last request body.
func fakeOpenAI(t *testing.T, content string, lastBody *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if lastBody != nil {
			*lastBody = body
		}

		chunk, _ := json.Marshal(content)
		if stream, _ := body["stream"].(bool); stream {
			w.Header().Set("Content-Type", "text/event-stream")
			io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":"+string(chunk)+"}}]}\n\n")
			io.WriteString(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
			io.WriteString(w, "data: [DONE]\n\n")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","model":"gpt-test","choices":[{"message":{"role":"assistant","content":`+string(chunk)+`},"finish_reason":"stop"}]}`)
	}))
	t.Cleanup(server.Close)
	return server
}

// isolateEnv points the CLI at server and clears provider variables.
func isolateEnv(t *testing.T, server *httptest.Server) {
	t.Helper()
	for _, key := range []string{"AISTREAM_PROVIDER", "AISTREAM_MODEL", "AISTREAM_OBSERVER", "AISTREAM_CACHE_ENABLED", "AISTREAM_TRACER_ENABLED", "AISTREAM_LOG_OUTPUT"} {
		t.Setenv(key, "")
	}
	t.Setenv("AISTREAM_API_KEY", "test-key")
	t.Setenv("AISTREAM_BASE_URL", server.URL)
	t.Setenv("AISTREAM_LOG_LEVEL", "error")
	t.Setenv("AISTREAM_RETRY_MAX_RETRIES", "")
}

// ========== chat command tests ==========

func TestChat_StreamsToStdout(t *testing.T) {
	var body map[string]any
	server := fakeOpenAI(t, "Four.", &body)
	isolateEnv(t, server)

	out, err := runCLI(t, "", "chat", "--model", "gpt-test", "--temperature", "0.3", "What", "is", "2+2?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Four.\n" {
		t.Errorf("stdout = %q, want %q", out, "Four.\n")
	}
	if body["model"] != "gpt-test" || body["temperature"] != 0.3 {
		t.Errorf("unexpected request body %v", body)
	}
	messages, _ := body["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %v", body["messages"])
	}
	if first, _ := messages[0].(map[string]any); first["content"] != "What is 2+2?" {
		t.Errorf("unexpected message %v", first)
	}
}

func TestChat_NoStreamAndStdinPrompt(t *testing.T) {
	var body map[string]any
	server := fakeOpenAI(t, "Hello back", &body)
	isolateEnv(t, server)

	out, err := runCLI(t, "  hello from stdin \n", "chat", "--no-stream", "--system", "be brief")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Hello back\n" {
		t.Errorf("stdout = %q", out)
	}
	if stream, _ := body["stream"].(bool); stream {
		t.Error("--no-stream must not request a stream")
	}
	if messages, _ := body["messages"].([]any); len(messages) != 2 {
		t.Errorf("expected system and user messages, got %v", body["messages"])
	}
}

func TestChat_JSONOutput(t *testing.T) {
	server := fakeOpenAI(t, "Sure:\n```json\n{\"answer\": 4,}\n```", nil)
	isolateEnv(t, server)

	out, err := runCLI(t, "", "chat", "--json", "sum?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil || decoded["answer"] != float64(4) {
		t.Errorf("unexpected JSON output %q (%v)", out, err)
	}
}

func TestChat_EmptyPrompt(t *testing.T) {
	server := fakeOpenAI(t, "unused", nil)
	isolateEnv(t, server)

	if _, err := runCLI(t, "   ", "chat"); err == nil || !strings.Contains(err.Error(), "empty prompt") {
		t.Errorf("expected an empty prompt error, got %v", err)
	}
}

func TestChat_ProviderErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	}))
	t.Cleanup(server.Close)
	isolateEnv(t, server)
	t.Setenv("AISTREAM_RETRY_MAX_RETRIES", "0")

	_, err := runCLI(t, "", "chat", "hi")
	if err == nil || !strings.Contains(err.Error(), "Incorrect API key") {
		t.Errorf("expected the provider message, got %v", err)
	}
}

func TestChat_InvalidProviderFlag(t *testing.T) {
	server := fakeOpenAI(t, "unused", nil)
	isolateEnv(t, server)

	if _, err := runCLI(t, "", "chat", "--provider", "cohere", "hi"); err == nil || !strings.Contains(err.Error(), "provider.name") {
		t.Errorf("expected a validation error, got %v", err)
	}
}

// ========== wiring tests ==========

func TestNewMiddleware_Selection(t *testing.T) {
	cfg := config.Defaults()
	if got := len(newMiddleware(cfg, nil)); got != 2 {
		t.Errorf("defaults: expected timeout and retry, got %d middlewares", got)
	}

	cfg.Cache.Enabled = true
	cfg.CircuitBreaker.Enabled = true
	cfg.RateLimit.RequestsPerSecond = 5
	cfg.Logger.Middleware = "minimal"
	if got := len(newMiddleware(cfg, nil)); got != 6 {
		t.Errorf("all enabled: expected 6 middlewares, got %d", got)
	}
}

func TestNewObserver(t *testing.T) {
	if newObserver("none", nil) != nil {
		t.Error("none must disable observability")
	}
	if newObserver("slog", nil) == nil || newObserver("otel", nil) == nil {
		t.Error("slog and otel must build an observer")
	}
}

func TestNewAdapter(t *testing.T) {
	for _, name := range []string{"openai", "anthropic", "gemini"} {
		adapter, err := newAdapter(config.ProviderConfig{Name: name, APIKey: "k"})
		if err != nil || adapter.Name() != name {
			t.Errorf("newAdapter(%q) = %v, %v", name, adapter, err)
		}
	}
	if _, err := newAdapter(config.ProviderConfig{Name: "cohere"}); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}

// ========== version command tests ==========

func TestVersion_Formats(t *testing.T) {
	out, err := runCLI(t, "", "version", "-o", "short")
	if err != nil || strings.TrimSpace(out) != version {
		t.Errorf("short: %q, %v", out, err)
	}

	out, err = runCLI(t, "", "version", "-o", "json")
	var info versionInfo
	if err != nil || json.Unmarshal([]byte(out), &info) != nil || info.GoVersion == "" {
		t.Errorf("json: %q, %v", out, err)
	}

	if _, err := runCLI(t, "", "version", "-o", "yaml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
