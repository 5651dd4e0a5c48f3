package client

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/core/transport"
	"github.com/leofalp/aistream/providers/ai"
	"github.com/leofalp/aistream/providers/ai/anthropic"
	"github.com/leofalp/aistream/providers/ai/gemini"
	"github.com/leofalp/aistream/providers/ai/openai"
)

// ========== Stub transport ==========

// stubTransport serves canned responses and counts how many chunks the
// client pulled from the stream.
type stubTransport struct {
	chunks       []string
	streamErr    error
	fetchBody    string
	fetchErr     error
	pulled       atomic.Int32
	lastRequest  *transport.Request
	streamCalls  atomic.Int32
	completeCall atomic.Int32
}

func (s *stubTransport) Fetch(_ context.Context, request *transport.Request) (*transport.Response, error) {
	s.completeCall.Add(1)
	s.lastRequest = request
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return &transport.Response{StatusCode: http.StatusOK, Body: []byte(s.fetchBody)}, nil
}

func (s *stubTransport) Stream(_ context.Context, request *transport.Request) (*transport.StreamResponse, error) {
	s.streamCalls.Add(1)
	s.lastRequest = request
	if s.streamErr != nil {
		return nil, s.streamErr
	}

	var chunks iter.Seq2[[]byte, error] = func(yield func([]byte, error) bool) {
		for _, chunk := range s.chunks {
			s.pulled.Add(1)
			if !yield([]byte(chunk), nil) {
				return
			}
		}
	}
	return &transport.StreamResponse{StatusCode: http.StatusOK, Chunks: chunks}, nil
}

func newStubClient(t *testing.T, stub *stubTransport, opts ...Option) *Client {
	t.Helper()
	c, err := New(openai.New().WithAPIKey("test-key"), append([]Option{WithTransport(stub)}, opts...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

var twoPlusTwo = []ai.Message{ai.UserMessage("2+2?")}

// ========== New tests ==========

func TestNew_RequiresAdapter(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected an error for a nil adapter")
	}
}

func TestNew_RejectsEmptyMiddleware(t *testing.T) {
	_, err := New(openai.New(), WithMiddleware(MiddlewareConfig{}))
	if err == nil || !strings.Contains(err.Error(), "index 0") {
		t.Fatalf("expected an index error, got %v", err)
	}
}

// ========== Stream tests ==========

// TestChat_OpenAIEndToEnd runs the canonical three-event OpenAI stream.
func TestChat_OpenAIEndToEnd(t *testing.T) {
	stub := &stubTransport{chunks: []string{
		"data: {\"choices\":[{\"delta\":{\"content\":\"4\"}}]}\n\n",
		"data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n",
		"data: [DONE]\n\n",
	}}

	response, err := newStubClient(t, stub).Chat(context.Background(), twoPlusTwo, ai.ChatOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content() != "4" || response.Message.Role != ai.RoleAssistant {
		t.Errorf("unexpected message %+v", response.Message)
	}
	if response.FinishReason != ai.FinishReasonStop {
		t.Errorf("expected stop, got %q", response.FinishReason)
	}
}

// TestStream_StopsAtTerminalDelta verifies nothing is pulled after the chunk
// carrying the terminal event.
func TestStream_StopsAtTerminalDelta(t *testing.T) {
	stub := &stubTransport{chunks: []string{
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n",
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"length\"}]}\n\n",
		"data: [DONE]\n\n",
		"data: {\"choices\":[{\"delta\":{\"content\":\"never\"}}]}\n\n",
	}}

	stream, err := newStubClient(t, stub).Stream(context.Background(), twoPlusTwo, ai.ChatOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var deltas []ai.ChatDelta
	for delta, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		deltas = append(deltas, delta)
	}

	if len(deltas) != 2 || !deltas[1].IsFinished() || deltas[1].FinishReason != ai.FinishReasonLength {
		t.Fatalf("unexpected deltas %+v", deltas)
	}
	if got := stub.pulled.Load(); got != 2 {
		t.Errorf("expected 2 chunks pulled, got %d", got)
	}
}

// TestStream_ConcatenationAcrossSplitChunks verifies assembly when SSE records
// are split at arbitrary byte positions.
func TestStream_ConcatenationAcrossSplitChunks(t *testing.T) {
	raw := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\r\n\r\n" +
		": keep-alive\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"c\"}}]}\n\n" +
		"data: [DONE]\n\n"

	for _, size := range []int{1, 3, 7, 64, len(raw)} {
		t.Run(fmt.Sprintf("chunk size %d", size), func(t *testing.T) {
			var chunks []string
			for start := 0; start < len(raw); start += size {
				chunks = append(chunks, raw[start:min(start+size, len(raw))])
			}

			response, err := newStubClient(t, &stubTransport{chunks: chunks}).Chat(context.Background(), twoPlusTwo, ai.ChatOptions{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if response.Content() != "abc" {
				t.Errorf("expected %q, got %q", "abc", response.Content())
			}
		})
	}
}

// TestStream_IncompleteStream verifies an upstream end without a terminal
// delta is reported.
func TestStream_IncompleteStream(t *testing.T) {
	stub := &stubTransport{chunks: []string{
		"data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n",
	}}

	response, err := newStubClient(t, stub).Chat(context.Background(), twoPlusTwo, ai.ChatOptions{})
	if !errors.Is(err, ai.ErrIncompleteStream) {
		t.Fatalf("expected ErrIncompleteStream, got %v", err)
	}
	if response == nil || response.Content() != "partial" {
		t.Errorf("expected the partial content, got %+v", response)
	}
}

// TestStream_ParseErrorPropagates verifies malformed JSON fails the stream.
func TestStream_ParseErrorPropagates(t *testing.T) {
	stub := &stubTransport{chunks: []string{"data: {\"choices\":[\n\n"}}

	_, err := newStubClient(t, stub).Chat(context.Background(), twoPlusTwo, ai.ChatOptions{})
	var parseErr *ai.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

// TestStream_LineTooLong verifies decoder options reach the decoder.
func TestStream_LineTooLong(t *testing.T) {
	stub := &stubTransport{chunks: []string{"data: " + strings.Repeat("x", 100)}}
	c := newStubClient(t, stub, WithDecoderOptions(sse.WithMaxLineSize(32)))

	_, err := c.Chat(context.Background(), twoPlusTwo, ai.ChatOptions{})
	if !errors.Is(err, sse.ErrLineTooLong) {
		t.Fatalf("expected ErrLineTooLong, got %v", err)
	}
}

// TestStream_InStreamAPIErrorIsClassified verifies provider error events get a Kind.
func TestStream_InStreamAPIErrorIsClassified(t *testing.T) {
	stub := &stubTransport{chunks: []string{
		"data: {\"error\":{\"message\":\"slow down\",\"type\":\"requests\",\"code\":\"rate_limit_exceeded\"}}\n\n",
	}}

	_, err := newStubClient(t, stub).Chat(context.Background(), twoPlusTwo, ai.ChatOptions{})
	if !errors.Is(err, ai.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

// TestStream_ForcesStreamFlagOnCopy verifies the caller's options are untouched.
func TestStream_ForcesStreamFlagOnCopy(t *testing.T) {
	stub := &stubTransport{chunks: []string{"data: [DONE]\n\n"}}
	options := ai.ChatOptions{Stop: []string{"x"}}

	if _, err := newStubClient(t, stub, WithDefaultModel("gpt-test")).Chat(context.Background(), twoPlusTwo, options); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if options.Stream || options.Model != "" {
		t.Errorf("caller options were mutated: %+v", options)
	}
	body := string(stub.lastRequest.Body)
	if !strings.Contains(body, `"stream":true`) || !strings.Contains(body, `"model":"gpt-test"`) {
		t.Errorf("unexpected wire body %s", body)
	}
}

// TestStream_BuildRequestErrorIsReturned verifies adapter failures surface before streaming.
func TestStream_BuildRequestErrorIsReturned(t *testing.T) {
	stub := &stubTransport{}
	c, err := New(openai.New().WithAPIKey(""), WithTransport(stub))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.Stream(context.Background(), twoPlusTwo, ai.ChatOptions{}); !errors.Is(err, ai.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if stub.streamCalls.Load() != 0 {
		t.Error("transport must not be called")
	}
}

// ========== Complete tests ==========

func TestComplete_ParsesResponse(t *testing.T) {
	stub := &stubTransport{fetchBody: `{"id":"c1","choices":[{"message":{"role":"assistant","content":"4"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1}}`}

	response, err := newStubClient(t, stub).Complete(context.Background(), twoPlusTwo, ai.ChatOptions{Model: "gpt-x", Stream: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content() != "4" || response.Usage.TotalTokens() != 4 {
		t.Errorf("unexpected response %+v", response)
	}
	if response.Model != "gpt-x" {
		t.Errorf("expected the request model to fill in, got %q", response.Model)
	}
	if strings.Contains(string(stub.lastRequest.Body), `"stream":true`) {
		t.Error("Complete must send a non-streaming request")
	}
}

// ========== HTTP end-to-end tests ==========

// TestClient_ProvidersOverHTTP exercises each adapter against a real HTTP server.
func TestClient_ProvidersOverHTTP(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		adapter func(baseURL string) ai.Adapter
		path    string
	}{
		{
			name: "openai",
			body: "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":\"Hi\"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\" there\"},\"finish_reason\":\"stop\"}],\"usage\":{\"prompt_tokens\":5,\"completion_tokens\":2}}\n\n" +
				"data: [DONE]\n\n",
			adapter: func(baseURL string) ai.Adapter { return openai.New().WithAPIKey("k").WithBaseURL(baseURL) },
			path:    "/chat/completions",
		},
		{
			name: "anthropic",
			body: "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"role\":\"assistant\",\"usage\":{\"input_tokens\":5,\"output_tokens\":0}}}\n\n" +
				"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"Hi\"}}\n\n" +
				"event: ping\ndata: {\"type\":\"ping\"}\n\n" +
				"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\" there\"}}\n\n" +
				"event: message_delta\ndata: {\"type\":\"message_delta\",\"delta\":{\"stop_reason\":\"end_turn\"},\"usage\":{\"input_tokens\":5,\"output_tokens\":2}}\n\n" +
				"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n",
			adapter: func(baseURL string) ai.Adapter { return anthropic.New().WithAPIKey("k").WithBaseURL(baseURL) },
			path:    "/messages",
		},
		{
			name: "gemini",
			body: "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"Hi\"}]}}]}\r\n\r\n" +
				"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\" there\"}]},\"finishReason\":\"STOP\"}],\"usageMetadata\":{\"promptTokenCount\":5,\"candidatesTokenCount\":2}}\r\n\r\n",
			adapter: func(baseURL string) ai.Adapter { return gemini.New().WithAPIKey("k").WithBaseURL(baseURL) },
			path:    "/models/gemini-test:streamGenerateContent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.path {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "text/event-stream")
				for _, line := range strings.SplitAfter(tt.body, "\n\n") {
					fmt.Fprint(w, line)
					w.(http.Flusher).Flush()
				}
			}))
			defer server.Close()

			c, err := New(tt.adapter(server.URL), WithTransport(transport.New(transport.WithHTTPClient(server.Client()))))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			response, err := c.Chat(context.Background(), []ai.Message{ai.UserMessage("hello")}, ai.ChatOptions{Model: "gemini-test"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if response.Content() != "Hi there" {
				t.Errorf("expected %q, got %q", "Hi there", response.Content())
			}
			if response.FinishReason != ai.FinishReasonStop {
				t.Errorf("expected stop, got %q", response.FinishReason)
			}
			if response.Usage == nil || response.Usage.PromptTokens != 5 || response.Usage.CompletionTokens != 2 {
				t.Errorf("unexpected usage %+v", response.Usage)
			}
		})
	}
}

// TestClient_ConcurrentStreamsAreIndependent runs many streams on one client.
func TestClient_ConcurrentStreamsAreIndependent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Stream")
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{id, "-", id} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", part)
			w.(http.Flusher).Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	group, ctx := errgroup.WithContext(context.Background())
	for i := range 8 {
		group.Go(func() error {
			id := fmt.Sprintf("s%d", i)
			httpTransport := transport.New(
				transport.WithHTTPClient(server.Client()),
				transport.WithMiddleware(transport.Headers(http.Header{"X-Stream": []string{id}})),
			)
			c, err := New(openai.New().WithAPIKey("k").WithBaseURL(server.URL), WithTransport(httpTransport))
			if err != nil {
				return err
			}

			response, err := c.Chat(ctx, twoPlusTwo, ai.ChatOptions{})
			if err != nil {
				return err
			}
			if want := id + "-" + id; response.Content() != want {
				return fmt.Errorf("stream %s: expected %q, got %q", id, want, response.Content())
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatal(err)
	}
}

// TestClient_SharedClientConcurrentStreams verifies one Client serves parallel streams.
func TestClient_SharedClientConcurrentStreams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"},\"finish_reason\":\"stop\"}]}\n\n")
	}))
	defer server.Close()

	c, err := New(openai.New().WithAPIKey("k").WithBaseURL(server.URL), WithTransport(transport.New(transport.WithHTTPClient(server.Client()))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var group errgroup.Group
	for range 16 {
		group.Go(func() error {
			response, err := c.Chat(context.Background(), twoPlusTwo, ai.ChatOptions{})
			if err != nil {
				return err
			}
			if response.Content() != "ok" {
				return fmt.Errorf("unexpected content %q", response.Content())
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatal(err)
	}
}

// ========== ParseResponseAs tests ==========

func TestParseResponseAs(t *testing.T) {
	type answer struct {
		Value int `json:"value"`
	}

	got, err := ParseResponseAs[answer](&ai.ChatResponse{Message: ai.AssistantMessage("Sure: ```json\n{\"value\": 4,}\n```")})
	if err != nil || got.Value != 4 {
		t.Errorf("got %+v, %v", got, err)
	}

	if _, err := ParseResponseAs[answer](nil); err == nil {
		t.Error("expected an error for a nil response")
	}
}
