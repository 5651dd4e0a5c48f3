package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/leofalp/aistream/core/transport"
	"github.com/leofalp/aistream/providers/ai"
)

const (
	providerName = "openai"

	// defaultBaseURL is the canonical base URL for the OpenAI API.
	defaultBaseURL = "https://api.openai.com/v1"

	// chatCompletionsEndpoint is the path of the chat completions endpoint.
	chatCompletionsEndpoint = "/chat/completions"

	// defaultModel is used when neither the options nor the adapter name a model.
	defaultModel = "gpt-4.1-mini"
)

// Adapter implements [ai.Adapter] for OpenAI-compatible chat completions.
type Adapter struct {
	apiKey       string
	baseURL      string
	defaultModel string
}

// New returns an Adapter initialized from environment variables:
//   - OPENAI_API_KEY: API key for authentication
//   - OPENAI_API_BASE_URL: Base URL for API (optional, defaults to OpenAI's API)
func New() *Adapter {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Adapter{
		apiKey:       os.Getenv("OPENAI_API_KEY"),
		baseURL:      baseURL,
		defaultModel: defaultModel,
	}
}

// WithAPIKey sets the API key and returns the adapter for chaining.
func (a *Adapter) WithAPIKey(apiKey string) *Adapter {
	a.apiKey = apiKey
	return a
}

// WithBaseURL overrides the API base URL (proxies, compatible servers, tests).
func (a *Adapter) WithBaseURL(baseURL string) *Adapter {
	a.baseURL = baseURL
	return a
}

// WithDefaultModel sets the model used when options do not name one.
func (a *Adapter) WithDefaultModel(model string) *Adapter {
	a.defaultModel = model
	return a
}

// Name implements ai.Adapter.
func (a *Adapter) Name() string { return providerName }

// DefaultHeaders implements ai.Adapter.
func (a *Adapter) DefaultHeaders() http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		headers.Set("Authorization", "Bearer "+a.apiKey)
	}
	return headers
}

// BuildRequest implements ai.Adapter.
func (a *Adapter) BuildRequest(messages []ai.Message, options ai.ChatOptions) (*transport.Request, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", providerName, ai.ErrMissingAPIKey)
	}

	model := options.Model
	if model == "" {
		model = a.defaultModel
	}

	body, err := json.Marshal(toChatCompletionRequest(model, messages, options))
	if err != nil {
		return nil, fmt.Errorf("error marshaling %s request: %w", providerName, err)
	}

	headers := a.DefaultHeaders()
	if options.Stream {
		headers.Set("Accept", "text/event-stream")
	} else {
		headers.Set("Accept", "application/json")
	}

	return &transport.Request{
		Method: http.MethodPost,
		URL:    a.baseURL + chatCompletionsEndpoint,
		Header: headers,
		Body:   body,
	}, nil
}

var _ ai.Adapter = (*Adapter)(nil)
