package gemini

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/leofalp/aistream/core/transport"
	"github.com/leofalp/aistream/providers/ai"
)

const (
	providerName = "gemini"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
)

// Adapter implements the ai.Adapter interface for Google's Gemini API.
type Adapter struct {
	apiKey       string
	baseURL      string
	defaultModel string
}

// New creates a new Gemini adapter with default values from environment.
func New() *Adapter {
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Adapter{
		apiKey:       os.Getenv("GEMINI_API_KEY"),
		baseURL:      baseURL,
		defaultModel: defaultModel,
	}
}

// WithAPIKey sets the API key for the adapter.
func (a *Adapter) WithAPIKey(apiKey string) *Adapter {
	a.apiKey = apiKey
	return a
}

// WithBaseURL sets the base URL for the API.
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
		headers.Set("x-goog-api-key", a.apiKey)
	}
	return headers
}

// BuildRequest implements ai.Adapter. The model is part of the URL path.
func (a *Adapter) BuildRequest(messages []ai.Message, options ai.ChatOptions) (*transport.Request, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", providerName, ai.ErrMissingAPIKey)
	}

	model := options.Model
	if model == "" {
		model = a.defaultModel
	}

	body, err := json.Marshal(requestToGemini(messages, options))
	if err != nil {
		return nil, fmt.Errorf("error marshaling %s request: %w", providerName, err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, url.PathEscape(model))
	headers := a.DefaultHeaders()
	if options.Stream {
		endpoint = fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", a.baseURL, url.PathEscape(model))
		headers.Set("Accept", "text/event-stream")
	}

	return &transport.Request{
		Method: http.MethodPost,
		URL:    endpoint,
		Header: headers,
		Body:   body,
	}, nil
}

var _ ai.Adapter = (*Adapter)(nil)
