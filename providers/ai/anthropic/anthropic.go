package anthropic

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/leofalp/aistream/core/transport"
	"github.com/leofalp/aistream/providers/ai"
)

const (
	providerName = "anthropic"

	// defaultBaseURL is the canonical base URL for Anthropic's Messages API.
	defaultBaseURL = "https://api.anthropic.com/v1"

	// messagesEndpoint is the path for the Messages API endpoint.
	messagesEndpoint = "/messages"

	// anthropicVersion is the required anthropic-version header value.
	// Anthropic uses this to version-lock response formats independently of the URL.
	anthropicVersion = "2023-06-01"

	// defaultMaxTokens is sent when options leave MaxTokens unset; the API
	// rejects requests without max_tokens.
	defaultMaxTokens = 4096

	defaultModel = "claude-sonnet-4-5"
)

// Adapter implements [ai.Adapter] for Anthropic's Messages API. Use [New] to
// construct a ready-to-use instance.
type Adapter struct {
	apiKey       string
	baseURL      string
	defaultModel string
}

// New returns an Adapter initialized from environment variables. It reads
// ANTHROPIC_API_KEY for authentication and ANTHROPIC_API_BASE_URL for the
// endpoint base (defaulting to https://api.anthropic.com/v1 when unset).
func New() *Adapter {
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Adapter{
		apiKey:       os.Getenv("ANTHROPIC_API_KEY"),
		baseURL:      baseURL,
		defaultModel: defaultModel,
	}
}

// WithAPIKey sets the API key used for authenticating requests and returns the
// adapter so calls can be chained. It overrides the value read from ANTHROPIC_API_KEY.
func (a *Adapter) WithAPIKey(apiKey string) *Adapter {
	a.apiKey = apiKey
	return a
}

// WithBaseURL overrides the API base URL and returns the adapter so calls can
// be chained. Use this when targeting a proxy or local testing endpoint.
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

// DefaultHeaders implements ai.Adapter. Anthropic authenticates with
// x-api-key rather than a bearer token.
func (a *Adapter) DefaultHeaders() http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("anthropic-version", anthropicVersion)
	if a.apiKey != "" {
		headers.Set("x-api-key", a.apiKey)
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

	body, err := json.Marshal(requestToAnthropic(model, messages, options))
	if err != nil {
		return nil, fmt.Errorf("error marshaling %s request: %w", providerName, err)
	}

	headers := a.DefaultHeaders()
	if options.Stream {
		headers.Set("Accept", "text/event-stream")
	}

	return &transport.Request{
		Method: http.MethodPost,
		URL:    a.baseURL + messagesEndpoint,
		Header: headers,
		Body:   body,
	}, nil
}

var _ ai.Adapter = (*Adapter)(nil)
