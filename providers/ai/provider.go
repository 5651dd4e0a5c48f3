package ai

import (
	"net/http"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/core/transport"
)

// Adapter converts between the provider-agnostic types of this package and
// one provider's HTTP wire format. Adapters are stateless between calls and
// safe for concurrent use.
type Adapter interface {
	// Name is the short provider name ("openai", "anthropic", "gemini").
	Name() string

	// DefaultHeaders returns the headers sent with every request, including
	// authentication.
	DefaultHeaders() http.Header

	// BuildRequest produces the HTTP request for messages and options. The
	// Stream flag of options selects the streaming or non-streaming endpoint.
	BuildRequest(messages []Message, options ChatOptions) (*transport.Request, error)

	// ParseStreamEvent maps one SSE event to a delta. A nil delta with a nil
	// error means the event carries nothing for the caller (pings, bookkeeping
	// events). Malformed payloads return a *ParseError; provider-reported
	// failures return an *APIError.
	ParseStreamEvent(event sse.Event) (*ChatDelta, error)

	// ParseResponse decodes a non-streaming response body.
	ParseResponse(body []byte) (*ChatResponse, error)
}
