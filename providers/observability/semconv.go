package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across the client, its middleware and the backends.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the adapter name (e.g., "openai", "anthropic", "gemini")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier
	AttrLLMModel = "llm.model"

	// AttrLLMResponseID is the unique response identifier from the provider
	AttrLLMResponseID = "llm.response.id"

	// AttrLLMFinishReason is the normalized reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMStreaming is true for streamed calls
	AttrLLMStreaming = "llm.streaming"
)

// --- Token Usage Attributes ---

const (
	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- Not a credential, token refers to LLM tokens
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- Not a credential, token refers to LLM tokens
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Request/Response Attributes ---

const (
	// AttrRequestMessagesCount is the number of messages in the request
	AttrRequestMessagesCount = "request.messages_count"

	// AttrResponseDeltas is the number of deltas delivered on a stream
	AttrResponseDeltas = "response.deltas"

	// AttrResponseContent is a truncated preview of the assembled content
	AttrResponseContent = "response.content"
)

// --- HTTP Attributes ---

const (
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPURL        = "http.url"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrErrorKind is a short classification such as "rate_limited" or "timeout"
	AttrErrorKind = "error.kind"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	SpanClientStream   = "client.stream"
	SpanClientComplete = "client.complete"
)

// --- Event Names ---

const (
	// EventFirstDelta marks the arrival of the first delta on a stream
	EventFirstDelta = "llm.first_delta"
)

// --- Metric Names ---

const (
	MetricClientRequestCount     = "aistream.client.request.count"
	MetricClientRequestDuration  = "aistream.client.request.duration"
	MetricClientTimeToFirstDelta = "aistream.client.time_to_first_delta"
	MetricClientTokensTotal      = "aistream.client.tokens.total"
	MetricClientTokensPrompt     = "aistream.client.tokens.prompt"
	MetricClientTokensCompletion = "aistream.client.tokens.completion"
)
