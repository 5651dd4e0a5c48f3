package ai

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel kinds for provider failures. Match them with errors.Is; the
// concrete error is an *APIError carrying details.
var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrRateLimited           = errors.New("rate limited")
	ErrModelNotFound         = errors.New("model not found")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrContextLengthExceeded = errors.New("context length exceeded")
)

// ErrMissingAPIKey is returned by adapters asked to build a request without
// credentials.
var ErrMissingAPIKey = errors.New("API key is not set")

// ErrIncompleteStream is returned when a stream ends before the provider sent
// its terminal event.
var ErrIncompleteStream = errors.New("stream ended without a finish event")

// APIError is a failure reported by the provider, either as a non-2xx
// response or as an error event inside a stream.
type APIError struct {
	Provider   string
	StatusCode int    // 0 for in-stream errors
	Code       string // provider error code or type, when given
	Message    string
	Body       string        // raw (or rendered) error body, when available
	RetryAfter time.Duration // parsed Retry-After, for rate limits
	Kind       error         // one of the sentinels above, or nil
}

func (e *APIError) Error() string {
	var prefix string
	if e.Kind != nil {
		prefix = e.Kind.Error() + ": "
	}

	detail := e.Message
	if detail == "" {
		detail = e.Body
	}

	switch {
	case e.StatusCode != 0 && e.Code != "":
		return fmt.Sprintf("%s api error %s(status %d, code %s): %s", e.Provider, prefix, e.StatusCode, e.Code, detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s api error %s(status %d): %s", e.Provider, prefix, e.StatusCode, detail)
	case e.Code != "":
		return fmt.Sprintf("%s api error %s(code %s): %s", e.Provider, prefix, e.Code, detail)
	default:
		return fmt.Sprintf("%s api error %s%s", e.Provider, prefix, detail)
	}
}

// Unwrap exposes Kind so errors.Is(err, ErrRateLimited) works.
func (e *APIError) Unwrap() error { return e.Kind }

// ParseError reports a stream or response payload that could not be decoded.
type ParseError struct {
	Provider string
	Fragment string // offending payload, truncated
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse payload %q: %v", e.Provider, e.Fragment, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// maxFragmentLength bounds how much of a bad payload is kept in a ParseError.
const maxFragmentLength = 200

// NewParseError builds a ParseError, truncating the fragment.
func NewParseError(provider, fragment string, err error) *ParseError {
	if len(fragment) > maxFragmentLength {
		fragment = fragment[:maxFragmentLength] + "..."
	}
	return &ParseError{Provider: provider, Fragment: fragment, Err: err}
}

// IsRetryable reports whether err is worth retrying: rate limits and 5xx
// responses.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 500
}

// RetryAfterOf returns the server-requested delay carried by err, if any.
func RetryAfterOf(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}
