package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/leofalp/aistream/core/transport"
	"github.com/leofalp/aistream/providers/ai"
)

// errorEnvelope covers the error bodies of all three providers:
//
//	OpenAI:    {"error":{"message":"...","type":"...","code":"..."}}
//	Anthropic: {"type":"error","error":{"type":"...","message":"..."}}
//	Gemini:    {"error":{"code":400,"message":"...","status":"..."}}
type errorEnvelope struct {
	Error *struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Status  string          `json:"status"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

// translateError maps *transport.HTTPError onto *ai.APIError. Everything else,
// including *transport.TransportError, is returned unchanged.
func (c *Client) translateError(err error) error {
	var httpErr *transport.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}

	apiErr := &ai.APIError{
		Provider:   c.adapter.Name(),
		StatusCode: httpErr.StatusCode,
		Body:       httpErr.BodyText(),
	}
	apiErr.Code, apiErr.Message = parseErrorEnvelope(httpErr.Body)

	switch httpErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		apiErr.Kind = ai.ErrUnauthorized
	case http.StatusTooManyRequests:
		apiErr.Kind = ai.ErrRateLimited
		apiErr.RetryAfter = httpErr.RetryAfter()
	case http.StatusNotFound:
		apiErr.Kind = ai.ErrModelNotFound
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		apiErr.Kind = ai.ErrInvalidRequest
		if isContextLengthError(apiErr.Code, apiErr.Message+" "+apiErr.Body) {
			apiErr.Kind = ai.ErrContextLengthExceeded
		}
	}
	return apiErr
}

// classify fills in the Kind of provider errors reported inside a stream or a
// 2xx body, where there is no status code to go by.
func (c *Client) classify(err error) error {
	var apiErr *ai.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != nil {
		return err
	}
	apiErr.Kind = kindFromCode(apiErr.Code, apiErr.Message)
	return err
}

// kindFromCode recognizes the error codes and types the providers use in
// stream error events.
func kindFromCode(code, message string) error {
	if isContextLengthError(code, message) {
		return ai.ErrContextLengthExceeded
	}
	switch strings.ToLower(code) {
	case "rate_limit_error", "rate_limit_exceeded", "resource_exhausted", "429":
		return ai.ErrRateLimited
	case "authentication_error", "permission_error", "invalid_api_key", "unauthenticated", "permission_denied", "401", "403":
		return ai.ErrUnauthorized
	case "not_found_error", "model_not_found", "not_found", "404":
		return ai.ErrModelNotFound
	case "invalid_request_error", "invalid_argument", "400":
		return ai.ErrInvalidRequest
	}
	return nil
}

// parseErrorEnvelope extracts the provider code and message from a JSON error
// body. The code is the most specific of code, type and status.
func parseErrorEnvelope(body []byte) (code, message string) {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return "", ""
	}
	detail := envelope.Error

	var textCode string
	var numericCode json.Number
	if len(detail.Code) > 0 {
		if json.Unmarshal(detail.Code, &textCode) != nil {
			_ = json.Unmarshal(detail.Code, &numericCode)
		}
	}

	for _, candidate := range []string{textCode, detail.Type, detail.Status, numericCode.String()} {
		if candidate != "" {
			return candidate, detail.Message
		}
	}
	return "", detail.Message
}

var contextLengthMarkers = []string{
	"context_length_exceeded",
	"context length",
	"context window",
	"maximum context",
	"prompt is too long",
	"too many tokens",
	"input token count",
	"exceeds the maximum number of tokens",
}

// isContextLengthError applies message heuristics, since no provider has a
// dedicated status for an oversized prompt.
func isContextLengthError(code, message string) bool {
	text := strings.ToLower(code + " " + message)
	for _, marker := range contextLengthMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// ErrorKind returns a short label for err, used in logs and metrics:
// "unauthorized", "rate_limited", "model_not_found", "invalid_request",
// "context_length_exceeded", "api_error", "parse_error", "incomplete_stream",
// a transport kind such as "timeout", or "other".
func ErrorKind(err error) string {
	var (
		apiErr       *ai.APIError
		parseErr     *ai.ParseError
		transportErr *transport.TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ai.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ai.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ai.ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, ai.ErrContextLengthExceeded):
		return "context_length_exceeded"
	case errors.Is(err, ai.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ai.ErrIncompleteStream):
		return "incomplete_stream"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &transportErr):
		return transportErr.Kind.String()
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "other"
	}
}
