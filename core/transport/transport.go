package transport

import (
	"context"
	"iter"
	"net/http"
)

// Request is a fully-built HTTP request ready to send.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully-read non-streaming response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StreamResponse is a successful (2xx) response whose body is consumed
// incrementally. Chunks must be ranged over exactly once; the body is closed
// when the range ends, whether by exhaustion, error, or an early break.
type StreamResponse struct {
	StatusCode int
	Header     http.Header
	Chunks     iter.Seq2[[]byte, error]
}

// Transport executes requests.
type Transport interface {
	// Fetch sends the request and reads the full body.
	Fetch(ctx context.Context, request *Request) (*Response, error)
	// Stream sends the request and returns once headers are received.
	Stream(ctx context.Context, request *Request) (*StreamResponse, error)
}
