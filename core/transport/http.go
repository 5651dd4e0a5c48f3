package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/leofalp/aistream/internal/utils"
)

// DefaultChunkSize is the read buffer size for streamed bodies. A read
// returns as soon as any bytes are available, so chunks are at most this
// large and usually end on the line the server just flushed.
const DefaultChunkSize = 1024

// errStreamConsumed is returned when a StreamResponse is ranged twice.
var errStreamConsumed = errors.New("stream body already consumed")

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	client           *http.Client
	chunkSize        int
	maxErrorBodySize int64
}

// Option configures an HTTPTransport.
type Option func(*httpTransportConfig)

type httpTransportConfig struct {
	client           *http.Client
	middlewares      []Middleware
	chunkSize        int
	maxErrorBodySize int64
}

// WithHTTPClient sets the underlying client. Its Timeout should be zero for
// streaming use; bound streams with a context deadline instead.
func WithHTTPClient(client *http.Client) Option {
	return func(c *httpTransportConfig) {
		c.client = client
	}
}

// WithMiddleware appends RoundTripper middlewares. The first one is outermost.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(c *httpTransportConfig) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}

// WithChunkSize overrides DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(c *httpTransportConfig) {
		c.chunkSize = size
	}
}

// WithMaxErrorBodySize caps how much of a non-2xx body is kept.
func WithMaxErrorBodySize(size int64) Option {
	return func(c *httpTransportConfig) {
		c.maxErrorBodySize = size
	}
}

// New creates an HTTPTransport. Without WithHTTPClient a pooled client from
// NewHTTPClient is used.
func New(opts ...Option) *HTTPTransport {
	cfg := &httpTransportConfig{
		chunkSize:        DefaultChunkSize,
		maxErrorBodySize: utils.MaxResponseBodySize,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := cfg.client
	if client == nil {
		client = NewHTTPClient(PoolConfig{})
	}
	if len(cfg.middlewares) > 0 {
		wrapped := *client
		wrapped.Transport = Chain(client.Transport, cfg.middlewares...)
		client = &wrapped
	}
	if cfg.chunkSize <= 0 {
		cfg.chunkSize = DefaultChunkSize
	}

	return &HTTPTransport{
		client:           client,
		chunkSize:        cfg.chunkSize,
		maxErrorBodySize: cfg.maxErrorBodySize,
	}
}

// Fetch implements Transport.
func (t *HTTPTransport) Fetch(ctx context.Context, request *Request) (*Response, error) {
	response, err := t.send(ctx, request, "fetch")
	if err != nil {
		return nil, err
	}
	defer utils.CloseWithLog(response.Body)

	body, err := utils.ReadLimited(response.Body, utils.MaxResponseBodySize)
	if err != nil {
		return nil, newTransportError(ctx, "read", request.URL, err)
	}

	return &Response{
		StatusCode: response.StatusCode,
		Header:     response.Header,
		Body:       body,
	}, nil
}

// Stream implements Transport. The returned chunks yield copies of each read,
// so callers may retain them. Cancelling ctx aborts a blocked read, and the
// body is closed when iteration stops for any reason.
func (t *HTTPTransport) Stream(ctx context.Context, request *Request) (*StreamResponse, error) {
	response, err := t.send(ctx, request, "stream")
	if err != nil {
		return nil, err
	}

	var consumed atomic.Bool
	chunks := func(yield func([]byte, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(nil, errStreamConsumed)
			return
		}
		defer utils.CloseWithLog(response.Body)

		buffer := make([]byte, t.chunkSize)
		for {
			n, readErr := response.Body.Read(buffer)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buffer[:n])
				if !yield(chunk, nil) {
					return
				}
			}
			if errors.Is(readErr, io.EOF) {
				return
			}
			if readErr != nil {
				yield(nil, newTransportError(ctx, "read", request.URL, readErr))
				return
			}
		}
	}

	return &StreamResponse{
		StatusCode: response.StatusCode,
		Header:     response.Header,
		Chunks:     chunks,
	}, nil
}

// send executes the request. On success the body is left open; on a non-2xx
// status it is read (bounded), closed, and returned inside an HTTPError.
func (t *HTTPTransport) send(ctx context.Context, request *Request, op string) (*http.Response, error) {
	if err := validateURL(request.URL); err != nil {
		return nil, &TransportError{Kind: KindInvalidURL, Op: op, URL: request.URL, Err: err}
	}

	method := request.Method
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if request.Body != nil {
		body = bytes.NewReader(request.Body)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, method, request.URL, body)
	if err != nil {
		return nil, &TransportError{Kind: KindInvalidURL, Op: op, URL: request.URL, Err: err}
	}
	for key, values := range request.Header {
		for _, value := range values {
			httpRequest.Header.Add(key, value)
		}
	}

	response, err := t.client.Do(httpRequest)
	if err != nil {
		return nil, newTransportError(ctx, op, request.URL, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer utils.CloseWithLog(response.Body)
		errorBody, readErr := utils.ReadLimited(response.Body, t.maxErrorBodySize)
		if readErr != nil {
			return nil, newTransportError(ctx, "read", request.URL, readErr)
		}
		return nil, &HTTPError{
			Method:     method,
			URL:        request.URL,
			StatusCode: response.StatusCode,
			Header:     response.Header,
			Body:       errorBody,
		}
	}

	return response, nil
}

var _ Transport = (*HTTPTransport)(nil)
