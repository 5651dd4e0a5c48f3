package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/aistream/core/parse"
	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/core/transport"
	"github.com/leofalp/aistream/providers/ai"
	"github.com/leofalp/aistream/providers/observability"
)

// Client runs chat calls against one provider. It holds no per-call state, so
// a single Client may serve any number of concurrent calls.
type Client struct {
	adapter        ai.Adapter
	transport      transport.Transport
	defaultModel   string
	decoderOptions []sse.Option

	complete CompleteFunc
	stream   StreamFunc
}

type clientOptions struct {
	transport      transport.Transport
	middlewares    []MiddlewareConfig
	observer       observability.Provider
	defaultModel   string
	decoderOptions []sse.Option
}

// Option configures a Client.
type Option func(*clientOptions)

// WithTransport replaces the default HTTP transport.
func WithTransport(t transport.Transport) Option {
	return func(o *clientOptions) { o.transport = t }
}

// WithMiddleware appends middleware. The first entry across all calls is the
// outermost wrapper.
func WithMiddleware(middlewares ...MiddlewareConfig) Option {
	return func(o *clientOptions) { o.middlewares = append(o.middlewares, middlewares...) }
}

// WithObserver enables tracing, metrics and logs for every call. The
// observability layer wraps all other middleware.
func WithObserver(observer observability.Provider) Option {
	return func(o *clientOptions) { o.observer = observer }
}

// WithDefaultModel sets the model used when ChatOptions.Model is empty.
// Without it the adapter's own default applies.
func WithDefaultModel(model string) Option {
	return func(o *clientOptions) { o.defaultModel = model }
}

// WithDecoderOptions passes options to the SSE decoder of every stream.
func WithDecoderOptions(opts ...sse.Option) Option {
	return func(o *clientOptions) { o.decoderOptions = append(o.decoderOptions, opts...) }
}

// New creates a Client for adapter.
func New(adapter ai.Adapter, opts ...Option) (*Client, error) {
	if adapter == nil {
		return nil, errors.New("client: adapter is required")
	}

	options := clientOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	for i, middleware := range options.middlewares {
		if middleware.Complete == nil && middleware.Stream == nil {
			return nil, fmt.Errorf("client: middleware at index %d has neither Complete nor Stream set", i)
		}
	}

	if options.transport == nil {
		options.transport = transport.New()
	}

	middlewares := options.middlewares
	if options.observer != nil {
		middlewares = append([]MiddlewareConfig{
			NewObservabilityMiddleware(options.observer, adapter.Name(), options.defaultModel),
		}, middlewares...)
	}

	client := &Client{
		adapter:        adapter,
		transport:      options.transport,
		defaultModel:   options.defaultModel,
		decoderOptions: options.decoderOptions,
	}
	client.complete = buildCompleteChain(client.completeDirect, middlewares)
	client.stream = buildStreamChain(client.streamDirect, middlewares)

	return client, nil
}

// Adapter returns the provider adapter the client was built with.
func (c *Client) Adapter() ai.Adapter { return c.adapter }

// Stream starts a streaming call. Transport and HTTP failures are returned
// here; provider errors found in the stream, parse failures, and a stream
// that ends before its terminal delta are yielded by the returned stream.
//
// The stream ends right after the first terminal delta and the connection is
// released. Breaking out of the range loop early also releases it.
func (c *Client) Stream(ctx context.Context, messages []ai.Message, options ai.ChatOptions) (*ai.ChatStream, error) {
	return c.stream(ctx, c.newRequest(messages, options))
}

// Chat streams the response and assembles it: content fragments joined in
// arrival order, the last usage reported, and the terminal finish reason. On
// a mid-stream failure the partial response is returned with the error.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, options ai.ChatOptions) (*ai.ChatResponse, error) {
	stream, err := c.Stream(ctx, messages, options)
	if err != nil {
		return nil, err
	}
	return stream.Collect()
}

// Complete performs a non-streaming call.
func (c *Client) Complete(ctx context.Context, messages []ai.Message, options ai.ChatOptions) (*ai.ChatResponse, error) {
	return c.complete(ctx, c.newRequest(messages, options))
}

// newRequest copies options so middleware and adapters never alias the
// caller's slices.
func (c *Client) newRequest(messages []ai.Message, options ai.ChatOptions) ai.ChatRequest {
	request := ai.ChatRequest{Messages: messages, Options: options.Clone()}
	if request.Options.Model == "" {
		request.Options.Model = c.defaultModel
	}
	return request
}

// completeDirect is the innermost CompleteFunc.
func (c *Client) completeDirect(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	options := request.Options.Clone()
	options.Stream = false

	wireRequest, err := c.adapter.BuildRequest(request.Messages, options)
	if err != nil {
		return nil, err
	}

	response, err := c.transport.Fetch(ctx, wireRequest)
	if err != nil {
		return nil, c.translateError(err)
	}

	chatResponse, err := c.adapter.ParseResponse(response.Body)
	if err != nil {
		return nil, c.classify(err)
	}
	if chatResponse.Model == "" {
		chatResponse.Model = options.Model
	}
	return chatResponse, nil
}

// streamDirect is the innermost StreamFunc.
func (c *Client) streamDirect(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	options := request.Options.Clone()
	options.Stream = true

	wireRequest, err := c.adapter.BuildRequest(request.Messages, options)
	if err != nil {
		return nil, err
	}

	response, err := c.transport.Stream(ctx, wireRequest)
	if err != nil {
		return nil, c.translateError(err)
	}

	return ai.NewChatStream(func(yield func(ai.ChatDelta, error) bool) {
		for event, err := range sse.Decode(response.Chunks, c.decoderOptions...) {
			if err != nil {
				yield(ai.ChatDelta{}, c.translateError(err))
				return
			}

			delta, err := c.adapter.ParseStreamEvent(event)
			if err != nil {
				yield(ai.ChatDelta{}, c.classify(err))
				return
			}
			if delta == nil {
				continue
			}

			if !yield(*delta, nil) || delta.IsFinished() {
				return
			}
		}

		yield(ai.ChatDelta{}, fmt.Errorf("%s: %w", c.adapter.Name(), ai.ErrIncompleteStream))
	}), nil
}

// ParseResponseAs decodes the assembled content of response into T,
// tolerating prose around the JSON and minor syntax damage.
func ParseResponseAs[T any](response *ai.ChatResponse) (T, error) {
	if response == nil {
		var zero T
		return zero, errors.New("client: nil response")
	}
	return parse.ParseStringAs[T](response.Content())
}
