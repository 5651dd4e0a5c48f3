package observability

import "context"

// contextKey separates the span and the observer stored by the client's
// observer middleware.
type contextKey int

const (
	spanKey contextKey = iota
	observerKey
)

// ContextWithSpan attaches the span of the current call. Backends read it to
// parent nested spans and to correlate log lines.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	return withValue(ctx, spanKey, span)
}

// SpanFromContext returns the span of the current call, or nil.
func SpanFromContext(ctx context.Context) Span {
	return valueOf[Span](ctx, spanKey)
}

// ContextWithObserver attaches the Provider observing the current call so
// that middleware further down the chain can report through it.
func ContextWithObserver(ctx context.Context, observer Provider) context.Context {
	return withValue(ctx, observerKey, observer)
}

// ObserverFromContext returns the Provider set by ContextWithObserver, or nil.
func ObserverFromContext(ctx context.Context) Provider {
	return valueOf[Provider](ctx, observerKey)
}

func withValue(ctx context.Context, key contextKey, value any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func valueOf[T any](ctx context.Context, key contextKey) T {
	var zero T
	if ctx == nil {
		return zero
	}
	value, _ := ctx.Value(key).(T)
	return value
}
