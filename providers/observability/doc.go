// Package observability defines the interfaces and semantic conventions used
// for tracing, metrics and structured logging around AI stream calls.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics]
// and [Logger] into a single injectable dependency. Callers propagate an
// active [Provider] and [Span] through a [context.Context] using
// [ContextWithObserver] and [ContextWithSpan]; they can be retrieved with
// [ObserverFromContext] and [SpanFromContext].
//
// Two backends ship with the module: providers/observability/slog writes
// everything as log records, and providers/observability/otel maps spans and
// instruments onto OpenTelemetry.
package observability
