// Package otel implements observability.Provider with OpenTelemetry. Spans go
// to a trace.TracerProvider, counters and histograms to a metric.MeterProvider,
// and log calls to a slog.Logger enriched with the active trace and span ids.
package otel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/leofalp/aistream/providers/observability"
)

const instrumentationName = "github.com/leofalp/aistream"

// Observer implements observability.Provider on OpenTelemetry.
type Observer struct {
	tracer trace.Tracer
	meter  metric.Meter
	logger *slog.Logger

	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// Option configures an Observer.
type Option func(*Observer)

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *Observer) { o.tracer = provider.Tracer(instrumentationName) }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *Observer) { o.meter = provider.Meter(instrumentationName) }
}

// WithLogger sets the logger used for the Logger half of the interface. Nil
// keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Observer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Observer. Without options it uses the global providers
// registered with go.opentelemetry.io/otel and slog.Default().
func New(opts ...Option) *Observer {
	observer := &Observer{
		tracer:     otel.GetTracerProvider().Tracer(instrumentationName),
		meter:      otel.GetMeterProvider().Meter(instrumentationName),
		logger:     slog.Default(),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
	for _, opt := range opts {
		opt(observer)
	}
	return observer
}

var _ observability.Provider = (*Observer)(nil)

// --- TRACING ---

func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	ctx, span := o.tracer.Start(ctx, name, trace.WithAttributes(toKeyValues(attrs)...))
	wrapped := &otelSpan{span: span}
	return observability.ContextWithSpan(ctx, wrapped), wrapped
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttributes(attrs ...observability.Attribute) {
	s.span.SetAttributes(toKeyValues(attrs)...)
}

func (s *otelSpan) SetStatus(code observability.StatusCode, description string) {
	switch code {
	case observability.StatusOK:
		s.span.SetStatus(codes.Ok, description)
	case observability.StatusError:
		s.span.SetStatus(codes.Error, description)
	default:
		s.span.SetStatus(codes.Unset, description)
	}
}

func (s *otelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
}

func (s *otelSpan) AddEvent(name string, attrs ...observability.Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(toKeyValues(attrs)...))
}

// --- METRICS ---

// Counter returns an Int64Counter. Instrument creation errors fall back to a
// no-op instrument after being logged.
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()

	counter, ok := o.counters[name]
	if !ok {
		var err error
		counter, err = o.meter.Int64Counter(name)
		if err != nil {
			o.logger.Warn("otel counter creation failed", slog.String("metric", name), slog.String("error", err.Error()))
		}
		o.counters[name] = counter
	}
	return otelCounter{counter: counter}
}

// Histogram returns a Float64Histogram, created on first use.
func (o *Observer) Histogram(name string) observability.Histogram {
	o.mu.Lock()
	defer o.mu.Unlock()

	histogram, ok := o.histograms[name]
	if !ok {
		var err error
		histogram, err = o.meter.Float64Histogram(name)
		if err != nil {
			o.logger.Warn("otel histogram creation failed", slog.String("metric", name), slog.String("error", err.Error()))
		}
		o.histograms[name] = histogram
	}
	return otelHistogram{histogram: histogram}
}

type otelCounter struct {
	counter metric.Int64Counter
}

func (c otelCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	if c.counter == nil {
		return
	}
	c.counter.Add(ctx, value, metric.WithAttributes(toKeyValues(attrs)...))
}

type otelHistogram struct {
	histogram metric.Float64Histogram
}

func (h otelHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	if h.histogram == nil {
		return
	}
	h.histogram.Record(ctx, value, metric.WithAttributes(toKeyValues(attrs)...))
}

// --- LOGGING ---

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelDebug-4, msg, attrs)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelDebug, msg, attrs)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelInfo, msg, attrs)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelWarn, msg, attrs)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelError, msg, attrs)
}

func (o *Observer) log(ctx context.Context, level slog.Level, msg string, attrs []observability.Attribute) {
	logAttrs := make([]slog.Attr, 0, len(attrs)+2)
	if spanContext := trace.SpanContextFromContext(ctx); spanContext.IsValid() {
		logAttrs = append(logAttrs,
			slog.String("trace_id", spanContext.TraceID().String()),
			slog.String("span_id", spanContext.SpanID().String()),
		)
	}
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	o.logger.LogAttrs(ctx, level, msg, logAttrs...)
}

// toKeyValues maps attribute values onto the closest OpenTelemetry type.
// Durations are recorded in seconds.
func toKeyValues(attrs []observability.Attribute) []attribute.KeyValue {
	keyValues := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		switch value := attr.Value.(type) {
		case string:
			keyValues = append(keyValues, attribute.String(attr.Key, value))
		case int:
			keyValues = append(keyValues, attribute.Int(attr.Key, value))
		case int64:
			keyValues = append(keyValues, attribute.Int64(attr.Key, value))
		case float64:
			keyValues = append(keyValues, attribute.Float64(attr.Key, value))
		case bool:
			keyValues = append(keyValues, attribute.Bool(attr.Key, value))
		case time.Duration:
			keyValues = append(keyValues, attribute.Float64(attr.Key, value.Seconds()))
		case []string:
			keyValues = append(keyValues, attribute.StringSlice(attr.Key, value))
		case fmt.Stringer:
			keyValues = append(keyValues, attribute.String(attr.Key, value.String()))
		default:
			keyValues = append(keyValues, attribute.String(attr.Key, fmt.Sprint(value)))
		}
	}
	return keyValues
}
