// Package slog implements observability.Provider on top of log/slog. Spans,
// metric updates and log calls all become log records; counters and
// histograms also keep running totals in memory.
package slog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/leofalp/aistream/providers/observability"
)

// Observer implements observability.Provider using log/slog.
type Observer struct {
	logger     *slog.Logger
	counters   *instruments[*slogCounter]
	histograms *instruments[*slogHistogram]
}

// New creates a new slog-based observer. A nil logger means slog.Default().
func New(logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{
		logger: logger,
		counters: newInstruments(func(name string) *slogCounter {
			return &slogCounter{name: name, logger: logger}
		}),
		histograms: newInstruments(func(name string) *slogHistogram {
			return &slogHistogram{name: name, logger: logger}
		}),
	}
}

var _ observability.Provider = (*Observer)(nil)

// --- TRACING ---

// StartSpan logs the span start and returns a context carrying the span. A
// span already in ctx becomes the parent.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		id:        ulid.Make().String(),
		name:      name,
		startTime: time.Now(),
		logger:    o.logger,
		attrs:     attrs,
	}
	if parent, ok := observability.SpanFromContext(ctx).(*slogSpan); ok {
		span.parentID = parent.id
	}

	logAttrs := append(span.identity(), slog.String("event", "span.start"))
	logAttrs = appendAttrs(logAttrs, attrs)
	o.logger.LogAttrs(ctx, slog.LevelDebug, "Span started", logAttrs...)

	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	id        string
	parentID  string
	name      string
	startTime time.Time
	logger    *slog.Logger

	mu    sync.Mutex
	attrs []observability.Attribute
	ended bool
}

func (s *slogSpan) identity() []slog.Attr {
	attrs := []slog.Attr{slog.String("span", s.name), slog.String("span_id", s.id)}
	if s.parentID != "" {
		attrs = append(attrs, slog.String("parent_span_id", s.parentID))
	}
	return attrs
}

// End logs the span with its accumulated attributes. Only the first call logs.
func (s *slogSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	logAttrs := append(s.identity(),
		slog.String("event", "span.end"),
		slog.Duration("duration", time.Since(s.startTime)),
	)
	logAttrs = appendAttrs(logAttrs, s.attrs)
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, "Span ended", logAttrs...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := "unset"
	switch code {
	case observability.StatusOK:
		status = "ok"
	case observability.StatusError:
		status = "error"
	}

	s.attrs = append(s.attrs, observability.String(observability.AttrStatus, status))
	if description != "" {
		s.attrs = append(s.attrs, observability.String(observability.AttrStatusDescription, description))
	}
}

func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attrs = append(s.attrs, observability.Error(err))

	logAttrs := append(s.identity(), slog.String("event", "error"), slog.String("error", err.Error()))
	s.logger.LogAttrs(context.Background(), slog.LevelError, "Span error", logAttrs...)
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	logAttrs := append(s.identity(), slog.String("event", name))
	logAttrs = appendAttrs(logAttrs, attrs)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "Span event", logAttrs...)
}

// --- METRICS ---

func (o *Observer) Counter(name string) observability.Counter {
	return o.counters.get(name)
}

func (o *Observer) Histogram(name string) observability.Histogram {
	return o.histograms.get(name)
}

// CounterValue returns the running total of a counter, 0 if it was never used.
func (o *Observer) CounterValue(name string) int64 {
	counter, ok := o.counters.lookup(name)
	if !ok {
		return 0
	}
	counter.mu.Lock()
	defer counter.mu.Unlock()
	return counter.value
}

// HistogramCount returns how many values a histogram has recorded.
func (o *Observer) HistogramCount(name string) int {
	histogram, ok := o.histograms.lookup(name)
	if !ok {
		return 0
	}
	histogram.mu.Lock()
	defer histogram.mu.Unlock()
	return histogram.count
}

// instruments is a lazily populated, concurrency-safe registry.
type instruments[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	build func(name string) T
}

func newInstruments[T any](build func(name string) T) *instruments[T] {
	return &instruments[T]{items: make(map[string]T), build: build}
}

func (r *instruments[T]) lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[name]
	return item, ok
}

func (r *instruments[T]) get(name string) T {
	if item, ok := r.lookup(name); ok {
		return item
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if item, ok := r.items[name]; ok {
		return item
	}
	item := r.build(name)
	r.items[name] = item
	return item
}

type slogCounter struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	value  int64
}

func (c *slogCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += value
	current := c.value
	c.mu.Unlock()

	logAttrs := []slog.Attr{
		slog.String("metric", c.name),
		slog.String("type", "counter"),
		slog.Int64("value", current),
		slog.Int64("delta", value),
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "Counter", appendAttrs(logAttrs, attrs)...)
}

type slogHistogram struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	count  int
	sum    float64
}

func (h *slogHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.mu.Lock()
	h.count++
	h.sum += value
	count, sum := h.count, h.sum
	h.mu.Unlock()

	logAttrs := []slog.Attr{
		slog.String("metric", h.name),
		slog.String("type", "histogram"),
		slog.Float64("value", value),
		slog.Int("count", count),
		slog.Float64("sum", sum),
	}
	h.logger.LogAttrs(ctx, slog.LevelDebug, "Histogram", appendAttrs(logAttrs, attrs)...)
}

// --- LOGGING ---

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, LevelTrace, msg, attrs...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelDebug, msg, attrs...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelInfo, msg, attrs...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelWarn, msg, attrs...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelError, msg, attrs...)
}

// log adds the span id of the span in ctx, if it is one of ours.
func (o *Observer) log(ctx context.Context, level slog.Level, msg string, attrs ...observability.Attribute) {
	logAttrs := make([]slog.Attr, 0, len(attrs)+1)
	if span, ok := observability.SpanFromContext(ctx).(*slogSpan); ok {
		logAttrs = append(logAttrs, slog.String("span_id", span.id))
	}
	o.logger.LogAttrs(ctx, level, msg, appendAttrs(logAttrs, attrs)...)
}

func appendAttrs(dst []slog.Attr, attrs []observability.Attribute) []slog.Attr {
	for _, attr := range attrs {
		dst = append(dst, slog.Any(attr.Key, attr.Value))
	}
	return dst
}
