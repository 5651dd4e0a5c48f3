package sse

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// DefaultMaxLineSize is the largest unterminated line the decoder will buffer
// (1 MB). Tool-call arguments and long completions can produce large single
// lines, so this is deliberately well above bufio's 64 KiB default.
const DefaultMaxLineSize = 1 * 1024 * 1024

// ErrLineTooLong is returned when an unterminated line grows past the
// configured maximum line size.
var ErrLineTooLong = errors.New("sse: line too long")

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxLineSize overrides DefaultMaxLineSize. A value <= 0 disables the limit.
func WithMaxLineSize(size int) Option {
	return func(d *Decoder) {
		d.maxLineSize = size
	}
}

// Decoder incrementally parses SSE records out of byte chunks.
//
// Bytes are appended with Feed; complete records are pulled with Next. Only
// the bytes of the record currently being assembled are kept, and records are
// parsed lazily on demand. A Decoder belongs to a single stream and is not
// safe for concurrent use.
type Decoder struct {
	pending     []byte
	maxLineSize int

	// accumulator for the record being assembled
	event     string
	dataLines []string
	id        string
	retry     *int
	hasData   bool
}

// NewDecoder returns an empty Decoder.
func NewDecoder(opts ...Option) *Decoder {
	decoder := &Decoder{maxLineSize: DefaultMaxLineSize}
	for _, opt := range opts {
		opt(decoder)
	}
	return decoder
}

// Feed appends a chunk to the internal buffer. It fails with ErrLineTooLong
// when the trailing unterminated line exceeds the maximum line size.
func (d *Decoder) Feed(chunk []byte) error {
	d.pending = append(d.pending, chunk...)

	if d.maxLineSize > 0 {
		tail := d.pending
		if idx := bytes.LastIndexByte(tail, '\n'); idx >= 0 {
			tail = tail[idx+1:]
		}
		if len(tail) > d.maxLineSize {
			return fmt.Errorf("%w: %d bytes without a line terminator", ErrLineTooLong, len(tail))
		}
	}
	return nil
}

// Next returns the next complete record in the buffer. The boolean is false
// when more input is needed. Records without any data line are dropped, as
// are comments and blank-line runs.
func (d *Decoder) Next() (Event, bool) {
	for {
		idx := bytes.IndexByte(d.pending, '\n')
		if idx < 0 {
			return Event{}, false
		}

		line := d.pending[:idx]
		d.pending = d.pending[idx+1:]

		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}

		if len(line) == 0 {
			if event, ok := d.dispatch(); ok {
				return event, true
			}
			continue
		}

		d.processLine(string(line))
	}
}

// Flush parses whatever is left in the buffer as a final record. It is called
// once the input is exhausted so that a stream which ends without a trailing
// blank line still yields its last record. Call it until it reports false.
func (d *Decoder) Flush() (Event, bool) {
	if event, ok := d.Next(); ok {
		return event, true
	}

	if len(d.pending) > 0 {
		line := bytes.TrimSuffix(d.pending, []byte{'\r'})
		d.pending = nil
		if len(line) > 0 {
			d.processLine(string(line))
		}
	}

	return d.dispatch()
}

// processLine applies a single non-empty line to the accumulator.
func (d *Decoder) processLine(line string) {
	if strings.HasPrefix(line, ":") {
		return
	}

	field, value, found := strings.Cut(line, ":")
	if found {
		value = strings.TrimPrefix(value, " ")
	}

	switch field {
	case "event":
		d.event = value
	case "data":
		d.dataLines = append(d.dataLines, value)
		d.hasData = true
	case "id":
		d.id = value
	case "retry":
		if retry, ok := parseRetry(value); ok {
			d.retry = &retry
		}
	}
}

// dispatch emits the accumulated record, if it has data, and resets state.
func (d *Decoder) dispatch() (Event, bool) {
	defer d.reset()

	if !d.hasData {
		return Event{}, false
	}

	return Event{
		Event: d.event,
		Data:  strings.Join(d.dataLines, "\n"),
		ID:    d.id,
		Retry: d.retry,
	}, true
}

func (d *Decoder) reset() {
	d.event = ""
	d.dataLines = nil
	d.id = ""
	d.retry = nil
	d.hasData = false
}

// parseRetry accepts only ASCII digits.
func parseRetry(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	retry := 0
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		retry = retry*10 + int(c-'0')
		if retry < 0 {
			return 0, false
		}
	}
	return retry, true
}

// Decode turns a lazy sequence of byte chunks into a lazy sequence of events.
//
// Chunks are pulled only as fast as the consumer pulls events, and breaking
// out of the range stops the upstream sequence. An upstream error is yielded
// once and ends the sequence. When the upstream ends cleanly, any record left
// in the buffer is flushed.
func Decode(chunks iter.Seq2[[]byte, error], opts ...Option) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		decoder := NewDecoder(opts...)

		for chunk, err := range chunks {
			if err != nil {
				yield(Event{}, err)
				return
			}

			if feedErr := decoder.Feed(chunk); feedErr != nil {
				yield(Event{}, feedErr)
				return
			}

			for {
				event, ok := decoder.Next()
				if !ok {
					break
				}
				if !yield(event, nil) {
					return
				}
			}
		}

		for {
			event, ok := decoder.Flush()
			if !ok || !yield(event, nil) {
				return
			}
		}
	}
}
