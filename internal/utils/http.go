package utils

import (
	"fmt"
	"io"
	"log/slog"
)

// MaxResponseBodySize is the maximum response body size (10 MB) read into
// memory for non-streaming responses and error bodies. Enforced via
// io.LimitReader to prevent unbounded memory allocation from rogue responses.
const MaxResponseBodySize int64 = 10 * 1024 * 1024

// CloseWithLog closes closer and logs a close failure instead of returning it.
// It is meant for deferred cleanup where the primary error must not be
// overridden by a secondary close error.
func CloseWithLog(closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		slog.Warn("failed to close resource", "error", err.Error())
	}
}

// ReadLimited reads at most limit bytes from reader. A limit <= 0 falls back
// to MaxResponseBodySize.
func ReadLimited(reader io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = MaxResponseBodySize
	}
	body, err := io.ReadAll(io.LimitReader(reader, limit))
	if err != nil {
		return body, fmt.Errorf("error reading body: %w", err)
	}
	return body, nil
}
