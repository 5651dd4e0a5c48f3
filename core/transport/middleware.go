package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// Middleware decorates a RoundTripper.
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(request *http.Request) (*http.Response, error) {
	return f(request)
}

// Chain wraps base with middlewares so that the first middleware is the
// outermost. A nil base means http.DefaultTransport.
func Chain(base http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		base = middlewares[i](base)
	}
	return base
}

// Headers sets static headers on every request that does not already carry
// them.
func Headers(headers http.Header) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(request *http.Request) (*http.Response, error) {
			missing := make(http.Header)
			for key, values := range headers {
				if request.Header.Get(key) == "" {
					missing[key] = values
				}
			}
			if len(missing) == 0 {
				return next.RoundTrip(request)
			}

			request = request.Clone(request.Context())
			for key, values := range missing {
				request.Header[key] = append([]string(nil), values...)
			}
			return next.RoundTrip(request)
		})
	}
}

// DefaultRequestIDHeader is the header RequestID writes by default.
const DefaultRequestIDHeader = "X-Request-ID"

// RequestID stamps each request with a ULID unless the header is already
// set. An empty header name uses DefaultRequestIDHeader.
func RequestID(header string) Middleware {
	if header == "" {
		header = DefaultRequestIDHeader
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(request *http.Request) (*http.Response, error) {
			if request.Header.Get(header) != "" {
				return next.RoundTrip(request)
			}
			request = request.Clone(request.Context())
			request.Header.Set(header, ulid.Make().String())
			return next.RoundTrip(request)
		})
	}
}

// Logging logs one debug entry per round trip. Bodies are never logged and
// only the status line of the response is inspected.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(request *http.Request) (*http.Response, error) {
			start := time.Now()
			response, err := next.RoundTrip(request)
			attrs := []any{
				slog.String("method", request.Method),
				slog.String("url", request.URL.Redacted()),
				slog.Duration("duration", time.Since(start)),
			}
			if id := request.Header.Get(DefaultRequestIDHeader); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if err != nil {
				logger.Warn("http round trip failed", append(attrs, slog.String("error", err.Error()))...)
				return response, err
			}
			logger.Debug("http round trip", append(attrs, slog.Int("status", response.StatusCode))...)
			return response, nil
		})
	}
}
