package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/aistream/internal/utils"
)

// HTTPError is returned for every non-2xx response. The body has already been
// read (bounded) and the connection released.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("non-2xx status %d from %s %s: %s", e.StatusCode, e.Method, e.URL, utils.TruncateString(e.BodyText(), 500))
}

// RetryAfter parses the Retry-After header, accepting delta-seconds or an
// HTTP date. It returns 0 when the header is absent or invalid.
func (e *HTTPError) RetryAfter() time.Duration {
	if e.Header == nil {
		return 0
	}
	return ParseRetryAfter(e.Header.Get("Retry-After"), time.Now())
}

// BodyText returns the error body as readable text. HTML error pages (load
// balancer and gateway pages are common here) are converted to Markdown.
func (e *HTTPError) BodyText() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" || !looksLikeHTML(e.Header, body) {
		return body
	}

	markdown, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return body
	}
	return strings.TrimSpace(markdown)
}

func looksLikeHTML(header http.Header, body string) bool {
	if header != nil && strings.Contains(strings.ToLower(header.Get("Content-Type")), "text/html") {
		return true
	}
	lower := strings.ToLower(body[:min(len(body), 64)])
	return strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html")
}

// ParseRetryAfter parses a Retry-After value relative to now.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := when.Sub(now); delay > 0 {
			return delay
		}
	}
	return 0
}

// Kind classifies a TransportError.
type Kind int

const (
	KindOther Kind = iota
	KindNoConnection
	KindTimeout
	KindCancelled
	KindInvalidURL
	KindCertificate
)

func (k Kind) String() string {
	switch k {
	case KindNoConnection:
		return "no_connection"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	case KindInvalidURL:
		return "invalid_url"
	case KindCertificate:
		return "certificate"
	default:
		return "other"
	}
}

// TransportError is a failure below HTTP: the request never produced a
// response, or the body could not be read.
type TransportError struct {
	Kind Kind
	Op   string
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s %s (%s): %v", e.Op, e.URL, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsKind reports whether err is a TransportError of the given kind.
func IsKind(err error, kind Kind) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr) && transportErr.Kind == kind
}

// newTransportError wraps err with its classification. A context error is
// checked first since net/http often reports it wrapped in *url.Error.
func newTransportError(ctx context.Context, op, rawURL string, err error) *TransportError {
	return &TransportError{Kind: classify(ctx, err), Op: op, URL: rawURL, Err: err}
}

func classify(ctx context.Context, err error) Kind {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return KindTimeout
		}
		return KindCancelled
	}

	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var (
		unknownAuthority x509.UnknownAuthorityError
		hostnameErr      x509.HostnameError
		invalidCert      x509.CertificateInvalidError
		verificationErr  *tls.CertificateVerificationError
	)
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidCert) || errors.As(err, &verificationErr) {
		return KindCertificate
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return KindNoConnection
	}

	return KindOther
}

// validateURL rejects URLs net/http cannot send before any dialing happens.
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
