// Package transport executes HTTP requests for the AI clients.
//
// [Transport] has two modes. [Transport.Fetch] reads the whole response
// into memory. [Transport.Stream] returns as soon as the response headers
// arrive and exposes the body as a lazy chunk sequence, yielding bytes as
// the network delivers them. In both modes a non-2xx response is read
// eagerly (bounded) and returned as an [*HTTPError], so callers never
// receive a stream for a failed request. Network-level failures are
// returned as [*TransportError] with a coarse [Kind].
//
// [HTTPTransport] is the net/http implementation. Cross-cutting request
// concerns (static headers, request ids, per-attempt logging) are plugged in
// as RoundTripper [Middleware].
package transport
