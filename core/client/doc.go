// Package client is the consumer-facing entry point: it combines an
// [ai.Adapter], a [transport.Transport] and the SSE decoder into one
// normalized delta stream.
//
// [Client.Stream] returns a lazy [ai.ChatStream] that stops reading the
// connection as soon as the provider signals completion. [Client.Chat] drains
// that stream into one assembled message, and [Client.Complete] uses the
// provider's non-streaming endpoint. Non-2xx responses surface as
// [*ai.APIError] values whose Kind can be matched with errors.Is.
//
// Cross-cutting behavior (retry, timeouts, logging, rate limiting, circuit
// breaking, caching) is added with [WithMiddleware]; ready-made middleware
// lives in the middleware subpackage.
package client
