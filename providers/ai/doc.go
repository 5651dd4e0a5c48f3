// Package ai defines the shared, provider-agnostic types and interfaces used
// across all provider adapters (OpenAI, Anthropic, Gemini). Each adapter maps
// these types to its own wire format, keeping the rest of the codebase
// decoupled from provider-specific details.
//
// The central interface is [Adapter]: it builds a request from [Message]
// values and [ChatOptions], and parses streamed SSE events into normalized
// [ChatDelta] values. [ChatStream] carries those deltas to the caller and can
// [ChatStream.Collect] them into a [ChatResponse]. Failures are reported with
// the error types in errors.go, which support errors.Is against sentinels
// such as [ErrRateLimited].
package ai
