// Package anthropic implements [ai.Adapter] for Anthropic's Messages API.
//
// It handles request conversion from provider-agnostic messages to the
// Messages wire format (system prompt hoisted to the top-level field,
// alternating user/assistant turns, base64 image blocks), response mapping
// back to [ai.ChatResponse], and parsing of the typed SSE event stream
// (message_start, content_block_delta, message_delta, message_stop, error).
//
// The primary entry point is [New], which reads ANTHROPIC_API_KEY and
// ANTHROPIC_API_BASE_URL from the environment.
package anthropic
