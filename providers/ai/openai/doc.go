// Package openai implements [ai.Adapter] for the OpenAI chat completions API
// and compatible servers (Azure OpenAI, OpenRouter, Ollama, vLLM, ...).
//
// The main entry point is [New], which reads OPENAI_API_KEY and
// OPENAI_API_BASE_URL from the environment. Use [Adapter.WithAPIKey] and
// [Adapter.WithBaseURL] to override these values programmatically.
//
// Streaming responses are SSE records whose data is a JSON chunk; the stream
// ends with a literal "[DONE]" record, which the adapter maps to a terminal
// stop delta.
package openai
