// Package gemini implements [ai.Adapter] for Google's Gemini API.
//
// Streaming uses the streamGenerateContent endpoint with alt=sse, where each
// SSE record carries a generateContentResponse holding the next slice of
// text. Non-streaming calls use generateContent. Authentication is the
// x-goog-api-key header.
//
// Environment variables read by [New]:
//   - GEMINI_API_KEY: API key for authentication
//   - GEMINI_API_BASE_URL: Base URL for API (optional, defaults to Google's API)
package gemini
