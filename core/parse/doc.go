// Package parse decodes structured values out of model-generated text.
//
// Assembled chat content is often JSON wrapped in prose or markdown code
// fences, and is sometimes slightly malformed (single quotes, trailing commas,
// a truncated tail). [ParseStringAs] tries each JSON candidate it can find in
// the text, repairing it with jsonrepair when strict decoding fails.
package parse
