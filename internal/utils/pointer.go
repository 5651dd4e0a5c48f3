package utils

// Ptr returns the address of a copy of v. ChatOptions uses pointer fields to
// tell "unset" apart from a zero value, so callers write
// ai.ChatOptions{Temperature: utils.Ptr(0.0)}.
func Ptr[T any](v T) *T {
	return &v
}
