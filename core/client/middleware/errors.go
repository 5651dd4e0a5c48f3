package middleware

import "errors"

// ErrRetryExhausted is returned by the retry middleware when every attempt
// failed. The last underlying error is wrapped too, so [errors.Is] and
// [errors.As] still reach the root cause.
var ErrRetryExhausted = errors.New("aistream: all retry attempts exhausted")

// ErrCircuitOpen is returned while the circuit breaker rejects calls.
var ErrCircuitOpen = errors.New("aistream: circuit open")
