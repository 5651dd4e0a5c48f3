// Package middleware provides built-in middleware for the aistream client.
// Each middleware is constructed via a New* function that returns a
// [client.MiddlewareConfig] ready to be passed to [client.WithMiddleware].
//
// # Available Middleware
//
//   - [NewRetryMiddleware]: retries Complete calls and stream initiation with
//     exponential backoff and jitter, honoring Retry-After.
//
//   - [NewTimeoutMiddleware]: adds a deadline that covers the whole lifetime of
//     a stream, not just the time to the first byte.
//
//   - [NewLoggingMiddleware]: emits slog entries before and after every call,
//     with three verbosity levels (Minimal, Standard, Verbose).
//
//   - [NewRateLimitMiddleware]: client-side token bucket throttle.
//
//   - [NewCircuitBreakerMiddleware]: fails fast after repeated server-side
//     failures.
//
//   - [NewCacheMiddleware]: serves identical Complete calls from memory.
//
// # Usage
//
//	c, err := client.New(openai.New(),
//	    client.WithMiddleware(
//	        middleware.NewTimeoutMiddleware(2*time.Minute),
//	        middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 3}),
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	    ),
//	)
//
// Middlewares execute outermost-first: the first entry in WithMiddleware runs
// first on the way in and last on the way out. In the example above a request
// travels Timeout, Retry, Logging, then the adapter.
package middleware
