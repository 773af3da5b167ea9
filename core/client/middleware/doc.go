// Package middleware provides the built-in send middlewares for the research
// client. Each New* function returns a [client.MiddlewareConfig] ready for
// [client.WithMiddleware].
//
//   - [NewRetryMiddleware] retries transient provider failures with exponential
//     backoff and jitter.
//   - [NewTimeoutMiddleware] puts a deadline on each provider call.
//   - [NewLoggingMiddleware] writes slog records around each call.
//
// Middlewares run outermost-first:
//
//	c, err := client.New(provider,
//	    client.WithMiddleware(
//	        middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 3}),
//	        middleware.NewTimeoutMiddleware(60*time.Second),
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	    ),
//	)
//
// Here every retry attempt gets its own timeout.
package middleware
