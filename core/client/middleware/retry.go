package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/leofalp/researchagent/core/client"
	"github.com/leofalp/researchagent/providers/ai"
	"github.com/leofalp/researchagent/providers/observability"
)

// RetryConfig holds the tuning parameters for the retry middleware. Zero values
// are replaced with defaults when NewRetryMiddleware is called.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first failure. Default: 3.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff. Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential multiplier. Default: 2.0.
	BackoffFactor float64

	// JitterFraction adds up to JitterFraction*backoff of random delay. Default: 0.1.
	JitterFraction float64

	// RetryableFunc decides whether an error triggers a retry.
	// Default: DefaultRetryable.
	RetryableFunc func(error) bool
}

var retryableStatus = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	529: true,
}

// DefaultRetryable retries provider errors carrying a transient HTTP status
// (429, 500, 502, 503, 529) and transport failures that never produced a
// status. Context cancellation and deadline errors are never retried.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var providerErr *ai.ProviderError
	if errors.As(err, &providerErr) {
		return retryableStatus[providerErr.StatusCode]
	}

	return true
}

func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}
	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}
	if config.RetryableFunc == nil {
		config.RetryableFunc = DefaultRetryable
	}
}

// computeBackoff returns min(InitialBackoff * BackoffFactor^attempt, MaxBackoff) plus jitter.
// attempt is 0-indexed.
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}

	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter is intentional
	return time.Duration(base + jitter)
}

// NewRetryMiddleware retries failed sends according to config.
//
// On exhaustion the returned error wraps both [ErrRetryExhausted] and the last
// provider error.
func NewRetryMiddleware(config RetryConfig) client.MiddlewareConfig {
	applyRetryDefaults(&config)

	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				var lastErr error

				for attempt := 0; attempt <= config.MaxRetries; attempt++ {
					if attempt > 0 {
						backoff := computeBackoff(config, attempt-1)
						if observer := observability.ObserverFromContext(ctx); observer != nil {
							observer.Warn(ctx, "retrying llm request",
								observability.Int("attempt", attempt),
								observability.Duration("backoff", backoff),
								observability.Int(observability.AttrHTTPStatusCode, ai.StatusCode(lastErr)),
							)
						}

						timer := time.NewTimer(backoff)
						select {
						case <-ctx.Done():
							timer.Stop()
							return nil, ctx.Err()
						case <-timer.C:
						}
					}

					response, err := next(ctx, request)
					if err == nil {
						return response, nil
					}

					lastErr = err
					if !config.RetryableFunc(err) {
						return nil, err
					}
				}

				return nil, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr)
			}
		},
	}
}
