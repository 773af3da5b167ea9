package middleware

import (
	"context"
	"time"

	"github.com/leofalp/researchagent/core/client"
	"github.com/leofalp/researchagent/providers/ai"
)

// NewTimeoutMiddleware bounds every provider call with context.WithTimeout.
// A shorter deadline already on the caller's context still wins.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				return next(ctx, request)
			}
		},
	}
}
