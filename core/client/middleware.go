package client

import (
	"context"

	"github.com/leofalp/researchagent/providers/ai"
)

// SendFunc sends a chat request to the LLM provider and returns the completed
// response. It is the unit threaded through the middleware chain.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// Middleware wraps the next SendFunc in the chain.
type Middleware func(next SendFunc) SendFunc

// MiddlewareConfig carries one entry of the chain. Send is required; a nil
// Send makes New fail.
type MiddlewareConfig struct {
	Send Middleware
}

// buildSendChain applies middlewares in reverse so that middlewares[0] is the
// outermost wrapper and the provider call sits at the bottom.
func buildSendChain(provider ai.Provider, middlewares []MiddlewareConfig) SendFunc {
	var chain SendFunc = func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
		return provider.SendMessage(ctx, request)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Send(chain)
	}

	return chain
}
