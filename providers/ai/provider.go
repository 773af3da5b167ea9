package ai

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the interface every LLM backend satisfies. Authentication and
// endpoint configuration happen when the provider is constructed.
type Provider interface {
	// SendMessage sends a chat request and returns the completed response.
	// Remote API failures are returned as *ProviderError.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// IsStopMessage reports whether the response is a terminal completion
	// with no further tool calls expected.
	IsStopMessage(message *ChatResponse) bool
}

// ProviderError describes a failure reported by a remote LLM API.
// Message never contains credentials.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// StatusCode extracts the HTTP status of a wrapped *ProviderError, or 0.
func StatusCode(err error) int {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.StatusCode
	}
	return 0
}
