//go:build integration

package openai

import (
	"context"
	"os"
	"testing"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/leofalp/researchagent/providers/ai"
)

// Requires LLM_API_KEY; LLM_BASE_URL and LLM_MODEL are optional.
func TestIntegration_SendMessage(t *testing.T) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		t.Skip("LLM_API_KEY not set, skipping integration test")
	}

	opts := []Option{WithAPIKey(apiKey)}
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		opts = append(opts, WithBaseURL(baseURL))
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		opts = append(opts, WithModel(model))
	}
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := p.SendMessage(ctx, ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Reply with the single word: pong"}},
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Content == "" {
		t.Error("empty content")
	}
}
