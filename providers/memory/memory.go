package memory

import (
	"context"

	"github.com/leofalp/researchagent/providers/ai"
)

// Provider stores the message history of one conversation.
type Provider interface {
	AppendMessage(ctx context.Context, message *ai.Message)
	AllMessages(ctx context.Context) ([]ai.Message, error)
	Count(ctx context.Context) (int, error)
	ClearMessages(ctx context.Context)
}
