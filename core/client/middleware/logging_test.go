package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/leofalp/researchagent/providers/ai"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func okSend(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
	return &ai.ChatResponse{
		Model:        "gpt-4o",
		Content:      "the answer is 42",
		FinishReason: "stop",
		Usage:        &ai.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
	}, nil
}

var logRequest = ai.ChatRequest{
	Model:    "gpt-4o",
	Messages: []ai.Message{{Role: ai.RoleUser, Content: "what is the answer"}},
}

func TestLogging_Levels(t *testing.T) {
	tests := []struct {
		name    string
		level   LogLevel
		want    []string
		notWant []string
	}{
		{
			name:    "minimal",
			level:   LogLevelMinimal,
			want:    []string{"llm send completed", "total_tokens=3"},
			notWant: []string{"message_count", "finish_reason", "the answer is 42"},
		},
		{
			name:    "standard",
			level:   LogLevelStandard,
			want:    []string{"message_count=1", "finish_reason=stop"},
			notWant: []string{"what is the answer", "the answer is 42"},
		},
		{
			name:  "verbose",
			level: LogLevelVerbose,
			want:  []string{"first_message_content=\"what is the answer\"", "response_content=\"the answer is 42\""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger()
			send := NewLoggingMiddleware(logger, tt.level).Send(okSend)

			if _, err := send(context.Background(), logRequest); err != nil {
				t.Fatal(err)
			}
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("log missing %q:\n%s", w, out)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("log should not contain %q:\n%s", nw, out)
				}
			}
		})
	}
}

func TestLogging_Error(t *testing.T) {
	logger, buf := newBufferLogger()
	sendErr := errors.New("upstream unavailable")
	send := NewLoggingMiddleware(logger, LogLevelStandard).Send(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		return nil, sendErr
	})

	_, err := send(context.Background(), logRequest)
	if !errors.Is(err, sendErr) {
		t.Fatalf("err = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "llm send failed") || !strings.Contains(out, "upstream unavailable") {
		t.Errorf("error not logged:\n%s", out)
	}
}
