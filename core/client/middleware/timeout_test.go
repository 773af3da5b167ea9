package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leofalp/researchagent/providers/ai"
)

func TestTimeout_AppliesDeadline(t *testing.T) {
	send := NewTimeoutMiddleware(10 * time.Millisecond).Send(func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	start := time.Now()
	_, err := send(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout did not fire promptly")
	}
}

func TestTimeout_FastCallPasses(t *testing.T) {
	send := NewTimeoutMiddleware(time.Second).Send(func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("context should carry a deadline")
		}
		return &ai.ChatResponse{Content: "ok"}, nil
	})

	resp, err := send(context.Background(), ai.ChatRequest{})
	if err != nil || resp.Content != "ok" {
		t.Fatalf("resp=%v err=%v", resp, err)
	}
}

func TestTimeout_ShorterParentDeadlineWins(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	parentDeadline, _ := parent.Deadline()

	send := NewTimeoutMiddleware(time.Hour).Send(func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		deadline, _ := ctx.Deadline()
		if deadline.After(parentDeadline) {
			t.Errorf("deadline %v later than parent %v", deadline, parentDeadline)
		}
		return &ai.ChatResponse{}, nil
	})

	if _, err := send(parent, ai.ChatRequest{}); err != nil {
		t.Fatal(err)
	}
}
