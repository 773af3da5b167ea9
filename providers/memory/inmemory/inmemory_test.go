package inmemory

import (
	"context"
	"sync"
	"testing"

	"github.com/leofalp/researchagent/providers/ai"
)

func TestStore_AppendAndAll(t *testing.T) {
	ctx := context.Background()
	s := New()

	s.AppendMessage(ctx, &ai.Message{Role: ai.RoleUser, Content: "hi"})
	s.AppendMessage(ctx, nil)
	s.AppendMessage(ctx, &ai.Message{Role: ai.RoleAssistant, Content: "hello"})

	msgs, err := s.AllMessages(ctx)
	if err != nil {
		t.Fatalf("AllMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "hi" || msgs[1].Content != "hello" {
		t.Errorf("messages = %+v", msgs)
	}

	msgs[0].Content = "mutated"
	again, _ := s.AllMessages(ctx)
	if again[0].Content != "hi" {
		t.Error("AllMessages should return a copy")
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.AppendMessage(ctx, &ai.Message{Role: ai.RoleUser, Content: "hi"})
	s.ClearMessages(ctx)

	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("Count after clear = %d", n)
	}
}

func TestStore_WindowStartsAtUserTurn(t *testing.T) {
	ctx := context.Background()
	s := New(WithMaxMessages(4))

	for _, m := range []ai.Message{
		{Role: ai.RoleUser, Content: "q1"},
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "c1"}}},
		{Role: ai.RoleTool, ToolCallID: "c1", Content: "r1"},
		{Role: ai.RoleAssistant, Content: "a1"},
		{Role: ai.RoleUser, Content: "q2"},
		{Role: ai.RoleAssistant, Content: "a2"},
	} {
		s.AppendMessage(ctx, &m)
	}

	msgs, _ := s.AllMessages(ctx)
	if len(msgs) != 2 || msgs[0].Content != "q2" {
		t.Errorf("window = %+v, want history restarting at q2", msgs)
	}
}

func TestStore_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AppendMessage(ctx, &ai.Message{Role: ai.RoleUser, Content: "x"})
		}()
	}
	wg.Wait()

	if n, _ := s.Count(ctx); n != 100 {
		t.Errorf("Count = %d, want 100", n)
	}
}
