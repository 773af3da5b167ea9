package inmemory

import (
	"context"
	"sync"

	"github.com/leofalp/researchagent/providers/ai"
	"github.com/leofalp/researchagent/providers/memory"
	"github.com/leofalp/researchagent/providers/observability"
)

// Store keeps messages in process memory.
type Store struct {
	mu          sync.RWMutex
	messages    []ai.Message
	maxMessages int
}

var _ memory.Provider = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithMaxMessages bounds the history. Zero means unbounded.
func WithMaxMessages(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxMessages = n
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{messages: []ai.Message{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendMessage stores a copy of message. Nil is ignored.
func (s *Store) AppendMessage(ctx context.Context, message *ai.Message) {
	if message == nil {
		return
	}

	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventMemoryAppend,
			observability.String(observability.AttrMemoryMessageRole, string(message.Role)),
			observability.Int(observability.AttrMemoryMessageLength, len(message.Content)),
		)
	}

	s.mu.Lock()
	s.messages = append(s.messages, *message)
	s.trimLocked()
	total := len(s.messages)
	s.mu.Unlock()

	if span != nil {
		span.SetAttributes(observability.Int(observability.AttrMemoryTotalMessages, total))
	}
}

// trimLocked drops the oldest messages beyond the window, then keeps dropping
// until the history starts at a user message.
func (s *Store) trimLocked() {
	if s.maxMessages == 0 || len(s.messages) <= s.maxMessages {
		return
	}
	start := len(s.messages) - s.maxMessages
	for start < len(s.messages)-1 && s.messages[start].Role != ai.RoleUser {
		start++
	}
	s.messages = append([]ai.Message(nil), s.messages[start:]...)
}

func (s *Store) AllMessages(_ context.Context) ([]ai.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ai.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages), nil
}

func (s *Store) ClearMessages(ctx context.Context) {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryClear)
	}

	s.mu.Lock()
	s.messages = s.messages[:0]
	s.mu.Unlock()
}
