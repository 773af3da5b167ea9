package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leofalp/researchagent/core/client"
	"github.com/leofalp/researchagent/providers/ai"
)

// mockSendSequence returns the configured errors and responses in order.
type mockSendSequence struct {
	responses []*ai.ChatResponse
	errors    []error
	callCount int
}

func (m *mockSendSequence) next(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
	index := m.callCount
	m.callCount++

	if index < len(m.errors) && m.errors[index] != nil {
		return nil, m.errors[index]
	}
	if index < len(m.responses) {
		return m.responses[index], nil
	}
	return &ai.ChatResponse{Content: "default", FinishReason: "stop"}, nil
}

func statusErr(code int) error {
	return &ai.ProviderError{Provider: "openai", StatusCode: code, Message: "test"}
}

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestDefaultRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", statusErr(429), true},
		{"500", statusErr(500), true},
		{"502", statusErr(502), true},
		{"503", statusErr(503), true},
		{"529", statusErr(529), true},
		{"wrapped 503", fmt.Errorf("send: %w", statusErr(503)), true},
		{"400", statusErr(400), false},
		{"401", statusErr(401), false},
		{"404", statusErr(404), false},
		{"provider error without status", statusErr(0), false},
		{"transport error", errors.New("connection reset by peer"), true},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("openai: %w", context.DeadlineExceeded), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryable(tt.err); got != tt.want {
				t.Errorf("DefaultRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestApplyRetryDefaults(t *testing.T) {
	config := RetryConfig{}
	applyRetryDefaults(&config)

	if config.MaxRetries != 3 || config.InitialBackoff != time.Second || config.MaxBackoff != 30*time.Second {
		t.Errorf("unexpected defaults: %+v", config)
	}
	if config.BackoffFactor != 2.0 || config.JitterFraction != 0.1 || config.RetryableFunc == nil {
		t.Errorf("unexpected defaults: %+v", config)
	}
}

func TestComputeBackoff_Bounds(t *testing.T) {
	config := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2,
		JitterFraction: 0.1,
	}

	for attempt := 0; attempt < 10; attempt++ {
		base := time.Duration(float64(config.InitialBackoff) * float64(int(1)<<attempt))
		if base > config.MaxBackoff {
			base = config.MaxBackoff
		}
		got := computeBackoff(config, attempt)
		if got < base || got > base+base/10 {
			t.Errorf("attempt %d: backoff %v outside [%v, %v]", attempt, got, base, base+base/10)
		}
	}
}

func TestRetry_SucceedsAfterTransientErrors(t *testing.T) {
	seq := &mockSendSequence{errors: []error{statusErr(429), statusErr(503)}}
	send := NewRetryMiddleware(fastRetry(3)).Send(seq.next)

	resp, err := send(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "default" {
		t.Errorf("Content = %q", resp.Content)
	}
	if seq.callCount != 3 {
		t.Errorf("callCount = %d, want 3", seq.callCount)
	}
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	authErr := statusErr(401)
	seq := &mockSendSequence{errors: []error{authErr}}
	send := NewRetryMiddleware(fastRetry(3)).Send(seq.next)

	_, err := send(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, authErr) {
		t.Fatalf("err = %v, want the 401 error", err)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("non-retryable errors should not be reported as exhausted")
	}
	if seq.callCount != 1 {
		t.Errorf("callCount = %d, want 1", seq.callCount)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	last := statusErr(500)
	seq := &mockSendSequence{errors: []error{statusErr(500), statusErr(500), statusErr(500), last}}
	send := NewRetryMiddleware(fastRetry(3)).Send(seq.next)

	_, err := send(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("err = %v, want ErrRetryExhausted", err)
	}
	if !errors.Is(err, last) {
		t.Error("exhausted error should wrap the last provider error")
	}
	if ai.StatusCode(err) != 500 {
		t.Errorf("StatusCode = %d, want 500", ai.StatusCode(err))
	}
	if seq.callCount != 4 {
		t.Errorf("callCount = %d, want 4", seq.callCount)
	}
}

func TestRetry_ContextCanceledDuringBackoff(t *testing.T) {
	seq := &mockSendSequence{errors: []error{statusErr(503), statusErr(503)}}
	send := NewRetryMiddleware(RetryConfig{MaxRetries: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour}).Send(seq.next)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := send(ctx, ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if seq.callCount != 1 {
		t.Errorf("callCount = %d, want 1", seq.callCount)
	}
}

func TestRetry_CustomRetryableFunc(t *testing.T) {
	seq := &mockSendSequence{errors: []error{statusErr(400)}}
	config := fastRetry(2)
	config.RetryableFunc = func(err error) bool { return ai.StatusCode(err) == 400 }
	send := NewRetryMiddleware(config).Send(seq.next)

	if _, err := send(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq.callCount != 2 {
		t.Errorf("callCount = %d, want 2", seq.callCount)
	}
}

type stubProvider struct {
	seq mockSendSequence
}

func (s *stubProvider) SendMessage(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	return s.seq.next(ctx, req)
}

func (s *stubProvider) IsStopMessage(*ai.ChatResponse) bool { return true }

func TestRetry_ThroughClient(t *testing.T) {
	provider := &stubProvider{seq: mockSendSequence{errors: []error{errors.New("connection refused")}}}
	c, err := client.New(provider, client.WithMiddleware(NewRetryMiddleware(fastRetry(2))))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if provider.seq.callCount != 2 {
		t.Errorf("provider called %d times, want 2", provider.seq.callCount)
	}
}
