package client

import (
	"context"
	"reflect"
	"testing"

	"github.com/leofalp/researchagent/providers/ai"
)

func recordingMiddleware(name string, log *[]string) MiddlewareConfig {
	return MiddlewareConfig{Send: func(next SendFunc) SendFunc {
		return func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
			*log = append(*log, name+":before")
			resp, err := next(ctx, req)
			*log = append(*log, name+":after")
			return resp, err
		}
	}}
}

func TestBuildSendChain_Order(t *testing.T) {
	var log []string
	chain := buildSendChain(&mockProvider{}, []MiddlewareConfig{
		recordingMiddleware("outer", &log),
		recordingMiddleware("inner", &log),
	})

	if _, err := chain(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatal(err)
	}

	want := []string{"outer:before", "inner:before", "inner:after", "outer:after"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("order = %v, want %v", log, want)
	}
}

func TestBuildSendChain_Empty(t *testing.T) {
	provider := &mockProvider{}
	chain := buildSendChain(provider, nil)

	resp, err := chain(context.Background(), ai.ChatRequest{Model: "m"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "test response" || len(provider.requests) != 1 {
		t.Error("empty chain should call the provider directly")
	}
}

func TestMiddleware_CanShortCircuit(t *testing.T) {
	provider := &mockProvider{}
	cached := &ai.ChatResponse{Content: "cached"}
	short := MiddlewareConfig{Send: func(SendFunc) SendFunc {
		return func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
			return cached, nil
		}
	}}

	c, _ := New(provider, WithMiddleware(short))
	resp, err := c.SendMessage(context.Background(), "Hello")
	if err != nil {
		t.Fatal(err)
	}
	if resp != cached || len(provider.requests) != 0 {
		t.Error("short-circuiting middleware should bypass the provider")
	}
}
