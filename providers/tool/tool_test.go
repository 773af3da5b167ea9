package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/leofalp/researchagent/providers/observability"
)

// testSpan records event names and attributes for assertions.
type testSpan struct {
	events     []string
	attributes []observability.Attribute
	errs       []error
}

func (s *testSpan) End() {}

func (s *testSpan) SetAttributes(attrs ...observability.Attribute) {
	s.attributes = append(s.attributes, attrs...)
}

func (s *testSpan) SetStatus(code observability.StatusCode, description string) {}

func (s *testSpan) RecordError(err error) { s.errs = append(s.errs, err) }

func (s *testSpan) AddEvent(name string, attrs ...observability.Attribute) {
	s.events = append(s.events, name)
}

type queryInput struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1,max=20"`
}

type queryOutput struct {
	Echo string `json:"echo"`
}

func echoTool() *Tool[queryInput, queryOutput] {
	return NewTool("echo", func(ctx context.Context, in queryInput) (queryOutput, error) {
		return queryOutput{Echo: in.Query}, nil
	}, WithDescription("Echoes the query."))
}

func TestNewTool_Info(t *testing.T) {
	info := echoTool().ToolInfo()
	if info.Name != "echo" || info.Description != "Echoes the query." {
		t.Errorf("ToolInfo = %+v", info)
	}
	if info.Parameters == nil || info.Parameters.Type != "object" {
		t.Fatalf("parameters schema = %+v", info.Parameters)
	}
	if _, ok := info.Parameters.Properties.Get("query"); !ok {
		t.Error("query missing from parameter schema")
	}
}

func TestCall(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "valid", input: `{"query":"golang"}`, want: "golang"},
		{name: "repaired json", input: `{query: 'golang'}`, want: "golang"},
		{name: "missing required", input: `{"limit":3}`, wantErr: "Query"},
		{name: "out of range", input: `{"query":"x","limit":50}`, wantErr: "Limit"},
		{name: "not json", input: `[[[`, wantErr: "invalid arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := echoTool().Call(context.Background(), tt.input)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Call(%s) error = %v, want containing %q", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Call(%s): %v", tt.input, err)
			}
			var decoded queryOutput
			if err := json.Unmarshal([]byte(out), &decoded); err != nil {
				t.Fatalf("output not JSON: %q", out)
			}
			if decoded.Echo != tt.want {
				t.Errorf("Echo = %q, want %q", decoded.Echo, tt.want)
			}
		})
	}
}

func TestCall_HandlerErrorIsReturned(t *testing.T) {
	boom := errors.New("upstream down")
	failing := NewTool("fail", func(ctx context.Context, in queryInput) (queryOutput, error) {
		return queryOutput{}, boom
	})

	_, err := failing.Call(context.Background(), `{"query":"x"}`)
	if !errors.Is(err, boom) {
		t.Errorf("Call error = %v, want %v", err, boom)
	}
}

func TestCall_EmitsSpanEvents(t *testing.T) {
	span := &testSpan{}
	ctx := observability.ContextWithSpan(context.Background(), span)

	if _, err := echoTool().Call(ctx, `{"query":"go"}`); err != nil {
		t.Fatalf("Call: %v", err)
	}

	if len(span.events) != 2 ||
		span.events[0] != observability.EventToolExecutionStart ||
		span.events[1] != observability.EventToolExecutionEnd {
		t.Errorf("events = %v", span.events)
	}

	var sawOutput bool
	for _, attr := range span.attributes {
		if attr.Key == observability.AttrToolOutput {
			sawOutput = true
		}
	}
	if !sawOutput {
		t.Error("tool output attribute not recorded")
	}
}

func TestCall_RecordsErrorOnSpan(t *testing.T) {
	span := &testSpan{}
	ctx := observability.ContextWithSpan(context.Background(), span)

	if _, err := echoTool().Call(ctx, `{}`); err == nil {
		t.Fatal("expected validation error")
	}
	if len(span.errs) != 1 {
		t.Errorf("recorded errors = %v", span.errs)
	}
}
