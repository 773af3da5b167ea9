package bravesearch

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestNewBraveSearchTool(t *testing.T) {
	var sentCount string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		sentCount = r.URL.Query().Get("count")
		w.Write(webPayload(12))
	})
	searchTool := NewBraveSearchTool(client)

	if searchTool.Name != ToolName || searchTool.Description == "" {
		t.Errorf("tool = %q / %q", searchTool.Name, searchTool.Description)
	}

	out, err := searchTool.Call(context.Background(), `{"query":"go"}`)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if sentCount != "10" {
		t.Errorf("default count = %s, want 10", sentCount)
	}

	var decoded Output
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output not JSON: %v", err)
	}
	if len(decoded.Results) != 10 {
		t.Errorf("got %d results, want 10", len(decoded.Results))
	}
	if !strings.HasPrefix(decoded.Summary, "Search Results for 'go':") {
		t.Errorf("Summary = %q", decoded.Summary)
	}
}

func TestNewBraveSearchTool_RejectsMissingQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	searchTool := NewBraveSearchTool(client)

	if _, err := searchTool.Call(context.Background(), `{}`); err == nil {
		t.Error("Call without query should fail validation")
	}
}

func TestNewBraveSearchTool_ClampsArguments(t *testing.T) {
	tests := []struct {
		name      string
		args      string
		wantCount string
		wantQuery string
	}{
		{"count above range", `{"query":"go","max_results":25}`, "20", "go"},
		{"negative count", `{"query":"go","max_results":-3}`, "1", "go"},
		{"long padded query", `{"query":"go` + strings.Repeat(" ", 600) + `lang"}`, "10", "go lang"},
		{"query over cap", `{"query":"` + strings.Repeat("a", 600) + `"}`, "10", strings.Repeat("a", MaxQueryLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCount, gotQuery string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotCount = r.URL.Query().Get("count")
				gotQuery = r.URL.Query().Get("q")
				w.Write(webPayload(1))
			})

			if _, err := NewBraveSearchTool(client).Call(context.Background(), tt.args); err != nil {
				t.Fatalf("Call: %v", err)
			}
			if gotCount != tt.wantCount {
				t.Errorf("count = %s, want %s", gotCount, tt.wantCount)
			}
			if gotQuery != tt.wantQuery {
				t.Errorf("q = %q (len %d), want len %d", gotQuery, len(gotQuery), len(tt.wantQuery))
			}
		})
	}
}
