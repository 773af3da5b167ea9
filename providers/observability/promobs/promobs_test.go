package promobs

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leofalp/researchagent/providers/observability"
	"github.com/leofalp/researchagent/providers/observability/slogobs"
)

func newTestObserver() *Observer {
	return New(slogobs.New(slogobs.WithOutput(&bytes.Buffer{})))
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"search.requests.total": "search_requests_total",
		"http.status_code":      "http_status_code",
		"9lives":                "_9lives",
		"ratelimit-wait":        "ratelimit_wait",
	}
	for in, want := range tests {
		if got := sanitize(in); got != want {
			t.Errorf("sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCounter_ExportedWithLabels(t *testing.T) {
	o := newTestObserver()
	ctx := context.Background()

	c := o.Counter(observability.MetricSearchRequestCount)
	c.Add(ctx, 1, observability.String(observability.AttrStatus, "ok"))
	c.Add(ctx, 2, observability.String(observability.AttrStatus, "ok"))
	c.Add(ctx, 1, observability.String(observability.AttrStatus, "error"))

	families, err := o.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var total float64
	found := false
	for _, mf := range families {
		if mf.GetName() != "research_search_requests_total" {
			continue
		}
		found = true
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		if len(mf.GetMetric()) != 2 {
			t.Errorf("expected 2 label combinations, got %d", len(mf.GetMetric()))
		}
	}
	if !found {
		t.Fatal("counter was not registered")
	}
	if total != 4 {
		t.Errorf("total = %v, want 4", total)
	}
}

func TestCounter_UnknownLabelsAreDropped(t *testing.T) {
	o := newTestObserver()
	ctx := context.Background()

	c := o.Counter("tool.executions.total")
	c.Add(ctx, 1, observability.String("tool.name", "search_web"))
	// A second call with an extra key must not panic on label cardinality.
	c.Add(ctx, 1, observability.String("tool.name", "search_web"), observability.String("extra", "x"))

	families, err := o.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) != 1 || families[0].GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Fatalf("unexpected families: %v", families)
	}
}

func TestHandler_ServesHistogram(t *testing.T) {
	o := newTestObserver()
	o.Histogram(observability.MetricRateLimitWait).Record(context.Background(), 0.25)

	srv := httptest.NewServer(o.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "research_ratelimit_wait_seconds_count 1") {
		t.Errorf("histogram missing from exposition:\n%s", body)
	}
}

func TestServe_EmptyAddrIsNoop(t *testing.T) {
	o := newTestObserver()
	if err := o.Serve(context.Background(), "", nil); err != nil {
		t.Fatalf("Serve with empty addr: %v", err)
	}
}
