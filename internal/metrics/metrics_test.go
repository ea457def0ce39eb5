package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(body)
}

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordRequest("GET", "/search", "200", 120*time.Millisecond)
	m.RecordRequest("GET", "/search", "200", 80*time.Millisecond)
	m.RecordRequest("GET", "/search", "500", time.Second)
	m.RecordUpstream("ok", 100*time.Millisecond)
	m.RecordUpstream("error", time.Second)
	m.RecordRateLimited()

	out := scrape(t, m)

	want := []string{
		`searchproxy_http_requests_total{method="GET",route="/search",status="200"} 2`,
		`searchproxy_http_requests_total{method="GET",route="/search",status="500"} 1`,
		`searchproxy_http_request_duration_seconds_count{method="GET",route="/search"} 3`,
		`searchproxy_upstream_fetches_total{outcome="ok"} 1`,
		`searchproxy_upstream_fetches_total{outcome="error"} 1`,
		`searchproxy_upstream_fetch_duration_seconds_count 2`,
		`searchproxy_http_rate_limited_total 1`,
		`go_goroutines`,
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("expected exposition to contain %q", w)
		}
	}
}

func TestMetrics_IsolatedRegistries(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()
	a.RecordRateLimited()

	if !strings.Contains(scrape(t, a), "searchproxy_http_rate_limited_total 1") {
		t.Error("expected first registry to count the rejection")
	}
	if !strings.Contains(scrape(t, b), "searchproxy_http_rate_limited_total 0") {
		t.Error("expected second registry to be unaffected")
	}
}
