package metric

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_Counters(t *testing.T) {
	reg := NewRegistry()

	reg.TokensIssued.Inc()
	reg.TokensIssued.Inc()
	reg.TokensRevoked.Inc()
	reg.Errors.WithLabelValues("STOR").Inc()

	if got := testutil.ToFloat64(reg.TokensIssued); got != 2 {
		t.Errorf("tokens_issued_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(reg.TokensRevoked); got != 1 {
		t.Errorf("tokens_revoked_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.Errors.WithLabelValues("STOR")); got != 1 {
		t.Errorf("errors_total{family=STOR} = %v, want 1", got)
	}
}

func TestRegistry_Handler(t *testing.T) {
	reg := NewRegistry()
	reg.TokensIssued.Inc()
	reg.RequestsTotal.WithLabelValues("/api/GenerateToken", "200").Inc()
	reg.RequestDuration.WithLabelValues("/api/GenerateToken").Observe(0.02)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	reg.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"repovault_tokens_issued_total 1",
		`repovault_http_requests_total{code="200",route="/api/GenerateToken"} 1`,
		"repovault_http_request_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRegistry_Isolated(t *testing.T) {
	// Two registries must not share state or collide on registration.
	a := NewRegistry()
	b := NewRegistry()

	a.TokensIssued.Inc()
	if got := testutil.ToFloat64(b.TokensIssued); got != 0 {
		t.Errorf("registries share counter state: %v", got)
	}
}
