package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/cars/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cars/"+id, nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/cars/{id}", "404"))
	if got != 3 {
		t.Errorf("expected 3 requests for /cars/{id}, got %v", got)
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.GuardDecision(GuardAllowed)
	m.GuardDecision(GuardRevoked)
	m.GuardDecision(GuardRevoked)
	m.Revocation(RevocationAlreadyRevoked)
	m.TokenIssued()

	if got := testutil.ToFloat64(m.guard.WithLabelValues(GuardRevoked)); got != 2 {
		t.Errorf("revoked decisions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.revocations.WithLabelValues(RevocationAlreadyRevoked)); got != 1 {
		t.Errorf("already revoked = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.tokens); got != 1 {
		t.Errorf("tokens issued = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.GuardDecision(GuardAllowed)
	m.Revocation(RevocationRevoked)
	m.TokenIssued()
}

func TestHandler(t *testing.T) {
	m := New()
	m.TokenIssued()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "carsapp_tokens_issued_total 1") {
		t.Errorf("exposition missing counter:\n%s", rec.Body.String())
	}
}
