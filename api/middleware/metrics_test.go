package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/threadline/threadline-backend/pkg/metrics"
)

func TestMetricsLabelsStaticAndParamRoutes(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := chi.NewRouter()
	router.Use(Metrics(metrics.NewHTTPMetrics(registry)))
	router.Get("/api/health/live", func(w http.ResponseWriter, r *http.Request) {})
	router.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {})

	for _, path := range []string{"/api/health/live", "/api/products/7f1c", "/api/products/9a2e"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	metrics.Handler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	if !strings.Contains(body, `http_requests_total{method="GET",route="/api/health/live",status="200"} 1`) {
		t.Fatalf("expected static route label, got:\n%s", body)
	}
	if !strings.Contains(body, `http_requests_total{method="GET",route="/api/products/{id}",status="200"} 2`) {
		t.Fatalf("expected param route label, got:\n%s", body)
	}
	if strings.Contains(body, `route="unmatched"`) {
		t.Fatalf("matched requests labelled unmatched:\n%s", body)
	}
}
