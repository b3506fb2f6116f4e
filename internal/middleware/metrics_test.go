package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/usergroup-manager/usergroup-manager/internal/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// hasLabels reports whether the written metric carries every wanted label pair.
func hasLabels(dm *dto.Metric, want prometheus.Labels) bool {
	got := make(map[string]string, len(dm.GetLabel()))
	for _, lp := range dm.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

// drain collects every series a collector currently exposes.
func drain(c prometheus.Collector) []*dto.Metric {
	ch := make(chan prometheus.Metric, 32)
	c.Collect(ch)
	close(ch)

	var out []*dto.Metric
	for m := range ch {
		dm := &dto.Metric{}
		if err := m.Write(dm); err == nil {
			out = append(out, dm)
		}
	}
	return out
}

func counterValue(cv *prometheus.CounterVec, labels prometheus.Labels) float64 {
	for _, dm := range drain(cv) {
		if hasLabels(dm, labels) {
			return dm.GetCounter().GetValue()
		}
	}
	return 0
}

func histogramSamples(hv *prometheus.HistogramVec, labels prometheus.Labels) uint64 {
	for _, dm := range drain(hv) {
		if hasLabels(dm, labels) {
			return dm.GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func serveMetered(t *testing.T, status int, path string) {
	t.Helper()
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(status) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	for _, tc := range []struct {
		status int
		label  string
	}{
		{http.StatusOK, "200"},
		{http.StatusInternalServerError, "500"},
	} {
		want := prometheus.Labels{"method": "GET", "path": "/items/:id", "status": tc.label}

		before := counterValue(telemetry.HTTPRequestsTotal, want)
		serveMetered(t, tc.status, "/items/7")
		after := counterValue(telemetry.HTTPRequestsTotal, want)

		if after-before < 1 {
			t.Errorf("status %d: http_requests_total went %.0f -> %.0f, want +1", tc.status, before, after)
		}
	}
}

func TestMetricsMiddlewareObservesLatency(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": "/items/:id"}

	before := histogramSamples(telemetry.HTTPRequestDuration, labels)
	serveMetered(t, http.StatusOK, "/items/9")
	after := histogramSamples(telemetry.HTTPRequestDuration, labels)

	if after <= before {
		t.Errorf("http_request_duration_seconds samples went %d -> %d, want increase", before, after)
	}
}

func TestMetricsMiddlewareLabelsByRouteTemplate(t *testing.T) {
	// Concrete URLs must never become label values or series cardinality
	// explodes with every distinct id.
	serveMetered(t, http.StatusOK, "/items/42")

	for _, dm := range drain(telemetry.HTTPRequestsTotal) {
		if hasLabels(dm, prometheus.Labels{"path": "/items/42"}) {
			t.Fatal("raw URL /items/42 used as path label; want route template /items/:id")
		}
	}
}

func TestMetricsMiddlewareUnmatchedRoute(t *testing.T) {
	// Unrouted requests all collapse into one sentinel series.
	r := gin.New()
	r.Use(MetricsMiddleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no-such-path", nil))

	found := false
	for _, dm := range drain(telemetry.HTTPRequestsTotal) {
		if hasLabels(dm, prometheus.Labels{"path": "<no-route>"}) {
			found = true
		}
	}
	if !found {
		t.Error("no <no-route> series recorded for unmatched request")
	}
}
