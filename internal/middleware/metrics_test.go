package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/mellystark/visitormanagement/pkg/metrics"
)

func latencySamples(t *testing.T, method, route, status string) uint64 {
	t.Helper()
	observer, err := metrics.APILatency.GetMetricWithLabelValues(method, route, status)
	require.NoError(t, err)

	var out dto.Metric
	require.NoError(t, observer.(prometheus.Metric).Write(&out))
	return out.GetHistogram().GetSampleCount()
}

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/visitors/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	matchedBefore := latencySamples(t, http.MethodGet, "/api/visitors/:id", "204")
	unmatchedBefore := latencySamples(t, http.MethodGet, unmatchedRoute, "404")

	for _, path := range []string{"/api/visitors/7", "/api/visitors/8", "/random/probe"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, matchedBefore+2, latencySamples(t, http.MethodGet, "/api/visitors/:id", "204"))
	require.Equal(t, unmatchedBefore+1, latencySamples(t, http.MethodGet, unmatchedRoute, "404"))
	require.Zero(t, testutil.ToFloat64(metrics.HTTPInFlight))
}
