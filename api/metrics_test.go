package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector_Record(t *testing.T) {
	mc := NewMetricsCollector()
	for i := 1; i <= 20; i++ {
		mc.Record("GET", "/api/reports", http.StatusOK, time.Duration(i)*time.Millisecond)
	}
	mc.Record("PUT", "/api/reports/{id}", http.StatusNotFound, 3*time.Millisecond)

	summary := mc.Summary()
	assert.Equal(t, int64(21), summary.TotalRequests)
	assert.Equal(t, int64(1), summary.TotalErrors)
	require.Len(t, summary.Routes, 2)

	list := summary.Routes[0]
	assert.Equal(t, "GET", list.Method)
	assert.Equal(t, "/api/reports", list.Path)
	assert.Equal(t, int64(20), list.Count)
	assert.Equal(t, int64(0), list.ErrorCount)
	assert.Equal(t, time.Millisecond, list.MinTime)
	assert.Equal(t, 20*time.Millisecond, list.MaxTime)
	assert.Equal(t, 10500*time.Microsecond, list.AvgTime)
	assert.Equal(t, 10*time.Millisecond, list.P50Time)
	assert.Equal(t, 19*time.Millisecond, list.P95Time)

	update := summary.Routes[1]
	assert.Equal(t, "/api/reports/{id}", update.Path)
	assert.Equal(t, int64(1), update.ErrorCount)
}

func TestMetricsCollector_SamplesAreBounded(t *testing.T) {
	mc := NewMetricsCollector()
	for i := 0; i < maxRouteSamples+10; i++ {
		mc.Record("GET", "/health", http.StatusOK, time.Millisecond)
	}
	assert.Len(t, mc.routes["GET /health"].samples, maxRouteSamples)
	assert.Equal(t, int64(maxRouteSamples+10), mc.Summary().Routes[0].Count)
}

func TestMetricsCollector_MiddlewareUsesRouteTemplate(t *testing.T) {
	mc := NewMetricsCollector()
	r := mux.NewRouter()
	r.Use(mc.Middleware)
	r.HandleFunc("/api/reports/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods("DELETE")
	r.HandleFunc(MetricsPath, mc.Handler).Methods("GET")

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("DELETE", "/api/reports/"+id, nil))
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", MetricsPath, nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	var summary MetricsSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	require.Len(t, summary.Routes, 1)
	assert.Equal(t, "/api/reports/{id}", summary.Routes[0].Path)
	assert.Equal(t, int64(3), summary.Routes[0].Count)
	assert.Equal(t, int64(3), summary.Routes[0].ErrorCount)
}

func TestPercentileEmpty(t *testing.T) {
	assert.Equal(t, time.Duration(0), percentile(nil, 0.95))
}
