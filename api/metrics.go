package api

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// MetricsPath serves the collected route metrics and is itself never recorded
const MetricsPath = "/api/metrics"

// maxRouteSamples bounds the recent durations kept per route for percentiles
const maxRouteSamples = 512

// RouteMetrics aggregates metrics for a specific route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	P50Time     time.Duration `json:"p50Time"`
	P95Time     time.Duration `json:"p95Time"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsSummary is the snapshot returned by the metrics route
type MetricsSummary struct {
	Since         time.Time      `json:"since"`
	TotalRequests int64          `json:"totalRequests"`
	TotalErrors   int64          `json:"totalErrors"`
	Routes        []RouteMetrics `json:"routes"`
}

type routeStats struct {
	RouteMetrics
	samples []time.Duration
	next    int
}

// MetricsCollector collects per route request counts and timings in memory
type MetricsCollector struct {
	mu            sync.Mutex
	routes        map[string]*routeStats
	since         time.Time
	totalRequests int64
	totalErrors   int64
	now           func() time.Time
}

// NewMetricsCollector returns an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		routes: make(map[string]*routeStats),
		since:  time.Now(),
		now:    time.Now,
	}
}

// Record adds one finished request. Any status of 400 and above counts as an error.
func (mc *MetricsCollector) Record(method, path string, status int, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := method + " " + path
	rs, ok := mc.routes[key]
	if !ok {
		rs = &routeStats{RouteMetrics: RouteMetrics{Method: method, Path: path, MinTime: duration}}
		mc.routes[key] = rs
	}

	rs.Count++
	rs.TotalTime += duration
	if duration < rs.MinTime {
		rs.MinTime = duration
	}
	if duration > rs.MaxTime {
		rs.MaxTime = duration
	}
	rs.LastRequest = mc.now()
	mc.totalRequests++
	if status >= http.StatusBadRequest {
		rs.ErrorCount++
		mc.totalErrors++
	}

	// ring buffer of the latest samples
	if len(rs.samples) < maxRouteSamples {
		rs.samples = append(rs.samples, duration)
	} else {
		rs.samples[rs.next] = duration
		rs.next = (rs.next + 1) % maxRouteSamples
	}
}

// Summary returns a snapshot ordered by path then method
func (mc *MetricsCollector) Summary() MetricsSummary {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	routes := make([]RouteMetrics, 0, len(mc.routes))
	for _, rs := range mc.routes {
		m := rs.RouteMetrics
		if m.Count > 0 {
			m.AvgTime = m.TotalTime / time.Duration(m.Count)
		}
		sorted := append([]time.Duration(nil), rs.samples...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		m.P50Time = percentile(sorted, 0.50)
		m.P95Time = percentile(sorted, 0.95)
		routes = append(routes, m)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	return MetricsSummary{
		Since:         mc.since,
		TotalRequests: mc.totalRequests,
		TotalErrors:   mc.totalErrors,
		Routes:        routes,
	}
}

// Middleware records every routed request under its route template, so
// /api/reports/{id} is one entry whatever the id
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := routeTemplate(r)
		if path == MetricsPath {
			next.ServeHTTP(w, r)
			return
		}

		wrappedWriter := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		startTime := time.Now()
		next.ServeHTTP(wrappedWriter, r)
		mc.Record(r.Method, path, wrappedWriter.statusCode, time.Since(startTime))
	})
}

// Handler writes the current summary as JSON
func (mc *MetricsCollector) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(mc.Summary())
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// percentile expects sorted samples
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(math.Ceil(p*float64(len(sorted)))) - 1
	if i < 0 {
		i = 0
	}
	return sorted[i]
}
