package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer
// and the allocation engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	allocatorRuns        *prometheus.CounterVec
	allocatorRunDuration *prometheus.HistogramVec
	optimizerFailures    prometheus.Counter
	unscheduledSections  prometheus.Gauge
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter
	overlayEdits         *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	allocatorRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocator_runs_total",
		Help: "Completed allocation runs by strategy",
	}, []string{"strategy"})

	allocatorRunDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "allocator_run_duration_seconds",
		Help:    "Duration of allocation runs by strategy",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"strategy"})

	optimizerFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_failures_total",
		Help: "Calls where every optimizer endpoint failed and the fallback ran",
	})

	unscheduledSections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "unscheduled_sections",
		Help: "Sections left unplaced by the most recent allocation run",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	overlayEdits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_edits_total",
		Help: "Weekly overlay mutations by kind",
	}, []string{"kind"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, allocatorRuns, allocatorRunDuration, optimizerFailures, unscheduledSections, cacheHits, cacheMisses, overlayEdits, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:             registry,
		handler:              handler,
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		allocatorRuns:        allocatorRuns,
		allocatorRunDuration: allocatorRunDuration,
		optimizerFailures:    optimizerFailures,
		unscheduledSections:  unscheduledSections,
		cacheHits:            cacheHits,
		cacheMisses:          cacheMisses,
		overlayEdits:         overlayEdits,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveAllocatorRun records one completed run for a strategy.
func (m *MetricsService) ObserveAllocatorRun(strategy string, duration time.Duration, unscheduled int) {
	if m == nil {
		return
	}
	m.allocatorRuns.WithLabelValues(strategy).Inc()
	m.allocatorRunDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	m.unscheduledSections.Set(float64(unscheduled))
}

// RecordOptimizerFailure counts a full optimizer outage.
func (m *MetricsService) RecordOptimizerFailure() {
	if m == nil {
		return
	}
	m.optimizerFailures.Inc()
}

// RecordCacheOperation counts rendered-week cache lookups.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordOverlayEdit counts an overlay mutation by kind.
func (m *MetricsService) RecordOverlayEdit(kind string) {
	if m == nil {
		return
	}
	m.overlayEdits.WithLabelValues(kind).Inc()
}
