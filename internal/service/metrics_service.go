package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	queryRows       prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
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

	queryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendance_query_duration_seconds",
		Help:    "Duration of attendance engine queries by scope kind",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})

	queryRows := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "attendance_query_rows",
		Help:    "Flattened row count per attendance query before pagination",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scope_cache_hits_total",
		Help: "Teacher scope cache hits",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scope_cache_misses_total",
		Help: "Teacher scope cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, queryDuration, queryRows, cacheHits, cacheMisses)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		queryDuration:   queryDuration,
		queryRows:       queryRows,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveAttendanceQuery records one engine query.
func (m *MetricsService) ObserveAttendanceQuery(scope string, rows int, duration time.Duration) {
	m.queryDuration.WithLabelValues(scope).Observe(duration.Seconds())
	m.queryRows.Observe(float64(rows))
}

// RecordScopeCache counts scope cache lookups.
func (m *MetricsService) RecordScopeCache(hit bool) {
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}
