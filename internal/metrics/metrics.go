// Package metrics provides Prometheus metrics collection for the hackathon service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, path, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, path, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// CacheOperationsTotal tracks page cache operations.
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of page cache operations",
		},
		[]string{"operation", "result"},
	)

	// CacheEntries tracks the current number of cache entries.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of page cache entries",
		},
	)

	// CacheCapacity tracks the configured entry limit.
	CacheCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_capacity",
			Help: "Maximum number of page cache entries",
		},
	)

	// CacheMemoryBytes tracks the estimated cache footprint.
	CacheMemoryBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_memory_estimated_bytes",
			Help: "Estimated page cache memory usage in bytes",
		},
	)

	// CacheMemoryLimitBytes tracks the configured memory limit.
	CacheMemoryLimitBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_memory_limit_bytes",
			Help: "Page cache memory limit in bytes",
		},
	)

	// CacheFetchDuration tracks upstream fetches issued by cache bindings.
	CacheFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_fetch_duration_seconds",
			Help:    "Duration of cache binding fetches in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"mode", "result"},
	)

	// CircuitBreakerState tracks breaker state (0 closed, 1 open, 2 half-open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open",
		},
		[]string{"name"},
	)

	// AuditEventsTotal tracks audit events by outcome.
	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Total number of audit events by result",
		},
		[]string{"result"},
	)

	// RateLimitedTotal tracks requests rejected by a rate limiter, by key scope.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of requests rejected by rate limiting",
		},
		[]string{"scope"},
	)
)

// PrometheusMiddleware returns a Gin middleware that collects HTTP metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration)
		HTTPRequestTotal.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordCacheOperation records metrics for a cache operation.
func RecordCacheOperation(operation, result string) {
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// UpdateCacheMetrics updates cache size and memory gauges.
func UpdateCacheMetrics(size, capacity int, memory, maxMemory int64) {
	CacheEntries.Set(float64(size))
	CacheCapacity.Set(float64(capacity))
	CacheMemoryBytes.Set(float64(memory))
	CacheMemoryLimitBytes.Set(float64(maxMemory))
}

// RecordCacheFetch records the latency and outcome of one binding fetch.
func RecordCacheFetch(duration time.Duration, foreground bool, err error) {
	mode := "background"
	if foreground {
		mode = "foreground"
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	CacheFetchDuration.WithLabelValues(mode, result).Observe(duration.Seconds())
}

// SetCircuitBreakerState publishes the numeric state of a named breaker.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordRateLimited counts one rejected request for scope (ip, subject).
func RecordRateLimited(scope string) {
	RateLimitedTotal.WithLabelValues(scope).Inc()
}

// RecordAuditEvents counts n audit events with one outcome (written, failed, dropped).
func RecordAuditEvents(result string, n int) {
	AuditEventsTotal.WithLabelValues(result).Add(float64(n))
}

// CacheRecorder forwards page cache signals to the Prometheus collectors.
// Pass it to cache.WithRecorder.
type CacheRecorder struct{}

// RecordOperation implements cache.Recorder.
func (CacheRecorder) RecordOperation(operation, result string) {
	RecordCacheOperation(operation, result)
}

// RecordSize implements cache.Recorder.
func (CacheRecorder) RecordSize(size, capacity int, memory, maxMemory int64) {
	UpdateCacheMetrics(size, capacity, memory, maxMemory)
}

// RecordFetch implements cache.FetchRecorder.
func (CacheRecorder) RecordFetch(duration time.Duration, foreground bool, err error) {
	RecordCacheFetch(duration, foreground, err)
}
