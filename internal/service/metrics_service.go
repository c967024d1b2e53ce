package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/crew-booking-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	syncOperations  *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec
	tokenRefreshes  *prometheus.CounterVec
	keepAliveRuns   *prometheus.CounterVec
	syncQueueDepth  prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	syncSucceeded        uint64
	syncFailed           uint64
	tokenRefreshFailed   uint64
	queueDepth           int64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	syncOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_sync_operations_total",
		Help: "External calendar sync operations by action and outcome",
	}, []string{"action", "outcome"})

	syncDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calendar_sync_duration_seconds",
		Help:    "Duration of a single (assignment, connection) sync",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	tokenRefreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_token_refresh_total",
		Help: "OAuth token refresh attempts by outcome",
	}, []string{"outcome"})

	keepAliveRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_keepalive_checks_total",
		Help: "Keep-alive connection checks by outcome",
	}, []string{"outcome"})

	syncQueueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "calendar_sync_queue_depth",
		Help: "Pending sync jobs waiting for a worker",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		syncOperations, syncDuration, tokenRefreshes, keepAliveRuns, syncQueueDepth, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		syncOperations:  syncOperations,
		syncDuration:    syncDuration,
		tokenRefreshes:  tokenRefreshes,
		keepAliveRuns:   keepAliveRuns,
		syncQueueDepth:  syncQueueDepth,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSync records one (assignment, connection) sync outcome.
func (m *MetricsService) ObserveSync(action string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if success {
		atomic.AddUint64(&m.syncSucceeded, 1)
	} else {
		outcome = "failure"
		atomic.AddUint64(&m.syncFailed, 1)
	}
	m.syncOperations.WithLabelValues(action, outcome).Inc()
	m.syncDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// ObserveTokenRefresh counts refresh attempts.
func (m *MetricsService) ObserveTokenRefresh(success bool) {
	if m == nil {
		return
	}
	if success {
		m.tokenRefreshes.WithLabelValues("success").Inc()
		return
	}
	atomic.AddUint64(&m.tokenRefreshFailed, 1)
	m.tokenRefreshes.WithLabelValues("failure").Inc()
}

// ObserveKeepAlive counts keep-alive checks per connection.
func (m *MetricsService) ObserveKeepAlive(outcome string) {
	if m == nil {
		return
	}
	m.keepAliveRuns.WithLabelValues(outcome).Inc()
}

// SetSyncQueueDepth publishes the number of queued sync jobs.
func (m *MetricsService) SetSyncQueueDepth(depth int) {
	if m == nil {
		return
	}
	atomic.StoreInt64(&m.queueDepth, int64(depth))
	m.syncQueueDepth.Set(float64(depth))
}

// Snapshot returns aggregated counters suitable for the health endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHitRatio:            cacheRatio,
		SyncSucceeded:            atomic.LoadUint64(&m.syncSucceeded),
		SyncFailed:               atomic.LoadUint64(&m.syncFailed),
		TokenRefreshFailures:     atomic.LoadUint64(&m.tokenRefreshFailed),
		SyncQueueDepth:           int(atomic.LoadInt64(&m.queueDepth)),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
