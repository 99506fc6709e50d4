// Package metrics provides Prometheus metrics for the atlas
// aggregation service. Swallowed cache and write-back faults are
// counted here so a degraded request never loses its fault signal.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Cache protocol - the core of the aggregation design
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	cacheErrors  *prometheus.CounterVec
	cacheLatency *prometheus.HistogramVec

	// Provider calls
	providerRequests *prometheus.CounterVec
	providerErrors   *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec

	// Write-back pipeline
	writebackEnqueued   prometheus.Counter
	writebackSuppressed prometheus.Counter
	writebackDropped    prometheus.Counter
	writebackUpserts    *prometheus.CounterVec
	writebackErrors     *prometheus.CounterVec
	rowsDropped         *prometheus.CounterVec

	// Queue health
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge

	// Writes through the API
	userEventsCreated prometheus.Counter

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "atlas",
		subsystem:        "aggregator",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus collectors.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.cacheHits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Searches answered from the geospatial cache without a provider call",
	}, []string{"entity"})

	m.cacheMisses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Searches that fell through to a provider",
	}, []string{"entity"})

	m.cacheErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_errors_total",
		Help:      "Cache store failures swallowed on the read path (operator fault signal)",
	}, []string{"entity"})

	m.cacheLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_query_duration_seconds",
		Help:      "Latency of geospatial cache queries",
		Buckets:   m.histogramBuckets,
	}, []string{"entity"})

	m.providerRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_requests_total",
		Help:      "Outbound provider search calls",
	}, []string{"provider", "operation"})

	m.providerErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_errors_total",
		Help:      "Failed provider calls by kind (status, transport)",
	}, []string{"provider", "kind"})

	m.providerLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_request_duration_seconds",
		Help:      "Latency of outbound provider calls",
		Buckets:   m.histogramBuckets,
	}, []string{"provider", "operation"})

	m.writebackEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_jobs_enqueued_total",
		Help:      "Write-back jobs accepted by the queue",
	})

	m.writebackSuppressed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_rows_suppressed_total",
		Help:      "Rows skipped because their conflict key was recently written back",
	})

	m.writebackDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_jobs_dropped_total",
		Help:      "Write-back jobs dropped on queue backpressure",
	})

	m.writebackUpserts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_rows_upserted_total",
		Help:      "Rows upserted into the cache store",
	}, []string{"entity"})

	m.writebackErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_errors_total",
		Help:      "Cache store upsert failures (operator fault signal)",
	}, []string{"entity"})

	m.rowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_dropped_malformed_total",
		Help:      "Rows or provider results dropped during normalization",
	}, []string{"entity", "stage"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_queue_size",
		Help:      "Current number of queued write-back jobs",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_queue_capacity",
		Help:      "Configured write-back queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_queue_utilization",
		Help:      "Queue fill ratio between 0 and 1",
	})

	m.userEventsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "user_events_created_total",
		Help:      "Events created through the write API",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by endpoint, method and status code",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Package-level recording helpers on the global manager.

// RecordCacheHit counts a search answered entirely from the cache.
func RecordCacheHit(entity string) { globalManager.cacheHits.WithLabelValues(entity).Inc() }

// RecordCacheMiss counts a search that fell through to a provider.
func RecordCacheMiss(entity string) { globalManager.cacheMisses.WithLabelValues(entity).Inc() }

// RecordCacheError counts a swallowed cache store failure.
func RecordCacheError(entity string) { globalManager.cacheErrors.WithLabelValues(entity).Inc() }

// RecordCacheQueryDuration observes a cache query latency in seconds.
func RecordCacheQueryDuration(entity string, seconds float64) {
	globalManager.cacheLatency.WithLabelValues(entity).Observe(seconds)
}

// RecordProviderRequest counts an outbound provider call.
func RecordProviderRequest(provider, operation string) {
	globalManager.providerRequests.WithLabelValues(provider, operation).Inc()
}

// RecordProviderError counts a failed provider call.
func RecordProviderError(provider, kind string) {
	globalManager.providerErrors.WithLabelValues(provider, kind).Inc()
}

// RecordProviderDuration observes a provider call latency in seconds.
func RecordProviderDuration(provider, operation string, seconds float64) {
	globalManager.providerLatency.WithLabelValues(provider, operation).Observe(seconds)
}

// RecordWritebackEnqueued counts an accepted write-back job.
func RecordWritebackEnqueued() { globalManager.writebackEnqueued.Inc() }

// RecordWritebackSuppressed counts rows skipped by the deduper.
func RecordWritebackSuppressed(n int) {
	globalManager.writebackSuppressed.Add(float64(n))
}

// RecordWritebackDropped counts a job rejected on backpressure.
func RecordWritebackDropped() { globalManager.writebackDropped.Inc() }

// RecordWritebackUpserts counts rows written to the cache store.
func RecordWritebackUpserts(entity string, n int) {
	globalManager.writebackUpserts.WithLabelValues(entity).Add(float64(n))
}

// RecordWritebackError counts a failed cache store upsert.
func RecordWritebackError(entity string) {
	globalManager.writebackErrors.WithLabelValues(entity).Inc()
}

// RecordRowDropped counts a malformed row or provider result dropped
// during normalization. Stage is "normalize" or "fromrow".
func RecordRowDropped(entity, stage string) {
	globalManager.rowsDropped.WithLabelValues(entity, stage).Inc()
}

// UpdateQueueSize sets the current queue depth gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the configured queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue fill ratio gauge.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordUserEventCreated counts a write-API event creation.
func RecordUserEventCreated() { globalManager.userEventsCreated.Inc() }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request latency in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
