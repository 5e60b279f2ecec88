// Package metrics provides Prometheus metrics for the behavioral scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace string
	registry  prometheus.Registerer

	// Scoring metrics
	scoresComputed  *prometheus.CounterVec
	scoringDuration *prometheus.HistogramVec
	scoringErrors   *prometheus.CounterVec
	tierResults     *prometheus.CounterVec

	// Cache metrics
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheStale  prometheus.Counter

	// Event store metrics
	storeQueryDuration *prometheus.HistogramVec
	storeQueryErrors   *prometheus.CounterVec
	storeQueryTimeouts *prometheus.CounterVec

	// Batch scan metrics
	batchSubjectsScored prometheus.Counter
	batchScanDuration   prometheus.Histogram
	batchWorkerCount    prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "pulse",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.scoresComputed = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "scores_computed_total",
		Help:      "Number of score computations, by pipeline.",
	}, []string{"pipeline"})

	m.scoringDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "scoring_duration_ms",
		Help:      "Wall-clock duration of a full score computation in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"pipeline"})

	m.scoringErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "scoring_errors_total",
		Help:      "Number of failed score computations, by pipeline.",
	}, []string{"pipeline"})

	m.tierResults = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "tier_results_total",
		Help:      "Distribution of classified tiers, by pipeline and tier.",
	}, []string{"pipeline", "tier"})

	m.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cache_hits_total",
		Help:      "Number of score cache hits within the freshness window.",
	})

	m.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cache_misses_total",
		Help:      "Number of score cache misses (no entry).",
	})

	m.cacheStale = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cache_stale_total",
		Help:      "Number of cache entries rejected as older than max age.",
	})

	m.storeQueryDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "store_query_duration_ms",
		Help:      "Event store query duration in milliseconds, by source.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"source"})

	m.storeQueryErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "store_query_errors_total",
		Help:      "Event store query failures, by source.",
	}, []string{"source"})

	m.storeQueryTimeouts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "store_query_timeouts_total",
		Help:      "Event store queries degraded to empty input after timeout, by source.",
	}, []string{"source"})

	m.batchSubjectsScored = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "batch_subjects_scored_total",
		Help:      "Number of subjects scored by the high-risk batch scan.",
	})

	m.batchScanDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "batch_scan_duration_ms",
		Help:      "Duration of a full high-risk scan in milliseconds.",
		Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 15000},
	})

	m.batchWorkerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "batch_worker_count",
		Help:      "Configured worker count for the batch scan pool.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"endpoint", "method", "status"})
}

// Package-level helpers on the global manager.

// RecordScoreComputed increments the computed-score counter for a pipeline.
func RecordScoreComputed(pipeline string) {
	globalManager.scoresComputed.WithLabelValues(pipeline).Inc()
}

// RecordScoringDuration observes a full scoring duration.
func RecordScoringDuration(pipeline string, ms float64) {
	globalManager.scoringDuration.WithLabelValues(pipeline).Observe(ms)
}

// RecordScoringError increments the scoring-error counter for a pipeline.
func RecordScoringError(pipeline string) {
	globalManager.scoringErrors.WithLabelValues(pipeline).Inc()
}

// RecordTierResult counts a classified tier.
func RecordTierResult(pipeline, tier string) {
	globalManager.tierResults.WithLabelValues(pipeline, tier).Inc()
}

// RecordCacheHit counts a fresh cache hit.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss counts a cache miss.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// RecordCacheStale counts an entry rejected for staleness.
func RecordCacheStale() { globalManager.cacheStale.Inc() }

// RecordStoreQueryDuration observes an event store query duration.
func RecordStoreQueryDuration(source string, ms float64) {
	globalManager.storeQueryDuration.WithLabelValues(source).Observe(ms)
}

// RecordStoreQueryError counts an event store query failure.
func RecordStoreQueryError(source string) {
	globalManager.storeQueryErrors.WithLabelValues(source).Inc()
}

// RecordStoreQueryTimeout counts a query degraded after timeout.
func RecordStoreQueryTimeout(source string) {
	globalManager.storeQueryTimeouts.WithLabelValues(source).Inc()
}

// RecordBatchSubjectScored counts one subject scored during a batch scan.
func RecordBatchSubjectScored() { globalManager.batchSubjectsScored.Inc() }

// RecordBatchScanDuration observes a full batch scan duration.
func RecordBatchScanDuration(ms float64) { globalManager.batchScanDuration.Observe(ms) }

// UpdateBatchWorkerCount sets the configured batch worker count.
func UpdateBatchWorkerCount(count int) { globalManager.batchWorkerCount.Set(float64(count)) }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
