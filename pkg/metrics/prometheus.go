// Package metrics provides Prometheus metrics for the event engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace string
	registry  prometheus.Registerer

	// Business metrics.
	eventsCreated   prometheus.Counter
	eventsCompleted prometheus.Counter
	creationDenied  *prometheus.CounterVec
	projections     *prometheus.CounterVec
	expAwarded      prometheus.Counter
	zeroAwards      prometheus.Counter
	levelUps        prometheus.Counter

	// Audit pipeline metrics.
	auditAppends   prometheus.Counter
	auditQueueSize prometheus.Gauge
	auditDrops     prometheus.Counter

	// Store metrics.
	storeShardCount    prometheus.Gauge
	storeUpdateLatency prometheus.Histogram

	// Worker metrics.
	workerCount       prometheus.Gauge
	workerErrors      prometheus.Counter
	workerProcLatency prometheus.Histogram

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics, updated by the process itself since the default Go
	// collectors are not registered.
	systemMemoryBytes prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	systemGCPause     prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "encore",
		registry:  prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.eventsCreated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_created_total",
		Help:      "Events successfully created.",
	})
	m.eventsCompleted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_completed_total",
		Help:      "Events transitioned to completed.",
	})
	m.creationDenied = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "event_creation_denied_total",
		Help:      "Event creations denied by plan limits, by reason.",
	}, []string{"reason"})
	m.projections = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "projections_computed_total",
		Help:      "Projections computed, by kind.",
	}, []string{"kind"})
	m.expAwarded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "exp_awarded_points_total",
		Help:      "Total EXP points granted.",
	})
	m.zeroAwards = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "exp_zero_awards_total",
		Help:      "Success awards that granted zero EXP (low attendance).",
	})
	m.levelUps = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "level_ups_total",
		Help:      "User level-ups.",
	})

	m.auditAppends = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "audit_appends_total",
		Help:      "Audit entries persisted.",
	})
	m.auditQueueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "audit_queue_size",
		Help:      "Entries currently buffered in the audit queue.",
	})
	m.auditDrops = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "audit_queue_drops_total",
		Help:      "Audit entries dropped due to backpressure or shutdown.",
	})

	m.storeShardCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "store_shard_count",
		Help:      "Configured user shards in the in-memory store.",
	})
	m.storeUpdateLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "store_update_latency_ms",
		Help:      "Latency of atomic EXP state updates in milliseconds.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "audit_writer_count",
		Help:      "Audit writers running.",
	})
	m.workerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "audit_writer_errors_total",
		Help:      "Audit writer persistence failures.",
	})
	m.workerProcLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "audit_writer_latency_ms",
		Help:      "Audit entry persistence latency in milliseconds.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests, by endpoint, method, and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"endpoint", "method", "status"})

	m.systemMemoryBytes = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "system_memory_bytes",
		Help:      "Heap bytes currently allocated.",
	})
	m.systemGoroutines = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "system_goroutines",
		Help:      "Goroutines currently running.",
	})
	m.systemGCPause = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "system_gc_pause_ms",
		Help:      "Average GC pause time in milliseconds.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	return m
}

// GetRegistry returns the registry serving /healthz metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Business metric helpers.

// RecordEventCreated counts a successful event creation.
func RecordEventCreated() { globalManager.eventsCreated.Inc() }

// RecordEventCompleted counts a completion transition.
func RecordEventCompleted() { globalManager.eventsCompleted.Inc() }

// RecordCreationDenied counts a plan denial by reason.
func RecordCreationDenied(reason string) {
	globalManager.creationDenied.WithLabelValues(reason).Inc()
}

// RecordProjection counts a computed projection by kind
// ("attendance", "financial", "prediction").
func RecordProjection(kind string) {
	globalManager.projections.WithLabelValues(kind).Inc()
}

// RecordExpAwarded accumulates granted EXP; zero-amount awards are tracked
// separately.
func RecordExpAwarded(amount int, leveledUp bool) {
	if amount > 0 {
		globalManager.expAwarded.Add(float64(amount))
	} else {
		globalManager.zeroAwards.Inc()
	}
	if leveledUp {
		globalManager.levelUps.Inc()
	}
}

// Audit pipeline helpers.

// RecordAuditAppend counts a persisted audit entry.
func RecordAuditAppend() { globalManager.auditAppends.Inc() }

// UpdateAuditQueueSize tracks the queue depth.
func UpdateAuditQueueSize(size int) { globalManager.auditQueueSize.Set(float64(size)) }

// RecordAuditQueueDrop counts a dropped audit entry.
func RecordAuditQueueDrop() { globalManager.auditDrops.Inc() }

// Store helpers.

// UpdateStoreShardCount tracks the configured shard count.
func UpdateStoreShardCount(count int) { globalManager.storeShardCount.Set(float64(count)) }

// RecordStoreUpdateLatency tracks one atomic update's latency.
func RecordStoreUpdateLatency(ms float64) { globalManager.storeUpdateLatency.Observe(ms) }

// Worker helpers.

// UpdateWorkerCount tracks running audit writers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerError counts a writer failure.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordWorkerProcessingLatency tracks one entry's persistence latency.
func RecordWorkerProcessingLatency(ms float64) { globalManager.workerProcLatency.Observe(ms) }

// HTTP helpers.

// RecordHTTPRequest counts a request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration tracks a request's duration.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// System helpers.

// UpdateSystemMemoryUsage tracks allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryBytes.Set(float64(bytes)) }

// UpdateSystemGoroutineCount tracks the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutines.Set(float64(count)) }

// RecordSystemGCPauseTime tracks the average GC pause.
func RecordSystemGCPauseTime(ms float64) { globalManager.systemGCPause.Observe(ms) }
