// Package metrics provides Prometheus metrics for the rankd leaderboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets are millisecond buckets sized for store round trips.
var defaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // read-only defaults

// Store commands are single round trips; most land well under a millisecond.
var defaultStoreBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 50} //nolint:gochecknoglobals // read-only defaults

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	storeBuckets     []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Store metrics
	storeCommandLatency *prometheus.HistogramVec
	storeCommandErrors  *prometheus.CounterVec

	// Leaderboard metrics
	leaderboardOps         *prometheus.CounterVec
	leaderboardOpLatency   *prometheus.HistogramVec
	registeredLeaderboards *prometheus.GaugeVec
	reconciledLeaderboards *prometheus.CounterVec
	moves                  *prometheus.CounterVec

	// Ingestion metrics
	eventsAccepted  prometheus.Counter
	eventsDuplicate prometheus.Counter
	eventsApplied   prometheus.Counter
	eventsFailed    prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker metrics
	workerActiveCount       prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Error breakdown
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rankd",
		subsystem:        "leaderboard",
		histogramBuckets: defaultLatencyBuckets,
		storeBuckets:     defaultStoreBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets}
}

// initializeMetrics creates all the Prometheus collectors.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	storeOpts := m.histogramOpts("store_command_duration_milliseconds", "Score store command latency in milliseconds")
	storeOpts.Buckets = m.storeBuckets
	m.storeCommandLatency = auto.NewHistogramVec(storeOpts, []string{"backend", "command"})
	m.storeCommandErrors = auto.NewCounterVec(m.counterOpts("store_command_errors_total",
		"Score store command failures"), []string{"backend", "command"})

	m.leaderboardOps = auto.NewCounterVec(m.counterOpts("operations_total",
		"Leaderboard operations by variant, operation and status"), []string{"variant", "operation", "status"})
	m.leaderboardOpLatency = auto.NewHistogramVec(m.histogramOpts("operation_duration_milliseconds",
		"Leaderboard operation latency including lock wait"), []string{"variant", "operation"})
	m.registeredLeaderboards = auto.NewGaugeVec(m.gaugeOpts("registered",
		"Leaderboards registered in this process"), []string{"variant"})
	m.reconciledLeaderboards = auto.NewCounterVec(m.counterOpts("reconciled_total",
		"Orphaned leaderboards wiped at registry construction"), []string{"variant"})
	m.moves = auto.NewCounterVec(m.counterOpts("moves_total",
		"Cross-leaderboard member moves by result"), []string{"variant", "result"})

	m.eventsAccepted = auto.NewCounter(m.counterOpts("events_accepted_total", "Score events accepted for async processing"))
	m.eventsDuplicate = auto.NewCounter(m.counterOpts("events_duplicate_total", "Score events dropped as duplicates"))
	m.eventsApplied = auto.NewCounter(m.counterOpts("events_applied_total", "Score events applied to a leaderboard"))
	m.eventsFailed = auto.NewCounter(m.counterOpts("events_failed_total", "Score events that failed to apply"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status code"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued score events"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum number of queued score events"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size divided by capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Events enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Events dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Enqueue attempts rejected"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts("queue_enqueue_duration_milliseconds", "Enqueue latency"))

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Running ingestion workers"))
	m.workerMessagesPerSecond = auto.NewGauge(m.gaugeOpts("worker_messages_per_second", "Events applied per second"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_duration_milliseconds", "Per-event processing latency"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Worker processing errors"))

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and error type"), []string{"component", "error_type"})
	m.errorsByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Errors by type and severity"), []string{"error_type", "severity"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts("error_latency_milliseconds",
		"Latency of failed requests"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause"))
}

// Store metrics.

// RecordStoreCommandLatency records the latency of one store command.
func RecordStoreCommandLatency(backend, command string, latencyMs float64) {
	globalManager.storeCommandLatency.WithLabelValues(backend, command).Observe(latencyMs)
}

// RecordStoreCommandError counts a failed store command.
func RecordStoreCommandError(backend, command string) {
	globalManager.storeCommandErrors.WithLabelValues(backend, command).Inc()
}

// Leaderboard metrics.

// RecordLeaderboardOperation counts a leaderboard operation and its latency.
func RecordLeaderboardOperation(variant, operation, status string, latencyMs float64) {
	globalManager.leaderboardOps.WithLabelValues(variant, operation, status).Inc()
	globalManager.leaderboardOpLatency.WithLabelValues(variant, operation).Observe(latencyMs)
}

// UpdateRegisteredLeaderboards sets the number of registered leaderboards.
func UpdateRegisteredLeaderboards(variant string, count int) {
	globalManager.registeredLeaderboards.WithLabelValues(variant).Set(float64(count))
}

// RecordReconciledLeaderboards counts orphans wiped at registry construction.
func RecordReconciledLeaderboards(variant string, count int) {
	globalManager.reconciledLeaderboards.WithLabelValues(variant).Add(float64(count))
}

// RecordMove counts a move attempt. result is moved, skipped or error.
func RecordMove(variant, result string) {
	globalManager.moves.WithLabelValues(variant, result).Inc()
}

// Ingestion metrics.

// RecordEventAccepted counts an event accepted by the HTTP layer.
func RecordEventAccepted() { globalManager.eventsAccepted.Inc() }

// RecordEventDuplicate counts a duplicate event.
func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }

// RecordEventApplied counts an event applied by a worker.
func RecordEventApplied() { globalManager.eventsApplied.Inc() }

// RecordEventFailed counts an event a worker could not apply.
func RecordEventFailed() { globalManager.eventsFailed.Inc() }

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue counts an enqueued event.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued event.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metrics.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// UpdateWorkerMessagesPerSecond sets the worker throughput.
func UpdateWorkerMessagesPerSecond(rate float64) { globalManager.workerMessagesPerSecond.Set(rate) }

// RecordWorkerProcessingLatency records per-event processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a worker error.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// Error breakdown.

// RecordErrorByComponent records an error by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records latency for failed requests.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
