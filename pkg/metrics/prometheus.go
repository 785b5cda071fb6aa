// Package metrics provides Prometheus metrics for the pwrank service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Iteration buckets cover the default MM cap of 200.
var fitIterationBuckets = []float64{1, 2, 5, 10, 20, 50, 100, 150, 200, 500}

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ranking metrics
	judgmentsReceived  prometheus.Counter
	judgmentsDuplicate prometheus.Counter
	judgmentsApplied   prometheus.Counter
	judgmentsRejected  *prometheus.CounterVec
	fitLatency         prometheus.Histogram
	fitIterations      prometheus.Histogram
	fits               *prometheus.CounterVec
	fitsRegularized    prometheus.Counter
	fitErrors          *prometheus.CounterVec
	selections         *prometheus.CounterVec
	sessions           prometheus.Gauge

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     *prometheus.CounterVec
	queueProcessingLatency prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pwrank",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.judgmentsReceived = m.counter("judgments_received_total", "Total number of judgments submitted")
	m.judgmentsDuplicate = m.counter("judgments_duplicate_total", "Total number of duplicate judgments ignored")
	m.judgmentsApplied = m.counter("judgments_applied_total", "Total number of judgments applied to a session")
	m.judgmentsRejected = m.counterVec("judgments_rejected_total", "Total number of judgments rejected", "reason")
	m.fitLatency = m.histogram("fit_latency_milliseconds", "Bradley-Terry fit latency in milliseconds", m.histogramBuckets)
	m.fitIterations = m.histogram("fit_iterations", "MM iterations per fit", fitIterationBuckets)
	m.fits = m.counterVec("fits_total", "Total number of fits by result", "result")
	m.fitsRegularized = m.counter("fits_regularized_total", "Fits that needed prior pseudo-counts")
	m.fitErrors = m.counterVec("fit_errors_total", "Fit failures by error kind", "kind")
	m.selections = m.counterVec("selections_total", "Next-pair selections by strategy", "strategy")
	m.sessions = m.gauge("sessions", "Number of ranking sessions held in memory")

	m.queueSize = m.gauge("queue_size", "Current size of the judgment queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum judgment queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (size / capacity)")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of judgments enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of judgments dequeued")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Enqueue failures by reason", "reason")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Number of judgment workers")
	m.workerMessagesPerSecond = m.gauge("worker_messages_per_second", "Judgments applied per second by the pool")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-judgment worker latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of worker errors")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordJudgmentReceived increments the submitted judgments counter.
func RecordJudgmentReceived() { globalManager.judgmentsReceived.Inc() }

// RecordJudgmentDuplicate increments the duplicate judgments counter.
func RecordJudgmentDuplicate() { globalManager.judgmentsDuplicate.Inc() }

// RecordJudgmentApplied increments the applied judgments counter.
func RecordJudgmentApplied() { globalManager.judgmentsApplied.Inc() }

// RecordJudgmentRejected counts a judgment rejected for reason.
func RecordJudgmentRejected(reason string) {
	globalManager.judgmentsRejected.WithLabelValues(reason).Inc()
}

// RecordFit records a completed fit.
func RecordFit(latencyMs float64, iterations int, converged, regularized bool) {
	globalManager.fitLatency.Observe(latencyMs)
	globalManager.fitIterations.Observe(float64(iterations))
	result := "converged"
	if !converged {
		result = "not_converged"
	}
	globalManager.fits.WithLabelValues(result).Inc()
	if regularized {
		globalManager.fitsRegularized.Inc()
	}
}

// RecordFitError counts a failed fit by error kind.
func RecordFitError(kind string) {
	globalManager.fits.WithLabelValues("error").Inc()
	globalManager.fitErrors.WithLabelValues(kind).Inc()
}

// RecordSelection counts a next-pair selection by strategy.
func RecordSelection(strategy string) {
	globalManager.selections.WithLabelValues(strategy).Inc()
}

// UpdateSessions sets the number of in-memory sessions.
func UpdateSessions(count int) { globalManager.sessions.Set(float64(count)) }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts an enqueue failure by reason.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerMessagesPerSecond sets the pool throughput.
func UpdateWorkerMessagesPerSecond(rate float64) { globalManager.workerMessagesPerSecond.Set(rate) }

// RecordWorkerProcessingLatency records per-judgment worker latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
