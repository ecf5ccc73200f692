// Package metrics provides Prometheus metrics for the sailwind analysis pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ingest
	filesLoaded      prometheus.Counter
	filesSkipped     *prometheus.CounterVec
	pointsProcessed  prometheus.Counter
	loadLatency      prometheus.Histogram
	loadTimeTotal    prometheus.Counter
	filesDownsampled prometheus.Counter
	chunksProcessed  prometheus.Counter

	// Estimation
	estimatesProduced    prometheus.Counter
	estimationConditions *prometheus.CounterVec
	estimationLatency    prometheus.Histogram

	// Fusion
	fieldsFused      prometheus.Counter
	forecastsMade    prometheus.Counter
	forecastFailures prometheus.Counter
	fusionSources    prometheus.Gauge

	// Detection
	detections        *prometheus.CounterVec
	duplicatesDropped *prometheus.CounterVec
	thresholdDrops    prometheus.Counter
	detectionLatency  prometheus.Histogram

	// Service
	analysesTotal prometheus.Counter
	storedRuns    prometheus.Gauge

	// Worker pool
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	queueSize               prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
	memoryReclaims       prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sailwind",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

func (m *Manager) counter(n, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(n),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(n, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(n),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(n, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(n),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(n, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(n),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every series
	m.filesLoaded = m.counter("files_loaded_total", "Track files parsed into vessel tracks")
	m.filesSkipped = m.counterVec("files_skipped_total", "Track files excluded from a batch", "reason")
	m.pointsProcessed = m.counter("points_processed_total", "Track points that survived normalization")
	m.loadLatency = m.histogram("load_latency_milliseconds", "Per-file load latency in milliseconds", m.histogramBuckets)
	m.loadTimeTotal = m.counter("load_time_seconds_total", "Cumulative time spent loading track files")
	m.filesDownsampled = m.counter("files_downsampled_total", "Tracks decimated because they exceeded the point threshold")
	m.chunksProcessed = m.counter("chunks_processed_total", "Fixed-size track chunks normalized")

	m.estimatesProduced = m.counter("estimates_produced_total", "Wind estimates emitted by the per-vessel estimator")
	m.estimationConditions = m.counterVec("estimation_conditions_total", "Vessels that produced no estimate, by reason", "reason")
	m.estimationLatency = m.histogram("estimation_latency_milliseconds", "Per-vessel estimation latency in milliseconds", m.histogramBuckets)

	m.fieldsFused = m.counter("fields_fused_total", "Wind field snapshots produced by fusion")
	m.forecastsMade = m.counter("forecasts_total", "Predicted wind fields produced")
	m.forecastFailures = m.counter("forecast_failures_total", "Forecast requests that could not be served")
	m.fusionSources = m.gauge("fusion_sources", "Vessels contributing to the latest fused field")

	m.detections = m.counterVec("detections_total", "Strategic points detected before deduplication", "variant", "stage")
	m.duplicatesDropped = m.counterVec("duplicates_dropped_total", "Strategic points removed as duplicates", "variant")
	m.thresholdDrops = m.counter("threshold_drops_total", "Wind shifts dropped below the confidence threshold")
	m.detectionLatency = m.histogram("detection_latency_milliseconds", "Detector run latency in milliseconds", m.histogramBuckets)

	m.analysesTotal = m.counter("analyses_total", "Completed analysis runs")
	m.storedRuns = m.gauge("stored_runs", "Analysis runs currently held in the run store")

	m.workerActiveCount = m.gauge("worker_active_count", "Ingest workers currently running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Ingest job latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Ingest jobs that returned an error")
	m.queueSize = m.gauge("queue_size", "Ingest jobs waiting in the queue")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
	m.memoryReclaims = m.counter("memory_reclaims_total", "Advisory reclamation passes triggered by memory pressure")
}

// Ingest.

// RecordFileLoaded counts a parsed file and its surviving points.
func RecordFileLoaded(points int) {
	if !globalManager.enabled {
		return
	}
	globalManager.filesLoaded.Inc()
	globalManager.pointsProcessed.Add(float64(points))
}

// RecordFileSkipped counts a file excluded from a batch.
func RecordFileSkipped(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.filesSkipped.WithLabelValues(reason).Inc()
}

// RecordLoadLatency observes per-file latency and adds it to the cumulative load time.
func RecordLoadLatency(d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.loadLatency.Observe(float64(d.Milliseconds()))
	globalManager.loadTimeTotal.Add(d.Seconds())
}

// RecordDownsample counts a decimated track.
func RecordDownsample() {
	if !globalManager.enabled {
		return
	}
	globalManager.filesDownsampled.Inc()
}

// RecordChunk counts a normalized chunk.
func RecordChunk() {
	if !globalManager.enabled {
		return
	}
	globalManager.chunksProcessed.Inc()
}

// Estimation.

// RecordEstimates counts emitted wind estimates and observes the run latency.
func RecordEstimates(n int, d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.estimatesProduced.Add(float64(n))
	globalManager.estimationLatency.Observe(float64(d.Milliseconds()))
}

// RecordEstimationCondition counts a vessel that produced no estimate.
func RecordEstimationCondition(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.estimationConditions.WithLabelValues(reason).Inc()
}

// Fusion.

// RecordFieldFused counts a fused snapshot built from sources vessels.
func RecordFieldFused(sources int) {
	if !globalManager.enabled {
		return
	}
	globalManager.fieldsFused.Inc()
	globalManager.fusionSources.Set(float64(sources))
}

// RecordForecast counts a produced forecast.
func RecordForecast() {
	if !globalManager.enabled {
		return
	}
	globalManager.forecastsMade.Inc()
}

// RecordForecastFailure counts a forecast that could not be served.
func RecordForecastFailure() {
	if !globalManager.enabled {
		return
	}
	globalManager.forecastFailures.Inc()
}

// Detection.

// RecordDetections counts raw detections for a variant at a stage.
func RecordDetections(variant, stage string, n int) {
	if !globalManager.enabled || n == 0 {
		return
	}
	globalManager.detections.WithLabelValues(variant, stage).Add(float64(n))
}

// RecordDuplicatesDropped counts detections removed by a dedupe pass.
func RecordDuplicatesDropped(variant string, n int) {
	if !globalManager.enabled || n == 0 {
		return
	}
	globalManager.duplicatesDropped.WithLabelValues(variant).Add(float64(n))
}

// RecordThresholdDrops counts wind shifts below the confidence threshold.
func RecordThresholdDrops(n int) {
	if !globalManager.enabled || n == 0 {
		return
	}
	globalManager.thresholdDrops.Add(float64(n))
}

// RecordDetectionLatency observes one detector run.
func RecordDetectionLatency(d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.detectionLatency.Observe(float64(d.Milliseconds()))
}

// Service.

// RecordAnalysis counts a completed analysis run.
func RecordAnalysis() {
	if !globalManager.enabled {
		return
	}
	globalManager.analysesTotal.Inc()
}

// UpdateStoredRuns sets the number of runs held in the run store.
func UpdateStoredRuns(n int) {
	globalManager.storedRuns.Set(float64(n))
}

// Worker pool.

// UpdateWorkerActiveCount sets the number of running ingest workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records ingest job latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateQueueSize sets the number of queued ingest jobs.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RecordMemoryReclaim counts an advisory reclamation pass.
func RecordMemoryReclaim() {
	globalManager.memoryReclaims.Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Sum returns the sum of all samples of a counter or gauge family in the
// custom registry. name is the fully qualified metric name.
func Sum(name string) (float64, error) {
	families, err := customRegistry.Gather()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrGatherFailed, err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			}
		}
		return total, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrMetricNotFound, name)
}
