// Package metrics provides Prometheus metrics for the watershed analysis service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Analysis kinds used as label values.
const (
	KindFlowPath          = "flow_path"
	KindWatershed         = "watershed"
	KindWatershedContours = "watershed_contours"
	KindContours          = "contours"
	KindGrid              = "grid"
	KindPlacement         = "placement"
	KindBuildability      = "buildability"
)

// Analysis outcomes used as label values.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Analysis metrics
	analyses         *prometheus.CounterVec
	analysisLatency  *prometheus.HistogramVec
	fallbacks        *prometheus.CounterVec
	basinCells       prometheus.Histogram
	gridPoints       *prometheus.CounterVec
	contourFeatures  prometheus.Counter
	flowGridsBuilt   prometheus.Counter
	demFetches       *prometheus.CounterVec
	demFetchDuration prometheus.Histogram

	// Job pipeline metrics
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueRejections prometheus.Counter
	jobs            *prometheus.CounterVec
	jobDuration     prometheus.Histogram
	workerCount     prometheus.Gauge
	storedJobs      prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "watershed",
		subsystem:        "analysis",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
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

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.analyses = auto.NewCounterVec(
		m.counterOpts("analyses_total", "Analyses run, by kind and outcome"),
		[]string{"kind", "outcome"},
	)
	m.analysisLatency = auto.NewHistogramVec(
		m.histogramOpts("analysis_latency_milliseconds", "Analysis latency in milliseconds", m.histogramBuckets),
		[]string{"kind"},
	)
	m.fallbacks = auto.NewCounterVec(
		m.counterOpts("fallbacks_total", "Fallback results returned, by kind and reason"),
		[]string{"kind", "reason"},
	)
	m.basinCells = auto.NewHistogram(
		m.histogramOpts("basin_cells", "Number of raster cells in delineated basins",
			prometheus.ExponentialBuckets(3, 4, 10)),
	)
	m.gridPoints = auto.NewCounterVec(
		m.counterOpts("grid_points_total", "Grid sampler lattice points, by result"),
		[]string{"result"},
	)
	m.contourFeatures = auto.NewCounter(
		m.counterOpts("contour_features_total", "Contour line features produced"),
	)
	m.flowGridsBuilt = auto.NewCounter(
		m.counterOpts("flow_grids_total", "D8 flow direction grids computed"),
	)
	m.demFetches = auto.NewCounterVec(
		m.counterOpts("dem_fetches_total", "DEM window fetches, by source and outcome"),
		[]string{"source", "outcome"},
	)
	m.demFetchDuration = auto.NewHistogram(
		m.histogramOpts("dem_fetch_milliseconds", "DEM window fetch latency in milliseconds", m.histogramBuckets),
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("job_queue_size", "Grid jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("job_queue_capacity", "Capacity of the grid job queue"))
	m.queueRejections = auto.NewCounter(
		m.counterOpts("job_queue_rejections_total", "Grid jobs rejected because the queue was full or closed"),
	)
	m.jobs = auto.NewCounterVec(
		m.counterOpts("jobs_total", "Grid jobs by terminal state"),
		[]string{"state"},
	)
	m.jobDuration = auto.NewHistogram(
		m.histogramOpts("job_duration_milliseconds", "Grid job processing time in milliseconds", m.histogramBuckets),
	)
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Grid job workers"))
	m.storedJobs = auto.NewGauge(m.gaugeOpts("stored_jobs", "Jobs held by the job store"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds", prometheus.DefBuckets),
	)
}

// RecordAnalysis counts one analysis of kind with the given outcome and latency.
func RecordAnalysis(kind, outcome string, latency time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.analyses.WithLabelValues(kind, outcome).Inc()
	globalManager.analysisLatency.WithLabelValues(kind).Observe(float64(latency.Microseconds()) / 1000)
}

// RecordFallback counts a fallback result.
func RecordFallback(kind, reason string) {
	if globalManager.enabled {
		globalManager.fallbacks.WithLabelValues(kind, reason).Inc()
	}
}

// ObserveBasinCells records the size of a delineated basin.
func ObserveBasinCells(cells int) {
	if globalManager.enabled {
		globalManager.basinCells.Observe(float64(cells))
	}
}

// AddGridPoints counts n lattice points as "kept" or "dropped".
func AddGridPoints(result string, n int) {
	if globalManager.enabled && n > 0 {
		globalManager.gridPoints.WithLabelValues(result).Add(float64(n))
	}
}

// AddContourFeatures counts produced contour features.
func AddContourFeatures(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.contourFeatures.Add(float64(n))
	}
}

// RecordFlowGrid counts one computed D8 grid.
func RecordFlowGrid() {
	if globalManager.enabled {
		globalManager.flowGridsBuilt.Inc()
	}
}

// RecordDEMFetch records one DEM window fetch.
func RecordDEMFetch(source, outcome string, latency time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.demFetches.WithLabelValues(source, outcome).Inc()
	globalManager.demFetchDuration.Observe(float64(latency.Microseconds()) / 1000)
}

// UpdateQueueSize sets the current job queue length.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the job queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueRejection counts a job the queue refused.
func RecordQueueRejection() {
	if globalManager.enabled {
		globalManager.queueRejections.Inc()
	}
}

// RecordJob counts a job reaching state and observes its processing time.
func RecordJob(state string, took time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.jobs.WithLabelValues(state).Inc()
	if took > 0 {
		globalManager.jobDuration.Observe(float64(took.Milliseconds()))
	}
}

// UpdateWorkerCount sets the number of job workers.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// UpdateStoredJobs sets the number of jobs held by the store.
func UpdateStoredJobs(count int) {
	if globalManager.enabled {
		globalManager.storedJobs.Set(float64(count))
	}
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets heap bytes allocated.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
