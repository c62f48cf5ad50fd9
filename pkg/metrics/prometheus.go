// Package metrics provides Prometheus metrics for the KPI bonus service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	importBuckets  []float64
	registry       prometheus.Registerer

	// Import pipeline
	importsTotal    *prometheus.CounterVec
	importDuration  prometheus.Histogram
	rowsDropped     *prometheus.CounterVec
	teamsTotal      prometheus.Gauge
	employeesTotal  prometheus.Gauge
	unbalancedTeams prometheus.Gauge

	// Published graph
	graphPublishes prometheus.Counter
	graphVersion   prometheus.Gauge
	graphLastUnix  prometheus.Gauge

	// User actions
	exportsTotal       prometheus.Counter
	exportRows         prometheus.Histogram
	kpiEdits           *prometheus.CounterVec
	noteWrites         prometheus.Counter
	sessionTransitions *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec

	// Process
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Histogram
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
		namespace:      "kpibonus",
		subsystem:      "engine",
		latencyBuckets: prometheus.DefBuckets,
		importBuckets:  []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.importsTotal = auto.NewCounterVec(m.counterOpts("imports_total",
		"Total number of workbook imports by outcome"), []string{"outcome"})
	m.importDuration = auto.NewHistogram(m.histogramOpts("import_duration_milliseconds",
		"Workbook import duration in milliseconds, read to publish", m.importBuckets))
	m.rowsDropped = auto.NewCounterVec(m.counterOpts("rows_dropped_total",
		"Rows discarded during normalization by source sheet"), []string{"source"})
	m.teamsTotal = auto.NewGauge(m.gaugeOpts("teams",
		"Number of teams in the published graph"))
	m.employeesTotal = auto.NewGauge(m.gaugeOpts("employees",
		"Number of employees in the published graph"))
	m.unbalancedTeams = auto.NewGauge(m.gaugeOpts("unbalanced_teams",
		"Teams whose KPI weights do not sum to 1"))

	m.graphPublishes = auto.NewCounter(m.counterOpts("graph_publishes_total",
		"Total number of graphs published to the store"))
	m.graphVersion = auto.NewGauge(m.gaugeOpts("graph_version",
		"Version of the currently published graph"))
	m.graphLastUnix = auto.NewGauge(m.gaugeOpts("graph_last_publish_unix",
		"Unix time of the last graph publish"))

	m.exportsTotal = auto.NewCounter(m.counterOpts("exports_total",
		"Total number of CSV exports"))
	m.exportRows = auto.NewHistogram(m.histogramOpts("export_rows",
		"Rows per CSV export", []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000}))
	m.kpiEdits = auto.NewCounterVec(m.counterOpts("kpi_edits_total",
		"KPI catalog edits by outcome"), []string{"outcome"})
	m.noteWrites = auto.NewCounter(m.counterOpts("note_writes_total",
		"Total number of KPI note writes"))
	m.sessionTransitions = auto.NewCounterVec(m.counterOpts("session_transitions_total",
		"Screen transitions by action and outcome"), []string{"action", "outcome"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and error type"), []string{"component", "error_type"})

	m.memoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"Heap bytes allocated"))
	m.goroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	m.gcPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds",
		"Average GC pause in milliseconds", []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50}))
}

// RecordImport increments the import counter for outcome.
func RecordImport(outcome string) {
	globalManager.importsTotal.WithLabelValues(outcome).Inc()
}

// RecordImportDuration records an import duration in milliseconds.
func RecordImportDuration(ms float64) {
	globalManager.importDuration.Observe(ms)
}

// RecordRowsDropped adds n dropped rows for source.
func RecordRowsDropped(source string, n int) {
	if n <= 0 {
		return
	}
	globalManager.rowsDropped.WithLabelValues(source).Add(float64(n))
}

// UpdateGraphSize sets the team and employee gauges.
func UpdateGraphSize(teams, employees int) {
	globalManager.teamsTotal.Set(float64(teams))
	globalManager.employeesTotal.Set(float64(employees))
}

// UpdateUnbalancedTeams sets the number of teams with unbalanced weights.
func UpdateUnbalancedTeams(n int) {
	globalManager.unbalancedTeams.Set(float64(n))
}

// RecordGraphPublish records a publish of graph version at unix time.
func RecordGraphPublish(version uint64, unix int64) {
	globalManager.graphPublishes.Inc()
	globalManager.graphVersion.Set(float64(version))
	globalManager.graphLastUnix.Set(float64(unix))
}

// RecordExport records one CSV export with its row count.
func RecordExport(rows int) {
	globalManager.exportsTotal.Inc()
	globalManager.exportRows.Observe(float64(rows))
}

// RecordKPIEdit increments the KPI edit counter for outcome.
func RecordKPIEdit(outcome string) {
	globalManager.kpiEdits.WithLabelValues(outcome).Inc()
}

// RecordNoteWrite increments the note write counter.
func RecordNoteWrite() {
	globalManager.noteWrites.Inc()
}

// RecordSessionTransition counts a screen transition attempt.
func RecordSessionTransition(action, outcome string) {
	globalManager.sessionTransitions.WithLabelValues(action, outcome).Inc()
}

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
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.goroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.gcPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
