package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec
	HTTPCoalescedTotal    *prometheus.CounterVec

	// Analysis Metrics
	AnalysesTotal         *prometheus.CounterVec
	AnalysisDuration      *prometheus.HistogramVec
	AnalysisTimeoutsTotal *prometheus.CounterVec
	PatternsDetectedTotal *prometheus.CounterVec
	RiskLevelsTotal       *prometheus.CounterVec
	RiskScore             prometheus.Histogram
	PartialReportsTotal   prometheus.Counter

	// Snapshot Metrics
	SnapshotFetchesTotal  *prometheus.CounterVec
	SnapshotFetchDuration *prometheus.HistogramVec
	SnapshotEntities      prometheus.Histogram
	GraphNodes            prometheus.Histogram
	GraphEdges            prometheus.Histogram
	GraphBuildWarnings    prometheus.Counter

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
	mu        sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry:  reg,
		startTime: time.Now(),
	}

	r.initHTTPMetrics()
	r.initAnalysisMetrics()
	r.initSnapshotMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
