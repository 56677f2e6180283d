package metrics

import (
	"runtime"
	"time"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordCoalesced counts a request served by an in-flight identical one
func (r *Registry) RecordCoalesced(operation string) {
	r.HTTPCoalescedTotal.WithLabelValues(operation).Inc()
}

// RecordAnalysis records one analysis run
func (r *Registry) RecordAnalysis(analysis, status string, duration time.Duration) {
	r.AnalysesTotal.WithLabelValues(analysis, status).Inc()
	r.AnalysisDuration.WithLabelValues(analysis).Observe(duration.Seconds())
	if status == StatusTimeout {
		r.AnalysisTimeoutsTotal.WithLabelValues(analysis).Inc()
	}
}

// RecordRisk records the outcome of a risk assessment
func (r *Registry) RecordRisk(level string, score float64) {
	r.RiskLevelsTotal.WithLabelValues(level).Inc()
	r.RiskScore.Observe(score)
}

// RecordPattern counts one detected pattern
func (r *Registry) RecordPattern(patternType, severity string) {
	r.PatternsDetectedTotal.WithLabelValues(patternType, severity).Inc()
}

// RecordPartialReport counts a comprehensive report with failed sections
func (r *Registry) RecordPartialReport() {
	r.PartialReportsTotal.Inc()
}

// RecordSnapshotFetch records a snapshot fetch
func (r *Registry) RecordSnapshotFetch(source, status string, duration time.Duration, entities int) {
	r.SnapshotFetchesTotal.WithLabelValues(source, status).Inc()
	r.SnapshotFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if status == StatusSuccess {
		r.SnapshotEntities.Observe(float64(entities))
	}
}

// RecordGraph records the size of a built graph
func (r *Registry) RecordGraph(nodes, edges, warnings int) {
	r.GraphNodes.Observe(float64(nodes))
	r.GraphEdges.Observe(float64(edges))
	r.GraphBuildWarnings.Add(float64(warnings))
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
	r.MemorySysBytes.Set(float64(mem.Sys))
}
