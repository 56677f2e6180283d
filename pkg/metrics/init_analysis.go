package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAnalysisMetrics() {
	r.AnalysesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrorisk_analyses_total",
			Help: "Total number of analyses run",
		},
		[]string{"analysis", "status"},
	)

	r.AnalysisDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agrorisk_analysis_duration_seconds",
			Help:    "Analysis duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0},
		},
		[]string{"analysis"},
	)

	r.AnalysisTimeoutsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrorisk_analysis_timeouts_total",
			Help: "Analyses still running when the comprehensive deadline expired",
		},
		[]string{"analysis"},
	)

	r.PatternsDetectedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrorisk_patterns_detected_total",
			Help: "Patterns detected by heuristic type",
		},
		[]string{"type", "severity"},
	)

	r.RiskLevelsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrorisk_risk_levels_total",
			Help: "Risk assessments by resulting level",
		},
		[]string{"level"},
	)

	r.RiskScore = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agrorisk_risk_score",
			Help:    "Distribution of total risk scores",
			Buckets: []float64{20, 40, 60, 80, 100},
		},
	)

	r.PartialReportsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "agrorisk_partial_reports_total",
			Help: "Comprehensive reports returned with at least one failed section",
		},
	)
}
