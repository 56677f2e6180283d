package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSnapshotMetrics() {
	r.SnapshotFetchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrorisk_snapshot_fetches_total",
			Help: "Total number of snapshot fetches from the persistence layer",
		},
		[]string{"source", "status"},
	)

	r.SnapshotFetchDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agrorisk_snapshot_fetch_duration_seconds",
			Help:    "Snapshot fetch duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"source"},
	)

	r.SnapshotEntities = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agrorisk_snapshot_entities",
			Help:    "Properties, companies and persons per snapshot",
			Buckets: []float64{0, 10, 100, 1000, 10000, 100000},
		},
	)

	r.GraphNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agrorisk_graph_nodes",
			Help:    "Nodes per investigation graph",
			Buckets: []float64{0, 10, 100, 1000, 10000, 100000},
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agrorisk_graph_edges",
			Help:    "Edges per investigation graph",
			Buckets: []float64{0, 10, 100, 1000, 10000, 100000},
		},
	)

	r.GraphBuildWarnings = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "agrorisk_graph_build_warnings_total",
			Help: "Relations skipped while building graphs",
		},
	)
}
