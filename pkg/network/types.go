// Package network computes the structural metrics of an investigation graph:
// density, centrality, communities, components and structural anomalies
// such as hubs, bridges and isolated entities.
package network

import (
	"github.com/dd0wney/agrorisk/pkg/algorithms"
	"github.com/dd0wney/agrorisk/pkg/visualization"
)

// CentralNode is one entry of the centrality ranking.
type CentralNode struct {
	NodeID     string  `json:"node_id"`
	Centrality float64 `json:"centrality"`
}

// CommunitySummary is one detected community.
type CommunitySummary struct {
	ID      int      `json:"id"`
	Size    int      `json:"size"`
	Nodes   []string `json:"nodes"`
	Density float64  `json:"density"`
}

// Metrics is the network analysis of one graph.
type Metrics struct {
	NumNodes           int                      `json:"num_nodes"`
	NumEdges           int                      `json:"num_edges"`
	Density            float64                  `json:"density"`
	CentralNodes       []CentralNode            `json:"central_nodes"`
	Communities        []CommunitySummary       `json:"communities"`
	Clusters           int                      `json:"clusters"`
	KeyPlayers         []string                 `json:"key_players"`
	SuspiciousPatterns []string                 `json:"suspicious_patterns"`
	GraphData          *visualization.GraphData `json:"graph_data"`
	Modularity         float64                  `json:"modularity"`
	Hubs               []string                 `json:"hubs"`
	Bridges            []algorithms.Bridge      `json:"bridges"`
	ArticulationPoints []string                 `json:"articulation_points"`
	IsolatedNodes      []string                 `json:"isolated_nodes"`
}
