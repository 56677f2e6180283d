package visualization

import (
	"encoding/json"

	"github.com/dd0wney/agrorisk/pkg/graph"
)

// NodeView is a node as drawn by the UI.
type NodeView struct {
	ID         string         `json:"id"`
	Type       graph.NodeType `json:"type"`
	Label      string         `json:"label"`
	Attributes map[string]any `json:"attributes"`
	Centrality float64        `json:"centrality"`
	Community  int            `json:"community"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
}

// EdgeView is an edge as drawn by the UI.
type EdgeView struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Type   graph.EdgeType `json:"type"`
	Weight float64        `json:"weight"`
	Count  int            `json:"count"`
}

// GraphData is the serializable graph handed to the UI.
type GraphData struct {
	Nodes    []NodeView     `json:"nodes"`
	Edges    []EdgeView     `json:"edges"`
	Metadata map[string]any `json:"metadata"`
}

// Visualization represents a graph visualization with layout. Positions and
// Centrality are indexed like Graph.Nodes(); nodes missing from Community
// are exported with community -1.
type Visualization struct {
	Graph      *graph.Graph
	Layout     string
	Positions  []Position
	Centrality []float64
	Community  map[string]int
	Metadata   map[string]any
}

// Data builds the graph_data document.
func (v *Visualization) Data() *GraphData {
	g := v.Graph
	data := &GraphData{
		Nodes:    make([]NodeView, 0, g.NodeCount()),
		Edges:    make([]EdgeView, 0, g.EdgeCount()),
		Metadata: map[string]any{"num_nodes": g.NodeCount(), "num_edges": g.EdgeCount()},
	}
	if v.Layout != "" {
		data.Metadata["layout"] = v.Layout
	}
	for k, val := range v.Metadata {
		data.Metadata[k] = val
	}

	for i, n := range g.Nodes() {
		view := NodeView{
			ID:         n.ID,
			Type:       n.Type,
			Label:      n.Label,
			Attributes: n.Attributes,
			Community:  -1,
		}
		if i < len(v.Positions) {
			view.X, view.Y = v.Positions[i].X, v.Positions[i].Y
		}
		if i < len(v.Centrality) {
			view.Centrality = v.Centrality[i]
		}
		if c, ok := v.Community[n.ID]; ok {
			view.Community = c
		}
		data.Nodes = append(data.Nodes, view)
	}

	for _, e := range g.Edges() {
		data.Edges = append(data.Edges, EdgeView{
			Source: e.Source,
			Target: e.Target,
			Type:   e.Type,
			Weight: e.Weight,
			Count:  e.Count,
		})
	}
	return data
}

// ExportJSON exports the visualization to JSON
func (v *Visualization) ExportJSON() ([]byte, error) {
	return json.Marshal(v.Data())
}
