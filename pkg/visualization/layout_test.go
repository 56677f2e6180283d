package visualization

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/dd0wney/agrorisk/pkg/graph"
)

// chain builds a -> b -> c.
func chain(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	for _, id := range []string{"company_a", "company_b", "property_c"} {
		b.AddNode(graph.Node{ID: id, Label: id})
	}
	if err := b.AddEdge("company_a", "company_b", graph.EdgePartnerIn, 1); err != nil {
		t.Fatal(err)
	}
	if err := b.AddEdge("company_b", "property_c", graph.EdgeOwns, 1); err != nil {
		t.Fatal(err)
	}
	return b.Graph()
}

func TestForceDirectedLayout(t *testing.T) {
	g := chain(t)
	layout := NewForceDirectedLayout(&LayoutConfig{
		Width:      800,
		Height:     600,
		Iterations: 50,
	})

	positions, err := layout.ComputeLayout(g)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}
	if len(positions) != 3 {
		t.Fatalf("Expected 3 positions, got %d", len(positions))
	}

	for i, pos := range positions {
		if pos.X < 0 || pos.X > 800 {
			t.Errorf("Node %d X position %f out of bounds", i, pos.X)
		}
		if pos.Y < 0 || pos.Y > 600 {
			t.Errorf("Node %d Y position %f out of bounds", i, pos.Y)
		}
	}

	// a and c are not directly connected, should be furthest apart
	dist01 := distance(positions[0], positions[1])
	dist12 := distance(positions[1], positions[2])
	dist02 := distance(positions[0], positions[2])
	if dist02 < dist01 || dist02 < dist12 {
		t.Error("Force-directed layout did not separate unconnected nodes properly")
	}
}

func TestForceDirectedLayout_Deterministic(t *testing.T) {
	g := chain(t)
	first, _ := NewForceDirectedLayout(&LayoutConfig{Width: 800, Height: 600}).ComputeLayout(g)
	second, _ := NewForceDirectedLayout(&LayoutConfig{Width: 800, Height: 600}).ComputeLayout(g)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Same graph and config produced different layouts")
	}
}

func TestCircularLayout(t *testing.T) {
	g := chain(t)
	positions, err := NewCircularLayout(&LayoutConfig{Width: 800, Height: 600}).ComputeLayout(g)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}

	center := Position{X: 400, Y: 300}
	radius := 250.0 // min(400, 300) - default padding
	for i, pos := range positions {
		if d := distance(pos, center); d < radius-0.001 || d > radius+0.001 {
			t.Errorf("Node %d at distance %f from center, want %f", i, d, radius)
		}
	}
}

func TestHierarchicalLayout(t *testing.T) {
	g := chain(t)
	positions, err := NewHierarchicalLayout(&LayoutConfig{Width: 800, Height: 600}).ComputeLayout(g)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}

	// Owners sit above what they own
	if !(positions[0].Y < positions[1].Y && positions[1].Y < positions[2].Y) {
		t.Errorf("Expected levels a < b < c, got %v", positions)
	}
}

func TestHierarchicalLayout_Cycle(t *testing.T) {
	b := graph.NewBuilder()
	b.AddNode(graph.Node{ID: "a"})
	b.AddNode(graph.Node{ID: "b"})
	_ = b.AddEdge("a", "b", graph.EdgePartnerIn, 1)
	_ = b.AddEdge("b", "a", graph.EdgePartnerIn, 1)

	positions, err := NewHierarchicalLayout(&LayoutConfig{Width: 800, Height: 600}).ComputeLayout(b.Graph())
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}
	if positions[0] == positions[1] {
		t.Errorf("Cycle members should not overlap: %v", positions)
	}
}

func TestLayoutNormalization(t *testing.T) {
	positions := []Position{{X: -100, Y: -50}, {X: 300, Y: 150}, {X: 100, Y: 50}}
	normalized := normalizePositions(positions, 800, 600, 50)

	for i, pos := range normalized {
		if pos.X < 50 || pos.X > 750 || pos.Y < 50 || pos.Y > 550 {
			t.Errorf("Position %d out of padded bounds: %v", i, pos)
		}
	}
	if normalized[0].X != 50 || normalized[1].X != 750 {
		t.Errorf("Expected extremes at the padding, got %v", normalized)
	}
}

func TestEmptyGraph(t *testing.T) {
	g := graph.NewBuilder().Graph()
	for _, name := range []string{LayoutForce, LayoutCircular, LayoutHierarchical} {
		layout, err := NewLayout(name, LayoutConfig{})
		if err != nil {
			t.Fatalf("NewLayout(%q) failed: %v", name, err)
		}
		positions, err := layout.ComputeLayout(g)
		if err != nil {
			t.Errorf("%s: layout of empty graph failed: %v", name, err)
		}
		if len(positions) != 0 {
			t.Errorf("%s: expected no positions, got %d", name, len(positions))
		}
	}
}

func TestSingleNodeLayout(t *testing.T) {
	b := graph.NewBuilder()
	b.AddNode(graph.Node{ID: "solo"})
	positions, err := NewForceDirectedLayout(&LayoutConfig{Width: 800, Height: 600}).ComputeLayout(b.Graph())
	if err != nil {
		t.Fatal(err)
	}
	if positions[0] != (Position{X: 400, Y: 300}) {
		t.Errorf("Single node should be centered, got %v", positions[0])
	}
}

func TestNewLayout_Unknown(t *testing.T) {
	if _, err := NewLayout("spiral", LayoutConfig{}); err == nil {
		t.Error("Expected error for unknown layout")
	}
}

func TestVisualizationExport(t *testing.T) {
	g := chain(t)
	v := &Visualization{
		Graph:      g,
		Layout:     LayoutCircular,
		Positions:  []Position{{1, 2}, {3, 4}, {5, 6}},
		Centrality: []float64{0.1, 0.9, 0.2},
		Community:  map[string]int{"company_a": 0, "company_b": 0},
		Metadata:   map[string]any{"density": 0.33},
	}

	raw, err := v.ExportJSON()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var data GraphData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(data.Nodes) != 3 || len(data.Edges) != 2 {
		t.Fatalf("Expected 3 nodes and 2 edges, got %d/%d", len(data.Nodes), len(data.Edges))
	}
	if data.Nodes[1].Centrality != 0.9 || data.Nodes[1].X != 3 {
		t.Errorf("Unexpected node view %+v", data.Nodes[1])
	}
	if data.Nodes[2].Community != -1 {
		t.Errorf("Node without community should export -1, got %d", data.Nodes[2].Community)
	}
	if data.Metadata["layout"] != LayoutCircular || data.Metadata["density"] != 0.33 {
		t.Errorf("Unexpected metadata %v", data.Metadata)
	}
}
