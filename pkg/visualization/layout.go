// Package visualization lays out an investigation graph on a 2D canvas and
// exports it as the graph_data document consumed by the UI.
package visualization

import (
	"fmt"

	"github.com/dd0wney/agrorisk/pkg/graph"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
	Seed       int64   // Seed of the initial placement of iterative layouts
}

// Layout computes one position per node of g, indexed like g.Nodes().
type Layout interface {
	ComputeLayout(g *graph.Graph) ([]Position, error)
}

// Layout names accepted by NewLayout.
const (
	LayoutForce        = "force"
	LayoutCircular     = "circular"
	LayoutHierarchical = "hierarchical"
)

// NewLayout returns the layout registered under name.
func NewLayout(name string, config LayoutConfig) (Layout, error) {
	if config.Width == 0 {
		config.Width = 800
	}
	if config.Height == 0 {
		config.Height = 600
	}
	switch name {
	case LayoutForce, "":
		return NewForceDirectedLayout(&config), nil
	case LayoutCircular:
		return NewCircularLayout(&config), nil
	case LayoutHierarchical:
		return NewHierarchicalLayout(&config), nil
	default:
		return nil, fmt.Errorf("unknown layout %q", name)
	}
}
