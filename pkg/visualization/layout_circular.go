package visualization

import (
	"math"

	"github.com/dd0wney/agrorisk/pkg/graph"
)

// CircularLayout arranges nodes in a circle
type CircularLayout struct {
	config *LayoutConfig
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *LayoutConfig) *CircularLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &CircularLayout{config: config}
}

// ComputeLayout arranges nodes in a circle, in node order
func (cl *CircularLayout) ComputeLayout(g *graph.Graph) ([]Position, error) {
	return circle(g.NodeCount(), cl.config), nil
}

func circle(n int, config *LayoutConfig) []Position {
	positions := make([]Position, n)
	if n == 0 {
		return positions
	}

	centerX := config.Width / 2
	centerY := config.Height / 2
	radius := math.Min(centerX, centerY) - config.Padding

	angleStep := 2 * math.Pi / float64(n)
	for i := range positions {
		angle := float64(i) * angleStep
		positions[i] = Position{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
		}
	}
	return positions
}
