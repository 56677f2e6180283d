package visualization

import (
	"github.com/dd0wney/agrorisk/pkg/graph"
)

// HierarchicalLayout arranges nodes in levels by breadth-first distance from
// the nodes nothing points at, so owners sit above what they own.
type HierarchicalLayout struct {
	config *LayoutConfig
}

// NewHierarchicalLayout creates a new hierarchical layout
func NewHierarchicalLayout(config *LayoutConfig) *HierarchicalLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &HierarchicalLayout{config: config}
}

// ComputeLayout arranges nodes hierarchically
func (hl *HierarchicalLayout) ComputeLayout(g *graph.Graph) ([]Position, error) {
	n := g.NodeCount()
	positions := make([]Position, n)
	if n == 0 {
		return positions, nil
	}

	// Find root nodes (nodes with no incoming edges)
	roots := make([]int, 0)
	for i := 0; i < n; i++ {
		if len(g.InEdges(i)) == 0 {
			roots = append(roots, i)
		}
	}
	if len(roots) == 0 {
		// No clear root, use first node
		roots = []int{0}
	}

	// Build levels using BFS
	levels := make([][]int, 0)
	visited := make([]bool, n)
	for _, r := range roots {
		visited[r] = true
	}
	currentLevel := roots

	for len(currentLevel) > 0 {
		levels = append(levels, currentLevel)
		nextLevel := make([]int, 0)
		for _, v := range currentLevel {
			for _, w := range g.Successors(v) {
				if !visited[w] {
					nextLevel = append(nextLevel, w)
					visited[w] = true
				}
			}
		}
		currentLevel = nextLevel
	}

	// Nodes only reachable through a cycle go to the last level
	for i := 0; i < n; i++ {
		if !visited[i] {
			levels[len(levels)-1] = append(levels[len(levels)-1], i)
		}
	}

	levelHeight := (hl.config.Height - 2*hl.config.Padding) / float64(len(levels))
	levelWidth := hl.config.Width - 2*hl.config.Padding

	for levelIdx, level := range levels {
		y := hl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		spacing := levelWidth / float64(len(level)+1)
		for nodeIdx, v := range level {
			positions[v] = Position{X: hl.config.Padding + spacing*float64(nodeIdx+1), Y: y}
		}
	}
	return positions, nil
}
