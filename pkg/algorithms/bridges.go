package algorithms

import (
	"sort"

	"github.com/dd0wney/agrorisk/pkg/graph"
)

// Bridge is an undirected edge whose removal disconnects its component.
// Source is the smaller of the two ids.
type Bridge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// BridgeReport lists the bridges and articulation points of g.
type BridgeReport struct {
	Bridges            []Bridge `json:"bridges"`
	ArticulationPoints []string `json:"articulation_points"`
}

// FindBridges runs an iterative Tarjan low-link search over the undirected
// simple projection of g. Both lists are sorted.
func FindBridges(g *graph.Graph) *BridgeReport {
	n := g.NodeCount()
	report := &BridgeReport{
		Bridges:            make([]Bridge, 0),
		ArticulationPoints: make([]string, 0),
	}
	if n == 0 {
		return report
	}

	disc := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	isAP := make([]bool, n)
	counter := 1

	const noParent = -1

	type frame struct {
		node, parent, ni int
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		visited[start] = true
		disc[start] = counter
		low[start] = counter
		counter++

		stack := []frame{{start, noParent, 0}}
		rootChildren := 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			node := top.node
			adj := g.Neighbors(node)

			if top.ni < len(adj) {
				child := adj[top.ni]
				top.ni++

				if child == top.parent {
					continue
				}

				if visited[child] {
					// Back edge
					if disc[child] < low[node] {
						low[node] = disc[child]
					}
					continue
				}

				// Tree edge
				visited[child] = true
				disc[child] = counter
				low[child] = counter
				counter++
				if node == start {
					rootChildren++
				}
				stack = append(stack, frame{child, node, 0})
				continue
			}

			// Done with this node, pop and propagate
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				continue
			}

			pn := stack[len(stack)-1].node
			if low[node] < low[pn] {
				low[pn] = low[node]
			}
			if low[node] > disc[pn] {
				report.Bridges = append(report.Bridges, newBridge(g.Node(pn).ID, g.Node(node).ID))
			}
			if pn != start && low[node] >= disc[pn] {
				isAP[pn] = true
			}
		}

		if rootChildren > 1 {
			isAP[start] = true
		}
	}

	for i, ap := range isAP {
		if ap {
			report.ArticulationPoints = append(report.ArticulationPoints, g.Node(i).ID)
		}
	}

	sort.Slice(report.Bridges, func(i, j int) bool {
		if report.Bridges[i].Source != report.Bridges[j].Source {
			return report.Bridges[i].Source < report.Bridges[j].Source
		}
		return report.Bridges[i].Target < report.Bridges[j].Target
	})
	sort.Strings(report.ArticulationPoints)
	return report
}

func newBridge(a, b string) Bridge {
	if b < a {
		a, b = b, a
	}
	return Bridge{Source: a, Target: b}
}
