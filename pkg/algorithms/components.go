package algorithms

import "github.com/dd0wney/agrorisk/pkg/graph"

// WeakComponents returns the weakly connected components of g, each as a
// list of node indices in BFS order from its lowest-indexed member.
// Components are ordered by their lowest node index.
func WeakComponents(g *graph.Graph) [][]int {
	n := g.NodeCount()
	visited := make([]bool, n)
	components := make([][]int, 0)

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		visited[start] = true
		component := []int{start}
		for head := 0; head < len(component); head++ {
			for _, w := range g.Neighbors(component[head]) {
				if !visited[w] {
					visited[w] = true
					component = append(component, w)
				}
			}
		}
		components = append(components, component)
	}

	return components
}

// StronglyConnectedComponents finds the SCCs of the directed simple graph
// with an iterative Tarjan. Each component lists its node indices in the
// order they were popped; components are returned in reverse topological
// order of the condensation.
func StronglyConnectedComponents(g *graph.Graph) [][]int {
	n := g.NodeCount()
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	type frame struct {
		node, ni int
	}

	var (
		stack      []int
		components [][]int
		counter    int
	)

	for root := 0; root < n; root++ {
		if index[root] >= 0 {
			continue
		}

		index[root] = counter
		lowlink[root] = counter
		counter++
		stack = append(stack, root)
		onStack[root] = true
		calls := []frame{{root, 0}}

		for len(calls) > 0 {
			top := &calls[len(calls)-1]
			u := top.node
			succ := g.Successors(u)

			if top.ni < len(succ) {
				v := succ[top.ni]
				top.ni++
				if index[v] < 0 {
					index[v] = counter
					lowlink[v] = counter
					counter++
					stack = append(stack, v)
					onStack[v] = true
					calls = append(calls, frame{v, 0})
				} else if onStack[v] && index[v] < lowlink[u] {
					lowlink[u] = index[v]
				}
				continue
			}

			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				parent := calls[len(calls)-1].node
				if lowlink[u] < lowlink[parent] {
					lowlink[parent] = lowlink[u]
				}
			}

			// u is the root of an SCC: pop its members
			if lowlink[u] == index[u] {
				var members []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					members = append(members, w)
					if w == u {
						break
					}
				}
				components = append(components, members)
			}
		}
	}

	return components
}
