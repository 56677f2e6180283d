package algorithms

import (
	"sort"
	"strings"

	"github.com/dd0wney/agrorisk/pkg/graph"
)

// Cycle is a directed cycle as a sequence of node ids, rotated so that the
// smallest id comes first. The closing edge runs from the last id back to
// the first.
type Cycle []string

// Key identifies the cycle independently of where it was entered.
func (c Cycle) Key() string {
	return strings.Join(c, "\x00")
}

// CycleDetectionOptions bounds the search.
type CycleDetectionOptions struct {
	MaxCycles int // 0 = unlimited
	MaxLength int // 0 = unlimited
}

// DetectCycles enumerates the elementary directed cycles of g with
// Johnson's algorithm: for every start node s, a blocked-set depth-first
// search over the nodes of s's strongly connected component with index >= s
// finds each cycle exactly once, from its lowest-index member. The search
// keeps an explicit stack so deep ownership chains cannot overflow the
// goroutine stack.
//
// Components of one node and self-loops yield nothing. Results are sorted by
// length and then by id sequence, so the list depends only on the graph and
// not on node order. When MaxCycles stops the enumeration early, which
// cycles make the cut follows node order.
func DetectCycles(g *graph.Graph, opts CycleDetectionOptions) []Cycle {
	n := g.NodeCount()
	component := make([]int, n)
	for i := range component {
		component[i] = -1
	}
	var members [][]int
	for _, m := range StronglyConnectedComponents(g) {
		if len(m) < 2 {
			continue
		}
		for _, v := range m {
			component[v] = len(members)
		}
		members = append(members, m)
	}

	blocked := make([]bool, n)
	blockedBy := make([]map[int]struct{}, n)
	cycles := make([]Cycle, 0)
	full := func() bool { return opts.MaxCycles > 0 && len(cycles) >= opts.MaxCycles }

	unblock := func(u int) {
		stack := []int{u}
		for len(stack) > 0 {
			x := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !blocked[x] {
				continue
			}
			blocked[x] = false
			for y := range blockedBy[x] {
				stack = append(stack, y)
			}
			blockedBy[x] = nil
		}
	}

	type frame struct {
		node, ni int
		found    bool
	}

	for s := 0; s < n && !full(); s++ {
		if component[s] < 0 {
			continue
		}
		for _, v := range members[component[s]] {
			blocked[v] = false
			blockedBy[v] = nil
		}
		inScope := func(w int) bool { return w >= s && component[w] == component[s] }

		path := []int{s}
		blocked[s] = true
		calls := []frame{{node: s}}

		for len(calls) > 0 && !full() {
			top := &calls[len(calls)-1]
			v := top.node
			succ := g.Successors(v)

			if top.ni < len(succ) {
				w := succ[top.ni]
				top.ni++
				switch {
				case !inScope(w):
				case w == s:
					// Cycles over the length cap still count as found so
					// the nodes on the path get unblocked.
					top.found = true
					if opts.MaxLength == 0 || len(path) <= opts.MaxLength {
						cycles = append(cycles, canonicalCycle(g, path))
					}
				case blocked[w]:
				case opts.MaxLength > 0 && len(path) >= opts.MaxLength:
					top.found = true
				default:
					blocked[w] = true
					path = append(path, w)
					calls = append(calls, frame{node: w})
				}
				continue
			}

			found := top.found
			calls = calls[:len(calls)-1]
			path = path[:len(path)-1]
			if found {
				unblock(v)
			} else {
				for _, w := range succ {
					if !inScope(w) {
						continue
					}
					if blockedBy[w] == nil {
						blockedBy[w] = make(map[int]struct{})
					}
					blockedBy[w][v] = struct{}{}
				}
			}
			if found && len(calls) > 0 {
				calls[len(calls)-1].found = true
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		if len(cycles[i]) != len(cycles[j]) {
			return len(cycles[i]) < len(cycles[j])
		}
		return cycles[i].Key() < cycles[j].Key()
	})
	return cycles
}

// canonicalCycle maps node indices to ids and rotates the sequence so the
// smallest id is first, keeping edge direction.
func canonicalCycle(g *graph.Graph, members []int) Cycle {
	ids := make([]string, len(members))
	minPos := 0
	for i, m := range members {
		ids[i] = g.Node(m).ID
		if ids[i] < ids[minPos] {
			minPos = i
		}
	}

	cycle := make(Cycle, 0, len(ids))
	cycle = append(cycle, ids[minPos:]...)
	cycle = append(cycle, ids[:minPos]...)
	return cycle
}

// HasCycle reports whether g contains a directed cycle of two or more nodes.
func HasCycle(g *graph.Graph) bool {
	for _, members := range StronglyConnectedComponents(g) {
		if len(members) > 1 {
			return true
		}
	}
	return false
}
