package algorithms

import (
	"sort"

	"github.com/dd0wney/agrorisk/pkg/graph"
)

// Community represents a detected community
type Community struct {
	ID      int      `json:"id"`
	Nodes   []string `json:"nodes"`
	Size    int      `json:"size"`
	Density float64  `json:"density"` // share of member pairs that are adjacent
}

// CommunityDetectionResult contains detected communities
type CommunityDetectionResult struct {
	Communities   []*Community
	Modularity    float64
	NodeCommunity map[string]int // node id -> community ID
}

// modularityEpsilon is the smallest gain worth a merge; it keeps float noise
// from merging communities whose true gain is zero.
const modularityEpsilon = 1e-12

// GreedyModularity partitions g by greedy modularity maximisation over its
// undirected weighted projection: start from singletons and repeatedly merge
// the adjacent pair with the largest positive modularity gain, ties going to
// the pair with the smallest community ids. Self-loops are ignored.
//
// Communities are returned largest first (ties by smallest member id) with
// members sorted by id, and numbered in that order.
func GreedyModularity(g *graph.Graph) *CommunityDetectionResult {
	n := g.NodeCount()
	adj, degree, total := undirectedWeights(g)

	members := make([][]int, n)
	share := make([]float64, n) // a_c: community degree over 2m
	between := make([]map[int]float64, n)
	alive := make([]bool, n)
	for i := 0; i < n; i++ {
		members[i] = []int{i}
		alive[i] = true
		between[i] = make(map[int]float64, len(adj[i]))
		for j, w := range adj[i] {
			between[i][j] = w
		}
		if total > 0 {
			share[i] = degree[i] / total
		}
	}

	for total > 0 {
		bestI, bestJ := -1, -1
		bestGain := modularityEpsilon

		for i := 0; i < n; i++ {
			if !alive[i] {
				continue
			}
			for _, j := range sortedNeighbours(between[i]) {
				if j <= i {
					continue
				}
				gain := 2 * (between[i][j]/total - share[i]*share[j])
				if gain > bestGain {
					bestGain, bestI, bestJ = gain, i, j
				}
			}
		}
		if bestI < 0 {
			break
		}

		mergeCommunities(bestI, bestJ, members, share, between, alive)
	}

	assignment := make([]int, n)
	groups := make([][]string, 0)
	for c := 0; c < n; c++ {
		if !alive[c] {
			continue
		}
		ids := make([]string, len(members[c]))
		for k, m := range members[c] {
			ids[k] = g.Node(m).ID
		}
		sort.Strings(ids)
		groups = append(groups, ids)
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return groups[i][0] < groups[j][0]
	})

	result := &CommunityDetectionResult{
		Communities:   make([]*Community, len(groups)),
		NodeCommunity: make(map[string]int, n),
	}
	for id, ids := range groups {
		for _, nodeID := range ids {
			result.NodeCommunity[nodeID] = id
			idx, _ := g.Index(nodeID)
			assignment[idx] = id
		}
		result.Communities[id] = &Community{
			ID:    id,
			Nodes: ids,
			Size:  len(ids),
		}
	}
	for _, c := range result.Communities {
		c.Density = communityDensity(g, c.Nodes)
	}
	result.Modularity = Modularity(g, assignment)

	return result
}

// mergeCommunities folds community j into i.
func mergeCommunities(i, j int, members [][]int, share []float64, between []map[int]float64, alive []bool) {
	members[i] = append(members[i], members[j]...)
	members[j] = nil
	share[i] += share[j]
	share[j] = 0
	alive[j] = false

	for k, w := range between[j] {
		delete(between[k], j)
		if k == i {
			continue
		}
		between[i][k] += w
		between[k][i] += w
	}
	delete(between[i], j)
	between[j] = nil
}

// Modularity returns Newman's Q of the partition assignment (node index ->
// community) over the undirected weighted projection of g. It is 0 for a
// graph without edges.
func Modularity(g *graph.Graph, assignment []int) float64 {
	adj, degree, total := undirectedWeights(g)
	if total == 0 {
		return 0
	}

	internal := make(map[int]float64)
	communityDegree := make(map[int]float64)
	for i := range adj {
		c := assignment[i]
		communityDegree[c] += degree[i]
		for j, w := range adj[i] {
			if assignment[j] == c {
				internal[c] += w
			}
		}
	}

	q := 0.0
	for c, d := range communityDegree {
		frac := d / total
		q += internal[c]/total - frac*frac
	}
	return q
}

// undirectedWeights sums edge weights in both directions between distinct
// nodes. total is twice the total edge weight.
func undirectedWeights(g *graph.Graph) (adj []map[int]float64, degree []float64, total float64) {
	n := g.NodeCount()
	adj = make([]map[int]float64, n)
	degree = make([]float64, n)
	for i := range adj {
		adj[i] = make(map[int]float64)
	}

	for _, e := range g.Edges() {
		s, _ := g.Index(e.Source)
		t, _ := g.Index(e.Target)
		if s == t {
			continue
		}
		adj[s][t] += e.Weight
		adj[t][s] += e.Weight
		degree[s] += e.Weight
		degree[t] += e.Weight
		total += 2 * e.Weight
	}
	return adj, degree, total
}

func communityDensity(g *graph.Graph, ids []string) float64 {
	k := len(ids)
	if k < 2 {
		return 0
	}

	inside := make(map[int]bool, k)
	for _, id := range ids {
		idx, _ := g.Index(id)
		inside[idx] = true
	}

	links := 0
	for idx := range inside {
		for _, nb := range g.Neighbors(idx) {
			if nb > idx && inside[nb] {
				links++
			}
		}
	}
	return float64(links) / float64(k*(k-1)/2)
}

func sortedNeighbours(m map[int]float64) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
