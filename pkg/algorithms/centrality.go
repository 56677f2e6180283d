// Package algorithms implements the graph algorithms used by the network and
// pattern analyses: centrality, weak and strong components, cycles, bridges
// and modularity-based communities. Results are indexed by node position in
// the graph (see graph.Graph.Index).
package algorithms

import (
	"context"

	"github.com/dd0wney/agrorisk/pkg/graph"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/parallel"
)

// DegreeCentrality returns, for each node, its number of distinct neighbours
// in either direction divided by n-1. Self-loops and parallel edges do not
// count. Every score is 0 when the graph has fewer than two nodes.
func DegreeCentrality(g *graph.Graph) []float64 {
	n := g.NodeCount()
	degree := make([]float64, n)
	if n < 2 {
		return degree
	}

	norm := 1.0 / float64(n-1)
	for i := 0; i < n; i++ {
		degree[i] = float64(g.Degree(i)) * norm
	}
	return degree
}

// BetweennessOptions tunes the parallel Brandes pass.
type BetweennessOptions struct {
	Workers int // <= 0 means runtime.NumCPU()
	Logger  logging.Logger
}

// BetweennessCentrality computes Brandes betweenness on the directed simple
// graph (parallel edges collapsed, self-loops ignored), normalised by
// (n-1)(n-2). Sources are split into contiguous ranges processed on a worker
// pool; partial sums are added in range order so the result does not depend
// on scheduling.
func BetweennessCentrality(ctx context.Context, g *graph.Graph, opts BetweennessOptions) ([]float64, error) {
	n := g.NodeCount()

	partials, err := parallel.MapChunks(ctx, n, opts.Workers, opts.Logger, func(ctx context.Context, r parallel.Range) []float64 {
		acc := make([]float64, n)
		state := newBrandesState(n)
		for s := r.Lo; s < r.Hi; s++ {
			if s%64 == 0 && ctx.Err() != nil {
				return acc
			}
			state.accumulate(g, s, acc)
		}
		return acc
	})
	if err != nil {
		return nil, err
	}

	betweenness := make([]float64, n)
	for _, p := range partials {
		for i, v := range p {
			betweenness[i] += v
		}
	}

	if n > 2 {
		normFactor := 1.0 / float64((n-1)*(n-2))
		for i := range betweenness {
			betweenness[i] *= normFactor
		}
	}
	return betweenness, nil
}

// brandesState holds the per-source scratch buffers, reused across sources
// of one chunk.
type brandesState struct {
	stack        []int
	queue        []int
	predecessors [][]int
	sigma        []float64
	distance     []int
	delta        []float64
}

func newBrandesState(n int) *brandesState {
	return &brandesState{
		stack:        make([]int, 0, n),
		queue:        make([]int, 0, n),
		predecessors: make([][]int, n),
		sigma:        make([]float64, n),
		distance:     make([]int, n),
		delta:        make([]float64, n),
	}
}

// accumulate runs one single-source shortest-path pass from source and adds
// the dependencies of every other node into acc.
func (b *brandesState) accumulate(g *graph.Graph, source int, acc []float64) {
	for i := range b.sigma {
		b.predecessors[i] = b.predecessors[i][:0]
		b.sigma[i] = 0
		b.distance[i] = -1
		b.delta[i] = 0
	}
	b.stack = b.stack[:0]
	b.queue = b.queue[:0]

	b.sigma[source] = 1
	b.distance[source] = 0
	b.queue = append(b.queue, source)

	for head := 0; head < len(b.queue); head++ {
		v := b.queue[head]
		b.stack = append(b.stack, v)

		for _, w := range g.Successors(v) {
			if b.distance[w] < 0 {
				b.queue = append(b.queue, w)
				b.distance[w] = b.distance[v] + 1
			}
			if b.distance[w] == b.distance[v]+1 {
				b.sigma[w] += b.sigma[v]
				b.predecessors[w] = append(b.predecessors[w], v)
			}
		}
	}

	// Back-propagation in order of non-increasing distance
	for i := len(b.stack) - 1; i >= 0; i-- {
		w := b.stack[i]
		for _, v := range b.predecessors[w] {
			b.delta[v] += (b.sigma[v] / b.sigma[w]) * (1.0 + b.delta[w])
		}
		if w != source {
			acc[w] += b.delta[w]
		}
	}
}
