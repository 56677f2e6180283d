// Package graph holds the typed relationship graph of one investigation:
// companies, rural properties and persons as nodes, ownership, lease and
// partnership relations as directed edges. A Graph is immutable once built
// and safe to share between concurrent analyses.
package graph

import (
	"fmt"
	"sort"

	"github.com/dd0wney/agrorisk/pkg/validation"
)

// NodeType is the kind of entity a node represents.
type NodeType string

const (
	NodeCompany  NodeType = "company"
	NodeProperty NodeType = "property"
	NodePerson   NodeType = "person"
)

// EdgeType is the kind of a directed relationship.
type EdgeType string

const (
	EdgeOwns      EdgeType = "owns"
	EdgeLeases    EdgeType = "leases"
	EdgePartnerIn EdgeType = "partner_in"
)

// DefaultWeight is used for edges created without an explicit weight.
const DefaultWeight = 1.0

// Node is one entity of the investigation.
type Node struct {
	ID         string         `json:"id"`
	Type       NodeType       `json:"type"`
	Label      string         `json:"label"`
	Attributes map[string]any `json:"attributes"`
}

// Edge is a directed relationship. Count is the number of identical relations
// collapsed into this edge; Weight is the last one seen.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
	Weight float64  `json:"weight"`
	Count  int      `json:"count"`
}

// NodeID namespaces an entity id by its type, e.g. company_123.
func NodeID(t NodeType, id string) string {
	return string(t) + "_" + id
}

// Graph is an immutable directed multigraph with precomputed adjacency.
// Nodes are indexed 0..n-1 in ascending id order; every adjacency list is
// sorted so traversals are deterministic.
type Graph struct {
	nodes     []*Node
	index     map[string]int
	edges     []*Edge
	out       [][]int // node -> indices into edges
	in        [][]int
	succ      [][]int // distinct successor nodes, self excluded
	neighbors [][]int // distinct undirected neighbours, self excluded
	warnings  validation.Warnings
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct (source, target, type) edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Nodes returns the nodes in index order. Callers must not modify them.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns the edges sorted by source, target and type.
func (g *Graph) Edges() []*Edge { return g.edges }

// Node returns the node at index i.
func (g *Graph) Node(i int) *Node { return g.nodes[i] }

// Lookup returns the node with the given id.
func (g *Graph) Lookup(id string) (*Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Index returns the position of the node with the given id.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// OutEdges returns the edges leaving node i.
func (g *Graph) OutEdges(i int) []*Edge {
	return g.collect(g.out[i])
}

// InEdges returns the edges entering node i.
func (g *Graph) InEdges(i int) []*Edge {
	return g.collect(g.in[i])
}

func (g *Graph) collect(idx []int) []*Edge {
	out := make([]*Edge, len(idx))
	for k, e := range idx {
		out[k] = g.edges[e]
	}
	return out
}

// Successors returns the distinct nodes reachable over one outgoing edge of
// any type, excluding self-loops.
func (g *Graph) Successors(i int) []int { return g.succ[i] }

// Neighbors returns the distinct nodes adjacent to i in either direction,
// excluding self-loops.
func (g *Graph) Neighbors(i int) []int { return g.neighbors[i] }

// Degree is the number of distinct neighbours of node i.
func (g *Graph) Degree(i int) int { return len(g.neighbors[i]) }

// Warnings returns the relations that were skipped while building the graph.
func (g *Graph) Warnings() validation.Warnings { return g.warnings }

// Filter returns a graph with every node of g and only the edges of the given
// types. It is used to carve the ownership subgraph out of the full graph.
func (g *Graph) Filter(types ...EdgeType) *Graph {
	keep := make(map[EdgeType]bool, len(types))
	for _, t := range types {
		keep[t] = true
	}

	b := NewBuilder()
	for _, n := range g.nodes {
		b.AddNode(*n)
	}
	for _, e := range g.edges {
		if !keep[e.Type] {
			continue
		}
		for c := 0; c < e.Count; c++ {
			// Endpoints come from g, so AddEdge cannot fail here.
			_ = b.AddEdge(e.Source, e.Target, e.Type, e.Weight)
		}
	}
	return b.Graph()
}

// Builder accumulates nodes and edges and produces an immutable Graph.
type Builder struct {
	nodes    map[string]*Node
	edges    map[edgeKey]*Edge
	warnings validation.Warnings
}

type edgeKey struct {
	source, target string
	typ            EdgeType
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[string]*Node),
		edges: make(map[edgeKey]*Edge),
	}
}

// AddNode registers a node. A node id is created once; later additions with
// the same id are ignored.
func (b *Builder) AddNode(n Node) bool {
	if _, exists := b.nodes[n.ID]; exists {
		return false
	}
	if n.Attributes == nil {
		n.Attributes = map[string]any{}
	}
	b.nodes[n.ID] = &n
	return true
}

// HasNode reports whether a node id is registered.
func (b *Builder) HasNode(id string) bool {
	_, ok := b.nodes[id]
	return ok
}

// AddEdge adds a directed edge between two registered nodes. Repeated
// (source, target, type) triples collapse into one edge whose Count grows and
// whose Weight is the last one given. A non-positive weight means DefaultWeight.
func (b *Builder) AddEdge(source, target string, t EdgeType, weight float64) error {
	if !b.HasNode(source) {
		return fmt.Errorf("edge %s -[%s]-> %s: unknown source node", source, t, target)
	}
	if !b.HasNode(target) {
		return fmt.Errorf("edge %s -[%s]-> %s: unknown target node", source, t, target)
	}
	if weight <= 0 {
		weight = DefaultWeight
	}

	key := edgeKey{source, target, t}
	if e, ok := b.edges[key]; ok {
		e.Count++
		e.Weight = weight
		return nil
	}
	b.edges[key] = &Edge{Source: source, Target: target, Type: t, Weight: weight, Count: 1}
	return nil
}

// Warn records a skipped relation.
func (b *Builder) Warn(format string, args ...any) {
	b.warnings.Add("graph", format, args...)
}

// Graph freezes the builder into an immutable Graph.
func (b *Builder) Graph() *Graph {
	g := &Graph{
		nodes:    make([]*Node, 0, len(b.nodes)),
		index:    make(map[string]int, len(b.nodes)),
		edges:    make([]*Edge, 0, len(b.edges)),
		warnings: append(validation.Warnings(nil), b.warnings...),
	}

	for _, n := range b.nodes {
		g.nodes = append(g.nodes, n)
	}
	sort.Slice(g.nodes, func(i, j int) bool { return g.nodes[i].ID < g.nodes[j].ID })
	for i, n := range g.nodes {
		g.index[n.ID] = i
	}

	for _, e := range b.edges {
		g.edges = append(g.edges, e)
	}
	sort.Slice(g.edges, func(i, j int) bool {
		a, c := g.edges[i], g.edges[j]
		if a.Source != c.Source {
			return a.Source < c.Source
		}
		if a.Target != c.Target {
			return a.Target < c.Target
		}
		return a.Type < c.Type
	})

	n := len(g.nodes)
	g.out = make([][]int, n)
	g.in = make([][]int, n)
	succSets := make([]map[int]bool, n)
	nbrSets := make([]map[int]bool, n)
	for i := range g.nodes {
		succSets[i] = make(map[int]bool)
		nbrSets[i] = make(map[int]bool)
	}

	for k, e := range g.edges {
		s := g.index[e.Source]
		t := g.index[e.Target]
		g.out[s] = append(g.out[s], k)
		g.in[t] = append(g.in[t], k)
		if s == t {
			continue
		}
		succSets[s][t] = true
		nbrSets[s][t] = true
		nbrSets[t][s] = true
	}

	g.succ = make([][]int, n)
	g.neighbors = make([][]int, n)
	for i := 0; i < n; i++ {
		g.succ[i] = sortedKeys(succSets[i])
		g.neighbors[i] = sortedKeys(nbrSets[i])
	}

	return g
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
