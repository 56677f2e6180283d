package network

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dd0wney/agrorisk/pkg/algorithms"
	"github.com/dd0wney/agrorisk/pkg/graph"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/validation"
	"github.com/dd0wney/agrorisk/pkg/visualization"
)

// Weights of the combined centrality score.
const (
	DegreeWeight      = 0.6
	BetweennessWeight = 0.4
)

// Defaults for Options.
const (
	DefaultTopCentral     = 10
	DefaultTopKeyPlayers  = 5
	DefaultMaxForceLayout = 1500

	// hubFactor marks a node as hub when its degree exceeds this multiple
	// of the mean degree.
	hubFactor = 2.0

	abnormalDensityMinNodes = 10
	sparseDensity           = 0.01
	denseDensity            = 0.5
)

// Options tunes the analyzer.
type Options struct {
	Workers       int    // betweenness workers, <= 0 means runtime.NumCPU()
	TopCentral    int    // length of central_nodes
	TopKeyPlayers int    // length of key_players
	Layout        string // visualization layout of graph_data
	// MaxForceLayout is the node count above which the force layout is
	// replaced by the circular one.
	MaxForceLayout int
	LayoutConfig   visualization.LayoutConfig
}

// Analyzer computes network metrics. It keeps no state between runs and is
// safe for concurrent use.
type Analyzer struct {
	logger logging.Logger
	opts   Options
}

// NewAnalyzer creates an analyzer. A nil logger discards output.
func NewAnalyzer(logger logging.Logger, opts Options) *Analyzer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.TopCentral <= 0 {
		opts.TopCentral = DefaultTopCentral
	}
	if opts.TopKeyPlayers <= 0 {
		opts.TopKeyPlayers = DefaultTopKeyPlayers
	}
	if opts.MaxForceLayout <= 0 {
		opts.MaxForceLayout = DefaultMaxForceLayout
	}
	opts.Layout = validation.DefaultOr(opts.Layout, visualization.LayoutForce)
	return &Analyzer{logger: logger.With(logging.Component("network")), opts: opts}
}

// Analyze computes the metrics of g. Isolated nodes are kept and reported;
// an empty graph yields zero metrics and empty lists. It returns ctx.Err()
// when ctx is cancelled during the centrality pass.
func (a *Analyzer) Analyze(ctx context.Context, g *graph.Graph) (*Metrics, error) {
	if g == nil {
		return nil, fmt.Errorf("network analysis: nil graph")
	}
	timer := logging.StartTimer(a.logger, "network analysis completed",
		logging.Int("nodes", g.NodeCount()), logging.Int("edges", g.EdgeCount()))

	n := g.NodeCount()
	m := &Metrics{
		NumNodes:           n,
		NumEdges:           g.EdgeCount(),
		Density:            round(Density(g), 4),
		CentralNodes:       make([]CentralNode, 0),
		Communities:        make([]CommunitySummary, 0),
		KeyPlayers:         make([]string, 0),
		SuspiciousPatterns: make([]string, 0),
		Hubs:               make([]string, 0),
		IsolatedNodes:      make([]string, 0),
	}

	degree := algorithms.DegreeCentrality(g)
	betweenness, err := algorithms.BetweennessCentrality(ctx, g, algorithms.BetweennessOptions{
		Workers: a.opts.Workers,
		Logger:  a.logger,
	})
	if err != nil {
		timer.EndError(err)
		return nil, fmt.Errorf("betweenness centrality: %w", err)
	}
	combined := make([]float64, n)
	for i := range combined {
		combined[i] = round(DegreeWeight*degree[i]+BetweennessWeight*betweenness[i], 4)
	}

	communities := algorithms.GreedyModularity(g)
	m.Modularity = round(communities.Modularity, 4)
	for _, c := range communities.Communities {
		if c.Size < 2 {
			continue
		}
		m.Communities = append(m.Communities, CommunitySummary{
			ID:      c.ID,
			Size:    c.Size,
			Nodes:   c.Nodes,
			Density: round(c.Density, 4),
		})
	}

	m.Clusters = len(algorithms.WeakComponents(g))

	ranked := rankByCentrality(g, combined)
	for _, i := range ranked {
		if len(m.CentralNodes) == a.opts.TopCentral {
			break
		}
		m.CentralNodes = append(m.CentralNodes, CentralNode{NodeID: g.Node(i).ID, Centrality: combined[i]})
	}
	for rank, i := range ranked {
		if rank == a.opts.TopKeyPlayers {
			break
		}
		m.KeyPlayers = append(m.KeyPlayers, keyPlayer(g, rank+1, i, combined[i], communities.NodeCommunity))
	}

	bridges := algorithms.FindBridges(g)
	m.Bridges = bridges.Bridges
	m.ArticulationPoints = bridges.ArticulationPoints
	m.Hubs = hubs(g)
	for i := 0; i < n; i++ {
		if g.Degree(i) == 0 {
			m.IsolatedNodes = append(m.IsolatedNodes, g.Node(i).ID)
		}
	}
	m.SuspiciousPatterns = anomalies(g, m)

	data, err := a.graphData(g, combined, communities.NodeCommunity, m)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	m.GraphData = data

	timer.End(
		logging.Int("communities", len(m.Communities)),
		logging.Int("clusters", m.Clusters),
		logging.Int("anomalies", len(m.SuspiciousPatterns)),
	)
	return m, nil
}

// Density is E / (n·(n-1)) over the directed simple graph: parallel edges
// of different types count once and self-loops are ignored. It is 0 when
// the graph has fewer than two nodes.
func Density(g *graph.Graph) float64 {
	n := g.NodeCount()
	if n < 2 {
		return 0
	}
	arcs := 0
	for i := 0; i < n; i++ {
		arcs += len(g.Successors(i))
	}
	return float64(arcs) / float64(n*(n-1))
}

// rankByCentrality returns the non-isolated node indices ordered by combined
// centrality descending, ties by id.
func rankByCentrality(g *graph.Graph, combined []float64) []int {
	ranked := make([]int, 0, g.NodeCount())
	for i := 0; i < g.NodeCount(); i++ {
		if g.Degree(i) > 0 {
			ranked = append(ranked, i)
		}
	}
	sort.SliceStable(ranked, func(x, y int) bool {
		i, j := ranked[x], ranked[y]
		if combined[i] != combined[j] {
			return combined[i] > combined[j]
		}
		return g.Node(i).ID < g.Node(j).ID
	})
	return ranked
}

func keyPlayer(g *graph.Graph, rank, i int, score float64, community map[string]int) string {
	n := g.Node(i)
	label := n.Label
	if label == "" {
		label = n.ID
	}
	s := fmt.Sprintf("%d. %s (%s, %s): centralidade %.4f, %d conexões", rank, label, n.ID, n.Type, score, g.Degree(i))
	if c, ok := community[n.ID]; ok {
		s += fmt.Sprintf(", comunidade %d", c)
	}
	return s
}

// hubs returns the nodes whose degree exceeds twice the mean degree.
func hubs(g *graph.Graph) []string {
	n := g.NodeCount()
	out := make([]string, 0)
	if n == 0 {
		return out
	}
	total := 0
	for i := 0; i < n; i++ {
		total += g.Degree(i)
	}
	mean := float64(total) / float64(n)
	if mean == 0 {
		return out
	}
	for i := 0; i < n; i++ {
		if float64(g.Degree(i)) > hubFactor*mean {
			out = append(out, g.Node(i).ID)
		}
	}
	return out
}

// anomalies renders the structural findings as the suspicious_patterns
// strings, in a fixed order: hubs, bridges, articulation points, isolated
// nodes, density.
func anomalies(g *graph.Graph, m *Metrics) []string {
	out := make([]string, 0)
	for _, id := range m.Hubs {
		i, _ := g.Index(id)
		out = append(out, fmt.Sprintf("Hub: %s concentra %d conexões (mais que o dobro da média)", id, g.Degree(i)))
	}
	for _, b := range m.Bridges {
		out = append(out, fmt.Sprintf("Ponte: a ligação %s <-> %s é a única conexão entre dois grupos", b.Source, b.Target))
	}
	for _, id := range m.ArticulationPoints {
		out = append(out, fmt.Sprintf("Ponto de articulação: remover %s desconecta a rede", id))
	}
	if len(m.IsolatedNodes) > 0 {
		out = append(out, fmt.Sprintf("%d entidade(s) isolada(s) sem vínculos conhecidos: %s",
			len(m.IsolatedNodes), strings.Join(m.IsolatedNodes, ", ")))
	}
	if g.NodeCount() >= abnormalDensityMinNodes {
		switch {
		case m.Density < sparseDensity:
			out = append(out, fmt.Sprintf("Densidade anormalmente baixa: %.4f", m.Density))
		case m.Density > denseDensity:
			out = append(out, fmt.Sprintf("Densidade anormalmente alta: %.4f", m.Density))
		}
	}
	return out
}

func (a *Analyzer) graphData(g *graph.Graph, combined []float64, community map[string]int, m *Metrics) (*visualization.GraphData, error) {
	name := a.opts.Layout
	if name == visualization.LayoutForce && g.NodeCount() > a.opts.MaxForceLayout {
		name = visualization.LayoutCircular
	}
	layout, err := visualization.NewLayout(name, a.opts.LayoutConfig)
	if err != nil {
		return nil, fmt.Errorf("graph data: %w", err)
	}
	positions, err := layout.ComputeLayout(g)
	if err != nil {
		return nil, fmt.Errorf("graph data: %w", err)
	}

	v := &visualization.Visualization{
		Graph:      g,
		Layout:     name,
		Positions:  positions,
		Centrality: combined,
		Community:  community,
		Metadata: map[string]any{
			"density":     m.Density,
			"modularity":  m.Modularity,
			"clusters":    m.Clusters,
			"communities": len(m.Communities),
		},
	}
	return v.Data(), nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
