package network

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/graph"
)

func buildGraph(t testing.TB, ids []string, edges [][2]string) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	for _, id := range ids {
		b.AddNode(graph.Node{ID: id, Type: graph.NodeCompany, Label: strings.ToUpper(id)})
	}
	for _, e := range edges {
		if err := b.AddEdge(e[0], e[1], graph.EdgePartnerIn, 1); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
		}
	}
	return b.Graph()
}

func analyze(t *testing.T, g *graph.Graph) *Metrics {
	t.Helper()
	m, err := NewAnalyzer(nil, Options{Workers: 2}).Analyze(context.Background(), g)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return m
}

func star(t *testing.T) *graph.Graph {
	ids := []string{"hub", "l1", "l2", "l3", "l4", "l5", "l6"}
	var edges [][2]string
	for _, leaf := range ids[1:] {
		edges = append(edges, [2]string{"hub", leaf})
	}
	return buildGraph(t, ids, edges)
}

// A 3-node ownership cycle A->B->C->A.
func TestAnalyze_Cycle(t *testing.T) {
	snap := &entities.Snapshot{
		InvestigationID: "ownership-cycle",
		Companies:       []entities.Company{{ID: "A"}, {ID: "B"}, {ID: "C"}},
	}
	for _, pair := range [][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}} {
		snap.Relations = append(snap.Relations, entities.Relation{
			SourceType: entities.EntityCompany, SourceID: pair[0],
			TargetType: entities.EntityCompany, TargetID: pair[1],
			Type: entities.RelationPartnerIn,
		})
	}
	g, err := graph.Build(snap)
	if err != nil {
		t.Fatal(err)
	}

	m := analyze(t, g)
	if m.Clusters != 1 {
		t.Errorf("Expected 1 cluster, got %d", m.Clusters)
	}
	if m.NumNodes != 3 || m.NumEdges != 3 {
		t.Errorf("Expected 3 nodes and 3 edges, got %d/%d", m.NumNodes, m.NumEdges)
	}
	if m.Density != 0.5 {
		t.Errorf("Expected density 0.5, got %v", m.Density)
	}
	if len(m.Bridges) != 0 || len(m.IsolatedNodes) != 0 {
		t.Errorf("Cycle has no bridges or isolated nodes: %v %v", m.Bridges, m.IsolatedNodes)
	}
}

// An investigation with no records.
func TestAnalyze_Empty(t *testing.T) {
	m := analyze(t, graph.NewBuilder().Graph())

	if m.NumNodes != 0 || m.NumEdges != 0 || m.Density != 0 || m.Clusters != 0 {
		t.Errorf("Expected zero metrics, got %+v", m)
	}
	if m.CentralNodes == nil || len(m.CentralNodes) != 0 {
		t.Errorf("Expected empty central_nodes, got %#v", m.CentralNodes)
	}
	if len(m.Communities) != 0 || len(m.KeyPlayers) != 0 || len(m.SuspiciousPatterns) != 0 {
		t.Errorf("Expected empty lists, got %+v", m)
	}
	if m.GraphData == nil || len(m.GraphData.Nodes) != 0 {
		t.Errorf("Expected empty graph_data, got %+v", m.GraphData)
	}
}

func TestAnalyze_NilGraph(t *testing.T) {
	if _, err := NewAnalyzer(nil, Options{}).Analyze(context.Background(), nil); err == nil {
		t.Error("Expected error for nil graph")
	}
}

func TestAnalyze_CentralNodesRanking(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "lonely"}, [][2]string{{"a", "b"}, {"b", "c"}})
	m := analyze(t, g)

	// n = 4, so b: 0.6*2/3 + 0.4*1/6; a and c: 0.6*1/3, tie broken by id
	want := []CentralNode{{"b", 0.4667}, {"a", 0.2}, {"c", 0.2}}
	if !reflect.DeepEqual(m.CentralNodes, want) {
		t.Errorf("Expected %v, got %v", want, m.CentralNodes)
	}
	for _, c := range m.CentralNodes {
		if c.NodeID == "lonely" {
			t.Error("Isolated nodes must not be ranked")
		}
	}
	if !strings.HasPrefix(m.KeyPlayers[0], "1. B (b, company)") {
		t.Errorf("Unexpected first key player %q", m.KeyPlayers[0])
	}
	if m.Clusters != 2 {
		t.Errorf("Expected 2 clusters, got %d", m.Clusters)
	}
}

func TestAnalyze_TopN(t *testing.T) {
	var ids []string
	var edges [][2]string
	for i := 0; i < 15; i++ {
		ids = append(ids, fmt.Sprintf("n%02d", i))
		if i > 0 {
			edges = append(edges, [2]string{ids[i-1], ids[i]})
		}
	}
	m := analyze(t, buildGraph(t, ids, edges))
	if len(m.CentralNodes) != DefaultTopCentral {
		t.Errorf("Expected %d central nodes, got %d", DefaultTopCentral, len(m.CentralNodes))
	}
	if len(m.KeyPlayers) != DefaultTopKeyPlayers {
		t.Errorf("Expected %d key players, got %d", DefaultTopKeyPlayers, len(m.KeyPlayers))
	}
}

func TestAnalyze_StarAnomalies(t *testing.T) {
	m := analyze(t, star(t))

	if !reflect.DeepEqual(m.Hubs, []string{"hub"}) {
		t.Errorf("Expected hub to be flagged, got %v", m.Hubs)
	}
	if len(m.Bridges) != 6 {
		t.Errorf("Every star edge is a bridge, got %d", len(m.Bridges))
	}
	if !reflect.DeepEqual(m.ArticulationPoints, []string{"hub"}) {
		t.Errorf("Expected hub as articulation point, got %v", m.ArticulationPoints)
	}
	if !strings.HasPrefix(m.SuspiciousPatterns[0], "Hub: hub") {
		t.Errorf("Expected hubs first in suspicious_patterns, got %v", m.SuspiciousPatterns)
	}
	if m.CentralNodes[0].NodeID != "hub" {
		t.Errorf("Expected hub to be the most central node, got %v", m.CentralNodes[0])
	}
}

func TestAnalyze_IsolatedAndSparse(t *testing.T) {
	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, fmt.Sprintf("iso%d", i))
	}
	m := analyze(t, buildGraph(t, ids, nil))

	if len(m.IsolatedNodes) != 10 {
		t.Errorf("Expected 10 isolated nodes, got %d", len(m.IsolatedNodes))
	}
	if m.Clusters != 10 {
		t.Errorf("Expected 10 clusters, got %d", m.Clusters)
	}
	joined := strings.Join(m.SuspiciousPatterns, "\n")
	if !strings.Contains(joined, "10 entidade(s) isolada(s)") {
		t.Errorf("Expected isolated-node finding, got %v", m.SuspiciousPatterns)
	}
	if !strings.Contains(joined, "Densidade anormalmente baixa") {
		t.Errorf("Expected sparse-density finding, got %v", m.SuspiciousPatterns)
	}
	if len(m.Communities) != 0 {
		t.Errorf("Isolated nodes form no communities, got %v", m.Communities)
	}
}

func TestAnalyze_Communities(t *testing.T) {
	g := buildGraph(t,
		[]string{"a", "b", "c", "d", "e", "f"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"d", "e"}, {"e", "f"}, {"f", "d"}, {"c", "d"}},
	)
	m := analyze(t, g)

	if len(m.Communities) != 2 {
		t.Fatalf("Expected 2 communities, got %v", m.Communities)
	}
	if !reflect.DeepEqual(m.Communities[0].Nodes, []string{"a", "b", "c"}) {
		t.Errorf("Unexpected first community %v", m.Communities[0].Nodes)
	}
	if m.Modularity != round(5.0/14.0, 4) {
		t.Errorf("Expected modularity %v, got %v", round(5.0/14.0, 4), m.Modularity)
	}
	for _, n := range m.GraphData.Nodes {
		if n.Community < 0 {
			t.Errorf("Node %s should carry its community in graph_data", n.ID)
		}
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewAnalyzer(nil, Options{}).Analyze(ctx, star(t)); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	g := star(t)
	a := NewAnalyzer(nil, Options{Workers: 3})
	first, err := a.Analyze(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Analyze(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Repeated analyses of one graph differ")
	}
}

func TestAnalyze_LayoutFallback(t *testing.T) {
	m, err := NewAnalyzer(nil, Options{MaxForceLayout: 3}).Analyze(context.Background(), star(t))
	if err != nil {
		t.Fatal(err)
	}
	if m.GraphData.Metadata["layout"] != "circular" {
		t.Errorf("Expected circular fallback, got %v", m.GraphData.Metadata["layout"])
	}
}

func TestDensityProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("density stays within [0,1]", prop.ForAll(
		func(n int, raw []int) bool {
			b := graph.NewBuilder()
			for i := 0; i < n; i++ {
				b.AddNode(graph.Node{ID: fmt.Sprintf("n%02d", i)})
			}
			for k := 0; k+1 < len(raw); k += 2 {
				src := fmt.Sprintf("n%02d", raw[k]%n)
				tgt := fmt.Sprintf("n%02d", raw[k+1]%n)
				_ = b.AddEdge(src, tgt, graph.EdgeOwns, 1)
				_ = b.AddEdge(src, tgt, graph.EdgePartnerIn, 1)
			}
			d := Density(b.Graph())
			return d >= 0 && d <= 1
		},
		gen.IntRange(1, 12),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}
