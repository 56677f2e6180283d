package graph

import (
	"testing"
	"time"

	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/validation"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleSnapshot() *entities.Snapshot {
	return &entities.Snapshot{
		InvestigationID: "inv-1",
		CapturedAt:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Companies: []entities.Company{
			{ID: "1", CNPJ: "11.111.111/0001-11", Name: "Agro Norte", Status: "ATIVA", OpenDate: date(2020, 1, 2),
				Partners: []entities.Partner{
					{Name: "João da Silva", Document: "123.456.789-00", Role: "socio-administrador"},
					{Name: "Agro Sul", Document: "22.222.222/0001-22"},
				}},
			{ID: "2", CNPJ: "22.222.222/0001-22", Name: "Agro Sul"},
			{ID: "3", Name: "Sem Vinculo"},
		},
		Properties: []entities.Property{
			{ID: "p1", Name: "Fazenda Boa Vista", AreaHectares: 1200, City: "Sorriso", State: "MT", OwnerCompanyID: "1"},
			{ID: "p2", Name: "Fazenda Esperança", AreaHectares: 300, City: "Sinop", State: "MT", OwnerCompanyID: "99"},
		},
		LeaseContracts: []entities.LeaseContract{
			{ID: "l1", PropertyID: "p2", CompanyID: "2", Value: 50000},
		},
	}
}

func TestBuildNodes(t *testing.T) {
	g, err := Build(sampleSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// 3 companies + 2 properties + 1 QSA person (the QSA company resolves to company_2)
	if g.NodeCount() != 6 {
		t.Errorf("Expected 6 nodes, got %d", g.NodeCount())
	}

	n, ok := g.Lookup("company_1")
	if !ok {
		t.Fatal("Expected node company_1")
	}
	if n.Type != NodeCompany || n.Label != "Agro Norte" {
		t.Errorf("Unexpected node %+v", n)
	}
	if n.Attributes["open_date"] != "2020-01-02" {
		t.Errorf("Expected open_date attribute, got %v", n.Attributes["open_date"])
	}

	partner, ok := g.Lookup("person_qsa_12345678900")
	if !ok {
		t.Fatal("Expected QSA partner node keyed by CPF digits")
	}
	if partner.Label != "João da Silva" {
		t.Errorf("Expected partner label, got %q", partner.Label)
	}

	if _, ok := g.Lookup("company_3"); !ok {
		t.Error("Orphan company should be kept as an isolated node")
	}
}

func TestBuildEdges(t *testing.T) {
	g, err := Build(sampleSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := map[string]EdgeType{
		"company_1->property_p1":            EdgeOwns,
		"company_2->property_p2":            EdgeLeases,
		"person_qsa_12345678900->company_1": EdgePartnerIn,
		"company_2->company_1":              EdgePartnerIn,
	}
	if g.EdgeCount() != len(want) {
		t.Errorf("Expected %d edges, got %d", len(want), g.EdgeCount())
	}
	for _, e := range g.Edges() {
		key := e.Source + "->" + e.Target
		if want[key] != e.Type {
			t.Errorf("Unexpected edge %s (%s)", key, e.Type)
		}
		if e.Weight != DefaultWeight {
			t.Errorf("Expected default weight on %s, got %v", key, e.Weight)
		}
	}

	// Owner company 99 is unknown
	if len(g.Warnings()) != 1 {
		t.Errorf("Expected 1 warning, got %v", g.Warnings().Strings())
	}
}

func TestBuildDuplicateRelations(t *testing.T) {
	snap := &entities.Snapshot{
		InvestigationID: "dup",
		Companies:       []entities.Company{{ID: "a"}, {ID: "b"}},
		Relations: []entities.Relation{
			{SourceType: entities.EntityCompany, SourceID: "a", TargetType: entities.EntityCompany, TargetID: "b", Type: entities.RelationPartnerIn, Weight: 2},
			{SourceType: entities.EntityCompany, SourceID: "a", TargetType: entities.EntityCompany, TargetID: "b", Type: entities.RelationPartnerIn, Weight: 5},
			{SourceType: entities.EntityCompany, SourceID: "a", TargetType: entities.EntityCompany, TargetID: "b", Type: entities.RelationOwns},
		},
	}

	g, err := Build(snap)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if g.EdgeCount() != 2 {
		t.Fatalf("Expected 2 edges (one per type), got %d", g.EdgeCount())
	}
	for _, e := range g.Edges() {
		if e.Type != EdgePartnerIn {
			continue
		}
		if e.Count != 2 {
			t.Errorf("Expected count 2, got %d", e.Count)
		}
		if e.Weight != 5 {
			t.Errorf("Expected last weight 5, got %v", e.Weight)
		}
	}

	a, _ := g.Index("company_a")
	if g.Degree(a) != 1 {
		t.Errorf("Parallel edges should count one neighbour, got %d", g.Degree(a))
	}
}

func TestBuildUnknownRelationEndpoint(t *testing.T) {
	snap := &entities.Snapshot{
		InvestigationID: "x",
		Companies:       []entities.Company{{ID: "a"}},
		Relations: []entities.Relation{
			{SourceType: entities.EntityCompany, SourceID: "a", TargetType: entities.EntityProperty, TargetID: "ghost", Type: entities.RelationOwns},
		},
	}

	g, err := Build(snap)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("Expected relation to unknown entity to be skipped")
	}
	if len(g.Warnings()) != 1 {
		t.Errorf("Expected a warning for the skipped relation")
	}
}

func TestBuildRejectsEmptyID(t *testing.T) {
	snap := &entities.Snapshot{
		InvestigationID: "x",
		Properties:      []entities.Property{{ID: "ok"}, {ID: " "}},
	}

	_, err := Build(snap)
	if !validation.IsValidationError(err) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestBuildNilSnapshot(t *testing.T) {
	if _, err := Build(nil); !validation.IsValidationError(err) {
		t.Errorf("Expected ValidationError for nil snapshot, got %v", err)
	}
}

func TestBuildEmptySnapshot(t *testing.T) {
	g, err := Build(&entities.Snapshot{InvestigationID: "empty"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("Expected empty graph, got %d nodes %d edges", g.NodeCount(), g.EdgeCount())
	}
}

func TestBuildDeterministicOrder(t *testing.T) {
	first, _ := Build(sampleSnapshot())
	for i := 0; i < 10; i++ {
		g, _ := Build(sampleSnapshot())
		for k, n := range g.Nodes() {
			if n.ID != first.Node(k).ID {
				t.Fatalf("Node order changed at %d: %s vs %s", k, n.ID, first.Node(k).ID)
			}
		}
		for k, e := range g.Edges() {
			fe := first.Edges()[k]
			if e.Source != fe.Source || e.Target != fe.Target || e.Type != fe.Type {
				t.Fatalf("Edge order changed at %d", k)
			}
		}
	}
}

func TestFilter(t *testing.T) {
	g, _ := Build(sampleSnapshot())
	owns := g.Filter(EdgeOwns, EdgePartnerIn)

	if owns.NodeCount() != g.NodeCount() {
		t.Errorf("Filter must keep every node")
	}
	for _, e := range owns.Edges() {
		if e.Type == EdgeLeases {
			t.Errorf("Filter kept a lease edge")
		}
	}
	if owns.EdgeCount() != 3 {
		t.Errorf("Expected 3 ownership/partnership edges, got %d", owns.EdgeCount())
	}
}

func TestBuilderSelfLoop(t *testing.T) {
	b := NewBuilder()
	b.AddNode(Node{ID: "a"})
	if err := b.AddEdge("a", "a", EdgeOwns, 0); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	g := b.Graph()

	if g.EdgeCount() != 1 {
		t.Errorf("Self-loop edge should be stored")
	}
	if g.Degree(0) != 0 || len(g.Successors(0)) != 0 {
		t.Errorf("Self-loops must not count as neighbours")
	}
	if len(g.OutEdges(0)) != 1 || len(g.InEdges(0)) != 1 {
		t.Errorf("Self-loop should appear in both edge lists")
	}
}

func TestBuilderUnknownEndpoint(t *testing.T) {
	b := NewBuilder()
	b.AddNode(Node{ID: "a"})
	if err := b.AddEdge("a", "b", EdgeOwns, 1); err == nil {
		t.Error("Expected error for unknown target")
	}
	if err := b.AddEdge("b", "a", EdgeOwns, 1); err == nil {
		t.Error("Expected error for unknown source")
	}
}
