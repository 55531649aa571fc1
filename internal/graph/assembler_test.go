package graph

import (
	"testing"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

func node(id string, typ types.NodeType, sec types.Section, conf float64, index int, text string) types.Node {
	return types.Node{ID: id, Type: typ, Section: sec, Confidence: conf, Index: index, Text: text}
}

func TestNormalizedDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		zero bool
	}{
		{"identical", "We treated cells.", "We treated cells.", true},
		{"case and spacing", "We  Treated cells.", "we treated cells.", true},
		{"different", "We treated cells.", "ANOVA revealed differences.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := normalizedDistance(tt.a, tt.b)
			if tt.zero && d != 0 {
				t.Errorf("distance = %v, want 0", d)
			}
			if !tt.zero && d <= 0.2 {
				t.Errorf("distance = %v, want > 0.2", d)
			}
		})
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDedupeKeepsHighestConfidence(t *testing.T) {
	a := NewAssembler(types.GraphConfig{})
	nodes := []types.Node{
		node("n1", types.NodeExperiment, types.SectionMethods, 0.6, 0, "We treated mice with daily fasting cycles."),
		node("n2", types.NodeExperiment, types.SectionMethods, 0.9, 1, "We treated mice with daily fasting cycles"),
		node("n3", types.NodeDataset, types.SectionMethods, 0.8, 2, "We used a cohort of n=24 mice."),
	}

	got := a.Dedupe(nodes)
	if len(got) != 2 {
		t.Fatalf("got %d nodes, want 2", len(got))
	}
	if got[0].ID != "n2" {
		t.Errorf("survivor = %s, want n2 (higher confidence)", got[0].ID)
	}
	if got[1].ID != "n3" {
		t.Errorf("second node = %s, want n3", got[1].ID)
	}
}

func TestDedupeDifferentSectionOrTypeKept(t *testing.T) {
	a := NewAssembler(types.GraphConfig{})
	nodes := []types.Node{
		node("n1", types.NodeExperiment, types.SectionMethods, 0.8, 0, "Same sentence text."),
		node("n2", types.NodeExperiment, types.SectionResults, 0.8, 1, "Same sentence text."),
		node("n3", types.NodeDataset, types.SectionMethods, 0.8, 2, "Same sentence text."),
	}

	if got := a.Dedupe(nodes); len(got) != 3 {
		t.Errorf("got %d nodes, want 3 (no cross-section or cross-type dedup)", len(got))
	}
}

func TestDedupeIdempotent(t *testing.T) {
	a := NewAssembler(types.GraphConfig{})
	nodes := []types.Node{
		node("n1", types.NodeHypothesis, types.SectionIntroduction, 0.9, 0, "We propose that X modulates Y."),
		node("n2", types.NodeHypothesis, types.SectionIntroduction, 0.7, 1, "We propose that X modulates Y."),
		node("n3", types.NodeExperiment, types.SectionMethods, 0.8, 2, "We performed the assay."),
	}

	once := a.Dedupe(nodes)
	twice := a.Dedupe(once)
	if len(once) != len(twice) {
		t.Fatalf("second pass removed nodes: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("node[%d] changed: %s -> %s", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestInferEdges(t *testing.T) {
	nodes := []types.Node{
		node("hyp", types.NodeHypothesis, types.SectionIntroduction, 0.9, 0, "We hypothesize X."),
		node("exp", types.NodeExperiment, types.SectionMethods, 0.8, 1, "We treated cells."),
		node("ds", types.NodeDataset, types.SectionMethods, 0.85, 2, "Data were obtained from 32 samples."),
		node("an", types.NodeAnalysis, types.SectionResults, 0.7, 3, "ANOVA revealed differences."),
		node("con", types.NodeConclusion, types.SectionDiscussion, 0.75, 4, "These findings suggest X."),
	}

	edges := InferEdges(nodes)

	want := map[string]types.EdgeType{
		"hyp->exp": types.EdgeSupports,
		"exp->ds":  types.EdgeProduces,
		"exp->an":  types.EdgeAnalyzes,
		"ds->an":   types.EdgeAnalyzes,
		"an->con":  types.EdgeConcludes,
	}
	if len(edges) != len(want) {
		t.Fatalf("got %d edges, want %d: %+v", len(edges), len(want), edges)
	}
	for _, e := range edges {
		key := e.Start + "->" + e.End
		typ, ok := want[key]
		if !ok {
			t.Errorf("unexpected edge %s (%s)", key, e.Type)
			continue
		}
		if e.Type != typ {
			t.Errorf("edge %s type = %s, want %s", key, e.Type, typ)
		}
	}
}

func TestInferEdgesConfidenceIsMin(t *testing.T) {
	nodes := []types.Node{
		node("ds", types.NodeDataset, types.SectionMethods, 0.9, 0, "Cohort of n=24."),
		node("an", types.NodeAnalysis, types.SectionResults, 0.6, 1, "We computed statistics."),
	}

	edges := InferEdges(nodes)
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}
	if edges[0].Confidence != 0.6 {
		t.Errorf("edge confidence = %v, want 0.6 (min of endpoints)", edges[0].Confidence)
	}
}

func TestInferEdgesNearestFollowingOnly(t *testing.T) {
	// Two analyses after the dataset: only the nearest is linked. An
	// analysis before the dataset is never linked backwards.
	nodes := []types.Node{
		node("an0", types.NodeAnalysis, types.SectionResults, 0.8, 0, "Earlier analysis."),
		node("ds", types.NodeDataset, types.SectionMethods, 0.9, 1, "Cohort of n=24."),
		node("an1", types.NodeAnalysis, types.SectionResults, 0.8, 2, "First following analysis."),
		node("an2", types.NodeAnalysis, types.SectionResults, 0.8, 3, "Second following analysis."),
	}

	edges := InferEdges(nodes)
	var dsEdges []types.Edge
	for _, e := range edges {
		if e.Start == "ds" {
			dsEdges = append(dsEdges, e)
		}
	}
	if len(dsEdges) != 1 {
		t.Fatalf("dataset has %d outgoing edges, want 1", len(dsEdges))
	}
	if dsEdges[0].End != "an1" {
		t.Errorf("dataset links to %s, want an1 (nearest following)", dsEdges[0].End)
	}
}

func TestInferEdgesNoFollowingNode(t *testing.T) {
	nodes := []types.Node{
		node("an", types.NodeAnalysis, types.SectionResults, 0.8, 0, "We computed statistics."),
	}
	if edges := InferEdges(nodes); len(edges) != 0 {
		t.Errorf("got %d edges with no eligible target, want 0", len(edges))
	}
}

func TestAssembleValidGraph(t *testing.T) {
	a := NewAssembler(types.GraphConfig{})
	nodes := []types.Node{
		node("hyp", types.NodeHypothesis, types.SectionIntroduction, 0.9, 0, "We hypothesize X."),
		node("exp", types.NodeExperiment, types.SectionMethods, 0.8, 1, "We treated cells."),
	}

	g, err := a.Assemble("paper-1", "run-1", nodes)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if g.DocID != "paper-1" || g.RunID != "run-1" {
		t.Errorf("graph identity = %s/%s", g.DocID, g.RunID)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Errorf("got %d nodes, %d edges; want 2, 1", len(g.Nodes), len(g.Edges))
	}
}

func TestValidateDanglingEdge(t *testing.T) {
	g := types.Graph{
		Nodes: []types.Node{node("a", types.NodeHypothesis, types.SectionAbstract, 0.9, 0, "text")},
		Edges: []types.Edge{{Start: "a", End: "missing", Type: types.EdgeSupports, Confidence: 0.5}},
	}
	if err := Validate(g); err == nil {
		t.Error("expected error for dangling edge")
	}
}

func TestValidateBadVocabulary(t *testing.T) {
	g := types.Graph{
		Nodes: []types.Node{node("a", "Speculation", types.SectionAbstract, 0.9, 0, "text")},
	}
	if err := Validate(g); err == nil {
		t.Error("expected error for invalid node type")
	}

	g = types.Graph{
		Nodes: []types.Node{
			node("a", types.NodeAnalysis, types.SectionResults, 0.9, 0, "text a"),
			node("b", types.NodeConclusion, types.SectionDiscussion, 0.8, 1, "text b"),
		},
		Edges: []types.Edge{{Start: "a", End: "b", Type: "contradicts", Confidence: 0.5}},
	}
	if err := Validate(g); err == nil {
		t.Error("expected error for invalid edge type")
	}
}
