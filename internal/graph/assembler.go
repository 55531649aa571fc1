// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph assembles the finalized node list of one document into a
// deduplicated node set plus inferred typed edges. Edges follow the
// canonical IMRaD narrative: each node links forward to the nearest
// following node of the next role, never across document boundaries, and an
// edge's confidence is the minimum of its endpoints'.
package graph

import (
	"fmt"
	"sort"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

// edgeRule links a source type to the nearest following node of the target
// type.
type edgeRule struct {
	from types.NodeType
	to   types.NodeType
	typ  types.EdgeType
}

// edgeRules is the canonical narrative adjacency. Experiment carries two
// rules because it both produces data and feeds analysis directly.
var edgeRules = []edgeRule{
	{types.NodeHypothesis, types.NodeExperiment, types.EdgeSupports},
	{types.NodeExperiment, types.NodeDataset, types.EdgeProduces},
	{types.NodeExperiment, types.NodeAnalysis, types.EdgeAnalyzes},
	{types.NodeDataset, types.NodeAnalysis, types.EdgeAnalyzes},
	{types.NodeAnalysis, types.NodeConclusion, types.EdgeConcludes},
}

// Assembler builds graphs under one deduplication configuration.
type Assembler struct {
	cfg types.GraphConfig
}

// NewAssembler returns an assembler for the given configuration.
func NewAssembler(cfg types.GraphConfig) Assembler {
	return Assembler{cfg: cfg}
}

// dedupeThreshold returns the configured threshold with the default applied.
func (a Assembler) dedupeThreshold() float64 {
	if a.cfg.DedupeThreshold <= 0 {
		return 0.2
	}
	return a.cfg.DedupeThreshold
}

// Assemble deduplicates the node list, infers edges, and validates the
// result. The input must already be finalized: one node per sentence in
// document order. A validation failure indicates an internal invariant
// breach and is returned rather than dropped.
func (a Assembler) Assemble(docID, runID string, nodes []types.Node) (types.Graph, error) {
	g := types.Graph{
		DocID: docID,
		RunID: runID,
		Nodes: a.Dedupe(nodes),
	}
	g.Edges = InferEdges(g.Nodes)

	if err := Validate(g); err != nil {
		return types.Graph{}, fmt.Errorf("graph consistency violation: %w", err)
	}
	return g, nil
}

// Dedupe drops near-identical nodes. Two nodes are duplicates when they
// share section and type and the normalized edit distance of their text
// falls below the threshold; the highest-confidence node survives, keeping
// its own evidence. Ties keep the earlier node. Running Dedupe on an
// already-deduplicated set returns the same set.
func (a Assembler) Dedupe(nodes []types.Node) []types.Node {
	threshold := a.dedupeThreshold()

	// Judge in confidence order so the survivor of any duplicate group is
	// its highest-confidence member.
	order := make([]types.Node, len(nodes))
	copy(order, nodes)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Confidence != order[j].Confidence {
			return order[i].Confidence > order[j].Confidence
		}
		return order[i].Index < order[j].Index
	})

	var kept []types.Node
	for _, n := range order {
		dup := false
		for _, k := range kept {
			if n.Section != k.Section || n.Type != k.Type {
				continue
			}
			if normalizedDistance(n.Text, k.Text) < threshold {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, n)
		}
	}

	// Restore document order.
	sort.Slice(kept, func(i, j int) bool { return kept[i].Index < kept[j].Index })
	return kept
}

// InferEdges links each node to the nearest following node per the
// narrative adjacency rules. A node with no eligible following node simply
// produces no edge.
func InferEdges(nodes []types.Node) []types.Edge {
	var edges []types.Edge

	for i, src := range nodes {
		for _, rule := range edgeRules {
			if src.Type != rule.from {
				continue
			}
			for j := i + 1; j < len(nodes); j++ {
				if nodes[j].Type != rule.to {
					continue
				}
				edges = append(edges, types.Edge{
					Start:      src.ID,
					End:        nodes[j].ID,
					Type:       rule.typ,
					Confidence: minConfidence(src.Confidence, nodes[j].Confidence),
				})
				break
			}
		}
	}

	return edges
}

// Validate checks the output invariants: five-type vocabulary, confidence
// ranges, and no dangling edges.
func Validate(g types.Graph) error {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if !types.ValidNodeType(n.Type) {
			return fmt.Errorf("node %s has invalid type %q", n.ID, n.Type)
		}
		if n.Confidence < 0 || n.Confidence > 1 {
			return fmt.Errorf("node %s has confidence %v out of range", n.ID, n.Confidence)
		}
		if _, ok := ids[n.ID]; ok {
			return fmt.Errorf("duplicate node id %s", n.ID)
		}
		ids[n.ID] = struct{}{}
	}

	for _, e := range g.Edges {
		if !types.ValidEdgeType(e.Type) {
			return fmt.Errorf("edge %s->%s has invalid type %q", e.Start, e.End, e.Type)
		}
		if _, ok := ids[e.Start]; !ok {
			return fmt.Errorf("edge references missing start node %s", e.Start)
		}
		if _, ok := ids[e.End]; !ok {
			return fmt.Errorf("edge references missing end node %s", e.End)
		}
		if e.Confidence < 0 || e.Confidence > 1 {
			return fmt.Errorf("edge %s->%s has confidence %v out of range", e.Start, e.End, e.Confidence)
		}
	}

	return nil
}

func minConfidence(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
