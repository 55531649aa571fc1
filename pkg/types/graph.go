// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// NodeType categorizes a sentence within the IMRaD narrative.
type NodeType string

const (
	NodeHypothesis NodeType = "Hypothesis"
	NodeExperiment NodeType = "Experiment"
	NodeDataset    NodeType = "Dataset"
	NodeAnalysis   NodeType = "Analysis"
	NodeConclusion NodeType = "Conclusion"
)

// NodeTypePriority is the fixed tie-break order used when two types score
// equally: earlier entries win.
var NodeTypePriority = []NodeType{
	NodeHypothesis,
	NodeExperiment,
	NodeDataset,
	NodeAnalysis,
	NodeConclusion,
}

// ValidNodeType reports whether t is one of the five node types.
func ValidNodeType(t NodeType) bool {
	for _, nt := range NodeTypePriority {
		if t == nt {
			return true
		}
	}
	return false
}

// Section identifies the document section a sentence was found in.
type Section string

const (
	SectionAbstract     Section = "Abstract"
	SectionIntroduction Section = "Introduction"
	SectionMethods      Section = "Methods"
	SectionResults      Section = "Results"
	SectionDiscussion   Section = "Discussion"
	SectionConclusion   Section = "Conclusion"
	SectionUnknown      Section = "Unknown"
)

// EdgeType labels a typed relation between two nodes, following the
// canonical IMRaD narrative direction.
type EdgeType string

const (
	EdgeSupports  EdgeType = "supports"  // Hypothesis -> Experiment
	EdgeProduces  EdgeType = "produces"  // Experiment -> Dataset
	EdgeAnalyzes  EdgeType = "analyzes"  // Dataset/Experiment -> Analysis
	EdgeConcludes EdgeType = "concludes" // Analysis -> Conclusion
	EdgeInforms   EdgeType = "informs"   // reserved for semantic augmentation
)

// ValidEdgeType reports whether t belongs to the controlled edge vocabulary.
func ValidEdgeType(t EdgeType) bool {
	switch t {
	case EdgeSupports, EdgeProduces, EdgeAnalyzes, EdgeConcludes, EdgeInforms:
		return true
	}
	return false
}

// Node is one classified sentence. Text is immutable after creation; type,
// confidence, and evidence may be overridden once if an accepted fallback
// decision replaces the rule-based result.
type Node struct {
	// ID is a stable identifier assigned at creation, derived from the
	// document, sentence position, and text.
	ID string `json:"id" yaml:"id"`

	// Type is the IMRaD role assigned to the sentence.
	Type NodeType `json:"type" yaml:"type"`

	// Text is the source sentence.
	Text string `json:"text" yaml:"text"`

	// Section is the document section the sentence appeared in.
	Section Section `json:"section" yaml:"section"`

	// Confidence is the normalized classification confidence in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Evidence lists the matched cue identifiers, in match order. Empty for
	// fallback-derived classifications.
	Evidence []string `json:"evidence" yaml:"evidence"`

	// SemanticContext is an optional annotation supplied by an external
	// augmentation collaborator. Absent by default.
	SemanticContext string `json:"semantic_context,omitempty" yaml:"semantic_context,omitempty"`

	// Timestamp records creation time for provenance and pattern hygiene.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Index is the sentence position in document order. It drives
	// nearest-following edge inference.
	Index int `json:"index" yaml:"index"`

	// Unverified marks a low-confidence node whose fallback classification
	// failed or was rejected; the rule-based type is retained.
	Unverified bool `json:"unverified,omitempty" yaml:"unverified,omitempty"`
}

// Edge is a typed relation between two finalized nodes.
type Edge struct {
	// Start and End are node IDs; both must reference existing nodes.
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`

	// Type is drawn from the controlled edge vocabulary.
	Type EdgeType `json:"type" yaml:"type"`

	// Confidence is the minimum of the endpoint confidences.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// SemanticEvidence is an optional annotation mirroring SemanticContext.
	SemanticEvidence string `json:"semantic_evidence,omitempty" yaml:"semantic_evidence,omitempty"`
}

// Graph is the assembled output for one document: a deduplicated node set
// plus inferred typed edges.
type Graph struct {
	// DocID identifies the source document.
	DocID string `json:"doc_id" yaml:"doc_id"`

	// RunID identifies the pipeline run that produced this graph.
	RunID string `json:"run_id" yaml:"run_id"`

	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}
