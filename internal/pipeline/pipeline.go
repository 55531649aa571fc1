// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the per-document classification flow:
// segmentation, rule classification, confidence scoring, conditional
// fallback escalation with pattern learning, and graph assembly. Documents
// share no mutable state, so callers may process several in parallel; the
// pattern store is the only cross-run state and serializes its own writes.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/imrad-graph/internal/classify"
	"github.com/pdiddy/imrad-graph/internal/fallback"
	"github.com/pdiddy/imrad-graph/internal/graph"
	"github.com/pdiddy/imrad-graph/internal/patterns"
	"github.com/pdiddy/imrad-graph/internal/segment"
	"github.com/pdiddy/imrad-graph/pkg/types"
)

// topCandidates bounds how many rule candidates are forwarded to the
// fallback backend for context.
const topCandidates = 3

// defaultType is assigned when no cue matches at all: the lowest-priority
// type, at zero confidence, so the node is always routed to the fallback.
const defaultType = types.NodeConclusion

// RunStats counts what happened during one document run.
type RunStats struct {
	Sentences        int
	LowConfidence    int
	FallbackAccepted int
	FallbackFailed   int
	PatternsLearned  int
}

// Result is the output of one document run.
type Result struct {
	Graph types.Graph
	Stats RunStats
}

// Pipeline runs documents through classification and graph assembly. The
// fallback backend and pattern store are optional: without a backend,
// low-confidence nodes keep their rule-based classification unverified;
// without a store, accepted decisions are simply not learned.
type Pipeline struct {
	classifier *classify.Classifier
	scorer     classify.Scorer
	runner     *fallback.Runner
	store      *patterns.Store
	assembler  graph.Assembler
	cfg        types.PipelineConfig
}

// New builds a pipeline from the configuration, a pattern store snapshot,
// and an optional fallback backend.
func New(cfg types.PipelineConfig, store *patterns.Store, backend fallback.Backend) (*Pipeline, error) {
	var snapshot []types.PatternEntry
	if store != nil {
		snapshot = store.Snapshot()
	}

	classifier, err := classify.New(cfg.Classifier, snapshot)
	if err != nil {
		return nil, fmt.Errorf("building classifier: %w", err)
	}

	p := &Pipeline{
		classifier: classifier,
		scorer:     classify.NewScorer(cfg.Scoring),
		store:      store,
		assembler:  graph.NewAssembler(cfg.Graph),
		cfg:        cfg,
	}
	if backend != nil {
		p.runner = fallback.NewRunner(backend, cfg.Fallback)
	}
	return p, nil
}

// Run classifies one document and assembles its graph. An empty document is
// an input error: no partial graph is produced. Fallback failures degrade
// individual nodes; only input errors and graph-consistency violations
// abort the run.
func (p *Pipeline) Run(ctx context.Context, doc types.Document, w io.Writer) (*Result, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("document has no id")
	}
	if doc.Empty() {
		return nil, fmt.Errorf("document %s has no text", doc.ID)
	}

	runID := "run_" + uuid.NewString()[:8]
	now := time.Now().UTC()

	var stats RunStats
	var nodes []types.Node
	var sentences []segment.Sentence

	for _, span := range segment.Split(doc) {
		for _, s := range span.Sentences {
			sentences = append(sentences, s)
			nodes = append(nodes, p.classifySentence(doc.ID, s, now))
		}
	}
	stats.Sentences = len(nodes)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("document %s yields no sentences", doc.ID)
	}

	p.escalate(ctx, sentences, nodes, runID, now, &stats, w)

	g, err := p.assembler.Assemble(doc.ID, runID, nodes)
	if err != nil {
		return nil, err
	}

	return &Result{Graph: g, Stats: stats}, nil
}

// classifySentence builds the rule-based node for one sentence.
func (p *Pipeline) classifySentence(docID string, s segment.Sentence, now time.Time) types.Node {
	node := types.Node{
		ID:        nodeID(docID, s.Index, s.Text),
		Text:      s.Text,
		Section:   s.Section,
		Timestamp: now,
		Index:     s.Index,
	}

	cands := p.classifier.Classify(s.Text, s.Section)
	if len(cands) == 0 {
		node.Type = defaultType
		node.Confidence = 0
		return node
	}

	top := cands[0]
	node.Type = top.Type
	node.Confidence = p.scorer.Normalize(top.Score)
	node.Evidence = top.Evidence
	return node
}

// escalate routes low-confidence nodes through the fallback backend and
// feeds accepted decisions to the pattern learner. Nodes are updated in
// place; every failure path leaves the rule-based classification intact
// with the unverified flag set.
func (p *Pipeline) escalate(ctx context.Context, sentences []segment.Sentence, nodes []types.Node, runID string, now time.Time, stats *RunStats, w io.Writer) {
	var tasks []fallback.Task
	for i := range nodes {
		if !p.scorer.LowConfidence(nodes[i].Confidence) {
			continue
		}
		stats.LowConfidence++
		nodes[i].Unverified = true
		if p.runner == nil {
			continue
		}
		tasks = append(tasks, fallback.Task{
			Position: i,
			Request: fallback.Request{
				Sentence:   sentences[i].Text,
				Section:    sentences[i].Section,
				Candidates: p.ruleCandidates(sentences[i]),
			},
		})
	}
	if p.runner == nil || len(tasks) == 0 {
		return
	}

	outcomes := p.runner.Run(ctx, tasks)

	// Apply outcomes by node position: completion order is irrelevant.
	for pos, outcome := range outcomes {
		if outcome.Err != nil {
			stats.FallbackFailed++
			fmt.Fprintf(w, "  fallback failed for sentence %d: %v\n", pos, outcome.Err)
			continue
		}
		if outcome.Response.Confidence < p.cfg.Fallback.Acceptance() {
			stats.FallbackFailed++
			continue
		}

		nodes[pos].Type = outcome.Response.Type
		nodes[pos].Confidence = outcome.Response.Confidence
		nodes[pos].Evidence = nil
		nodes[pos].Unverified = false
		stats.FallbackAccepted++

		p.learn(nodes[pos].Text, nodes[pos].Type, runID, now, stats, w)
	}
}

// learn persists cues from one accepted decision. A store write failure is
// logged and otherwise ignored: the current run's classification output
// never depends on the pattern store being writable.
func (p *Pipeline) learn(sentence string, t types.NodeType, runID string, now time.Time, stats *RunStats, w io.Writer) {
	if p.store == nil {
		return
	}
	added, err := p.store.LearnFromDecision(sentence, t, runID, now)
	if err != nil {
		fmt.Fprintf(w, "  warning: pattern store write failed: %v\n", err)
		return
	}
	stats.PatternsLearned += added
}

// ruleCandidates re-runs the classifier for the escalated sentence and
// returns its top candidates as fallback context.
func (p *Pipeline) ruleCandidates(s segment.Sentence) []fallback.RuleCandidate {
	cands := p.classifier.Classify(s.Text, s.Section)
	if len(cands) > topCandidates {
		cands = cands[:topCandidates]
	}
	out := make([]fallback.RuleCandidate, 0, len(cands))
	for _, c := range cands {
		out = append(out, fallback.RuleCandidate{Type: c.Type, Score: c.Score})
	}
	return out
}

// nodeID derives a stable identifier from the document, sentence position,
// and text: the first 12 hex characters of SHA-256.
func nodeID(docID string, index int, text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s", docID, index, text)
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
