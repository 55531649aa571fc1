// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify implements the deterministic cue-phrase rule engine and
// confidence scoring. Given a sentence and its section label it ranks the
// five node types by the summed weights of matched cue patterns, scaled by a
// configurable section prior. The same (sentence, section, pattern snapshot)
// always yields the same ranked output.
package classify

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

// learnedWeight is the match weight for patterns from the learned store.
// Learned cues sit between strong and weak builtin cues: they were accepted
// from a high-confidence fallback decision but have less curation behind
// them than the static table.
const learnedWeight = 1.5

// Candidate is one (type, raw score) pair from the rule engine, with the cue
// identifiers that produced the score in match order.
type Candidate struct {
	Type     types.NodeType
	Score    float64
	Evidence []string
}

// cue is a compiled pattern with its evidence identifier and weight.
type cue struct {
	id     string
	re     *regexp.Regexp
	weight float64
}

// Classifier scores sentences against the static cue table plus a snapshot
// of the learned pattern store. It holds no other state and is safe for
// concurrent use.
type Classifier struct {
	cues   map[types.NodeType][]cue
	priors map[types.Section]map[types.NodeType]float64
}

// New compiles the builtin cue table and the learned pattern snapshot into a
// classifier. A learned pattern that fails to compile is rejected with an
// error rather than silently skipped: the store is append-only, so a bad
// entry needs a hygiene action, not masking.
func New(cfg types.ClassifierConfig, learned []types.PatternEntry) (*Classifier, error) {
	cues := make(map[types.NodeType][]cue)

	for _, nt := range types.NodeTypePriority {
		for _, bc := range builtinCues[nt] {
			re, err := regexp.Compile(`(?i)` + bc.pattern)
			if err != nil {
				return nil, fmt.Errorf("compiling builtin cue %q: %w", bc.pattern, err)
			}
			cues[nt] = append(cues[nt], cue{
				id:     "pattern:" + bc.pattern,
				re:     re,
				weight: bc.weight,
			})
		}
	}

	for _, entry := range learned {
		if !types.ValidNodeType(entry.Type) {
			return nil, fmt.Errorf("learned pattern %q has invalid type %q", entry.Pattern, entry.Type)
		}
		re, err := regexp.Compile(`(?i)` + entry.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling learned pattern %q: %w", entry.Pattern, err)
		}
		cues[entry.Type] = append(cues[entry.Type], cue{
			id:     "learned:" + entry.Pattern,
			re:     re,
			weight: learnedWeight,
		})
	}

	priors := cfg.Priors
	if priors == nil {
		priors = types.DefaultPriors()
	}

	return &Classifier{cues: cues, priors: priors}, nil
}

// Prior returns the (section, type) multiplier, 1.0 when absent.
func (c *Classifier) Prior(section types.Section, nt types.NodeType) float64 {
	if m, ok := c.priors[section]; ok {
		if p, ok := m[nt]; ok && p > 0 {
			return p
		}
	}
	return 1.0
}

// Classify returns candidates for every type with at least one cue match,
// ranked by raw score descending. Equal scores rank by the fixed priority
// order Hypothesis > Experiment > Dataset > Analysis > Conclusion. A
// sentence matching no cue returns an empty slice.
func (c *Classifier) Classify(sentence string, section types.Section) []Candidate {
	var candidates []Candidate

	for _, nt := range types.NodeTypePriority {
		var score float64
		var evidence []string
		for _, cu := range c.cues[nt] {
			if cu.re.MatchString(sentence) {
				score += cu.weight
				evidence = append(evidence, cu.id)
			}
		}
		if score == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Type:     nt,
			Score:    score * c.Prior(section, nt),
			Evidence: evidence,
		})
	}

	// Stable sort: candidates were appended in priority order, so equal
	// scores keep the higher-priority type first.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}
