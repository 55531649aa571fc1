// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PatternEntry is one learned cue in the pattern store. Entries are keyed by
// (Pattern, Type): re-learning an existing pair is a no-op, and removal only
// happens through an explicit hygiene action.
type PatternEntry struct {
	// Pattern is a short lexical cue, stored as a case-insensitive regular
	// expression (e.g. `\bwe\s+observed\b`).
	Pattern string `json:"pattern" yaml:"pattern"`

	// Type is the node type the pattern is evidence for.
	Type NodeType `json:"type" yaml:"type"`

	// RunID identifies the pipeline run whose accepted fallback decision
	// produced this entry.
	RunID string `json:"run_id" yaml:"run_id"`

	// Timestamp records when the entry was accepted.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}
