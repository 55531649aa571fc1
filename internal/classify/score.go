// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import "github.com/pdiddy/imrad-graph/pkg/types"

// Scorer maps raw rule scores into [0,1] and decides low-confidence routing.
// Both decisions are pure functions of the configuration, so escalation
// behavior is unit-testable without any fallback backend.
type Scorer struct {
	cfg types.ScoringConfig
}

// NewScorer returns a scorer for the given configuration.
func NewScorer(cfg types.ScoringConfig) Scorer {
	return Scorer{cfg: cfg}
}

// Normalize maps a raw score into [0,1) via score/(score+k). The curve is
// monotonic and maps zero to zero.
func (s Scorer) Normalize(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	return raw / (raw + s.cfg.NormalizationK())
}

// LowConfidence reports whether a normalized confidence falls below the
// routing threshold τ.
func (s Scorer) LowConfidence(confidence float64) bool {
	return confidence < s.cfg.Threshold()
}
