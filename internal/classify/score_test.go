package classify

import (
	"testing"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

func TestNormalize(t *testing.T) {
	s := NewScorer(types.ScoringConfig{})

	if got := s.Normalize(0); got != 0 {
		t.Errorf("Normalize(0) = %v, want 0", got)
	}
	if got := s.Normalize(-1); got != 0 {
		t.Errorf("Normalize(-1) = %v, want 0", got)
	}

	// Monotonic and bounded.
	prev := 0.0
	for _, raw := range []float64{0.1, 0.5, 1, 2, 5, 10, 100} {
		got := s.Normalize(raw)
		if got <= prev {
			t.Errorf("Normalize(%v) = %v, not monotonic (prev %v)", raw, got, prev)
		}
		if got < 0 || got >= 1 {
			t.Errorf("Normalize(%v) = %v, want in [0,1)", raw, got)
		}
		prev = got
	}
}

func TestNormalizeCustomK(t *testing.T) {
	s := NewScorer(types.ScoringConfig{K: 3})
	if got := s.Normalize(3); got != 0.5 {
		t.Errorf("Normalize(3) with k=3 = %v, want 0.5", got)
	}
}

func TestLowConfidence(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		conf      float64
		want      bool
	}{
		{"below default threshold", 0, 0.39, true},
		{"at default threshold", 0, 0.4, false},
		{"above default threshold", 0, 0.9, false},
		{"zero confidence", 0, 0, true},
		{"custom threshold", 0.8, 0.7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScorer(types.ScoringConfig{LowConfidenceThreshold: tt.threshold})
			if got := s.LowConfidence(tt.conf); got != tt.want {
				t.Errorf("LowConfidence(%v) = %v, want %v", tt.conf, got, tt.want)
			}
		})
	}
}
