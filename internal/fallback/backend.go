// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fallback escalates low-confidence sentences to an external
// classification backend. The backend is a narrow request/response
// interface so any concrete implementation (LLM API, rule-expansion
// service, human review queue) can be substituted without touching the rule
// classifier. A fallback failure is never fatal: the caller keeps the
// rule-based classification and flags the node unverified.
package fallback

import (
	"context"
	"fmt"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

// RuleCandidate is one rule-engine candidate forwarded to the backend for
// context.
type RuleCandidate struct {
	Type  types.NodeType `json:"type"`
	Score float64        `json:"score"`
}

// Request carries one sentence to the backend.
type Request struct {
	Sentence   string          `json:"sentence"`
	Section    types.Section   `json:"section"`
	Candidates []RuleCandidate `json:"candidates,omitempty"`
}

// Response is the backend's classification decision.
type Response struct {
	Type       types.NodeType `json:"type"`
	Confidence float64        `json:"confidence"`
}

// Validate checks the response against the node-type vocabulary and the
// confidence range. A backend answer that fails validation is treated like
// any other backend failure.
func (r Response) Validate() error {
	if !types.ValidNodeType(r.Type) {
		return fmt.Errorf("backend returned unknown type %q", r.Type)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("backend confidence %v out of range [0,1]", r.Confidence)
	}
	return nil
}

// Backend abstracts the external classification interface. Each call is
// independent and idempotent; retrying a failed call with the same request
// is always safe.
type Backend interface {
	Classify(ctx context.Context, req Request) (Response, error)
}
