// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patterns

import (
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

// Cue-extraction heuristics, in preference order: a first-person verb
// phrase ("we observed"), a demonstrative bigram ("these findings"), then
// the sentence's leading trigram as a literal match.
var (
	weVerbRe        = regexp.MustCompile(`(?i)\bwe\s+([a-zA-Z-]+)`)
	demonstrativeRe = regexp.MustCompile(`(?i)\b(?:this|these)\s+[a-z]+\b`)
)

// ExtractCues derives short lexical cue patterns from an accepted fallback
// sentence. Patterns are case-insensitive regular expressions suitable for
// the classifier's cue table. At most two cues are returned; a sentence too
// short to yield a distinctive cue returns none.
func ExtractCues(sentence string) []string {
	var cues []string

	if m := weVerbRe.FindStringSubmatch(sentence); m != nil {
		cues = append(cues, `\bwe\s+`+regexp.QuoteMeta(strings.ToLower(m[1]))+`\b`)
	}

	if m := demonstrativeRe.FindString(sentence); m != "" {
		cues = append(cues, `\b`+regexp.QuoteMeta(strings.ToLower(m))+`\b`)
	}

	if len(cues) > 0 {
		return cues
	}

	// Fall back to the leading trigram. Fewer than four words is too
	// little context to be distinctive of anything.
	words := strings.Fields(sentence)
	if len(words) < 4 {
		return nil
	}
	lead := strings.ToLower(strings.Join(words[:3], " "))
	lead = strings.Trim(lead, ".,;:()[]")
	return []string{`\b` + regexp.QuoteMeta(lead) + `\b`}
}

// LearnFromDecision extracts cues from an accepted fallback decision and appends the
// new (pattern, type) pairs to the store with provenance. It returns the
// number of entries actually added.
func (s *Store) LearnFromDecision(sentence string, t types.NodeType, runID string, now time.Time) (int, error) {
	cues := ExtractCues(sentence)
	if len(cues) == 0 {
		return 0, nil
	}

	entries := make([]types.PatternEntry, 0, len(cues))
	for _, cue := range cues {
		entries = append(entries, types.PatternEntry{
			Pattern:   cue,
			Type:      t,
			RunID:     runID,
			Timestamp: now,
		})
	}
	return s.Learn(entries...)
}
