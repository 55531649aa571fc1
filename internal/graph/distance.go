// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import "strings"

// normalizeText lower-cases and collapses whitespace so near-identical
// sentences differing only in casing or spacing compare as equal.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// normalizedDistance returns the Levenshtein distance between the
// normalized forms of a and b, divided by the longer length. The result is
// 0 for identical text and at most 1.
func normalizedDistance(a, b string) float64 {
	a, b = normalizeText(a), normalizeText(b)
	if a == b {
		return 0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein(a, b)) / float64(longest)
}

// levenshtein computes the edit distance between two strings using a
// two-row rolling matrix.
func levenshtein(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := 0; j <= len(s2); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			min := prev[j] + 1                   // deletion
			if ins := curr[j-1] + 1; ins < min { // insertion
				min = ins
			}
			if sub := prev[j-1] + cost; sub < min { // substitution
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
