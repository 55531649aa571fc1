// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment splits raw document text into ordered, section-labeled
// sentence spans. Section boundaries come from heading lines matched against
// a fixed IMRaD vocabulary; text before the first recognized heading keeps
// the Unknown label. A document with no headings at all becomes a single
// Unknown span, which is a degraded-context condition rather than an error.
package segment

import (
	"strings"
	"unicode"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

// Sentence is one sentence with its section label and position in document
// order. Index is global across the whole document and never reset per span.
type Sentence struct {
	Text    string
	Section types.Section
	Index   int
}

// Span is an ordered run of sentences under one section label.
type Span struct {
	Section   types.Section
	Sentences []Sentence
}

// headingVocab maps lower-cased heading lines to section labels. Synonyms
// cover the common variants seen in published papers.
var headingVocab = map[string]types.Section{
	"abstract":                types.SectionAbstract,
	"introduction":            types.SectionIntroduction,
	"background":              types.SectionIntroduction,
	"methods":                 types.SectionMethods,
	"method":                  types.SectionMethods,
	"materials and methods":   types.SectionMethods,
	"methods and materials":   types.SectionMethods,
	"methodology":             types.SectionMethods,
	"experimental procedures": types.SectionMethods,
	"results":                 types.SectionResults,
	"findings":                types.SectionResults,
	"results and discussion":  types.SectionResults,
	"discussion":              types.SectionDiscussion,
	"conclusion":              types.SectionConclusion,
	"conclusions":             types.SectionConclusion,
	"concluding remarks":      types.SectionConclusion,
}

// Split segments a document into section-labeled sentence spans. Every
// non-blank sentence of the input appears in exactly one span, in original
// order.
func Split(doc types.Document) []Span {
	var spans []Span
	current := types.SectionUnknown
	index := 0
	var buf []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = nil
		if text == "" {
			return
		}
		sp := Span{Section: current}
		for _, s := range SplitSentences(text) {
			sp.Sentences = append(sp.Sentences, Sentence{Text: s, Section: current, Index: index})
			index++
		}
		if len(sp.Sentences) > 0 {
			spans = append(spans, sp)
		}
	}

	for _, span := range doc.Spans {
		if span.SectionHint != "" {
			flush()
			current = span.SectionHint
		}
		for _, line := range strings.Split(span.Text, "\n") {
			if sec, ok := MatchHeading(line); ok {
				flush()
				current = sec
				continue
			}
			buf = append(buf, line)
		}
	}
	flush()

	return spans
}

// MatchHeading reports whether line is a recognized section heading and, if
// so, the section it opens. Matching is case-insensitive and tolerates
// numbering prefixes ("2. Methods") and a trailing colon.
func MatchHeading(line string) (types.Section, bool) {
	s := strings.TrimSpace(line)
	if s == "" || len(s) > 60 {
		return "", false
	}

	// Strip numbering like "3." or "IV." from the front.
	if i := strings.IndexFunc(s, unicode.IsLetter); i > 0 {
		s = s[i:]
	} else if i < 0 {
		return "", false
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), ":")
	s = strings.TrimSuffix(s, ".")

	sec, ok := headingVocab[strings.ToLower(strings.TrimSpace(s))]
	return sec, ok
}

// SplitSentences splits text into sentences on terminal punctuation followed
// by whitespace and an upper-case letter or digit. The heuristic matches the
// deterministic splitter used throughout the pipeline; a richer tokenizer is
// an upstream collaborator concern.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		// Find the next non-space rune.
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j >= len(runes) {
			continue
		}
		if unicode.IsUpper(runes[j]) || unicode.IsDigit(runes[j]) {
			if s := normalize(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = j
			i = j - 1
		}
	}
	if s := normalize(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// normalize collapses internal whitespace and trims the sentence.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
