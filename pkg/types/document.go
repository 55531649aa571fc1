// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Span is a chunk of extracted document text with an optional section hint
// from the upstream extraction collaborator.
type Span struct {
	// Text is the plain text of the span.
	Text string `json:"text" yaml:"text"`

	// SectionHint is an optional section label supplied by the extractor.
	// Empty means no hint; the segmenter detects sections from headings.
	SectionHint Section `json:"section_hint,omitempty" yaml:"section_hint,omitempty"`
}

// Document is the input to the classification pipeline: ordered text spans
// already extracted from a paper.
type Document struct {
	// ID identifies the document (typically the source file base name).
	ID string `json:"id" yaml:"id"`

	// Spans holds the document text in reading order.
	Spans []Span `json:"spans" yaml:"spans"`
}

// Text concatenates all spans into a single string, preserving order.
func (d Document) Text() string {
	if len(d.Spans) == 1 {
		return d.Spans[0].Text
	}
	var out string
	for i, sp := range d.Spans {
		if i > 0 {
			out += "\n"
		}
		out += sp.Text
	}
	return out
}

// Empty reports whether the document carries no non-blank text.
func (d Document) Empty() bool {
	for _, sp := range d.Spans {
		for _, r := range sp.Text {
			if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
				return false
			}
		}
	}
	return true
}
