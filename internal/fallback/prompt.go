// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fallback

import (
	"bytes"
	"fmt"
	"text/template"
)

// classifyPromptTmpl is the prompt sent to LLM backends for each escalated
// sentence. The model must answer with a single JSON object so the response
// can be validated mechanically.
var classifyPromptTmpl = template.Must(template.New("classify").Parse(`You are a scientific-paper sentence classifier. Classify the following sentence into exactly one IMRaD role:
- Hypothesis: a conjecture or proposed explanation the paper sets out to test
- Experiment: a procedure, treatment, or measurement that was carried out
- Dataset: a description of data, samples, cohorts, or their provenance
- Analysis: a statistical or computational analysis of data
- Conclusion: an interpretation or takeaway drawn from the results

The sentence appears in the "{{.Section}}" section of the paper.
{{if .Candidates}}
A deterministic rule engine produced these weak candidates (type, raw score):
{{range .Candidates}}- {{.Type}}: {{printf "%.2f" .Score}}
{{end}}{{end}}
Respond with a JSON object and nothing else:
{"type": "<Hypothesis|Experiment|Dataset|Analysis|Conclusion>", "confidence": <float between 0.0 and 1.0>}

Sentence:
{{.Sentence}}
`))

// renderPrompt executes the classification prompt template for one request.
func renderPrompt(req Request) (string, error) {
	var buf bytes.Buffer
	if err := classifyPromptTmpl.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}
