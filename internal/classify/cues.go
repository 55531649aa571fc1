// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import "github.com/pdiddy/imrad-graph/pkg/types"

// builtinCue is one entry in the static cue table. Strong cues are explicit
// rhetorical markers ("we hypothesize", "in conclusion"); weak cues are
// domain vocabulary that co-occurs with a role but does not announce it.
type builtinCue struct {
	pattern string
	weight  float64
}

const (
	weightStrong = 2.0
	weightWeak   = 1.0
)

// builtinCues is the static cue table, keyed by node type. Patterns are
// compiled case-insensitively at classifier construction.
var builtinCues = map[types.NodeType][]builtinCue{
	types.NodeHypothesis: {
		{`\bwe hypothesi[sz]ed?\b`, weightStrong},
		{`\bit is hypothesi[sz]ed\b`, weightStrong},
		{`\bwe propose[d]?\b`, weightStrong},
		{`\bwe predict(?:ed)?\b`, weightStrong},
		{`\bour hypothesis\b`, weightStrong},
		{`\bwe (?:expect|anticipate|postulate|theorize)d?\b`, weightWeak},
		{`\bhypothesi[sz]e[ds]?\b`, weightWeak},
	},
	types.NodeExperiment: {
		{`\bwe (?:performed|conducted|carried out)\b`, weightStrong},
		{`\bwe (?:treated|injected|administered|measured|incubated|cultured)\b`, weightStrong},
		{`\b(?:was|were) (?:treated|injected|administered|measured|incubated|cultured|exposed)\b`, weightStrong},
		{`\bmouse model\b`, weightWeak},
		{`\bcell (?:culture|line)s?\b`, weightWeak},
		{`\bin vitro\b`, weightWeak},
		{`\bin vivo\b`, weightWeak},
		{`\busing (?:the )?(?:protocol|method|assay)\b`, weightWeak},
	},
	types.NodeDataset: {
		{`\bdata (?:were |was )?(?:obtained|collected|downloaded|retrieved|available)\b`, weightStrong},
		{`\bdata (?:from|at)\b`, weightWeak},
		{`\bcohort\b`, weightStrong},
		{`\bn\s*=\s*\d+`, weightStrong},
		{`\b(?:patient|tissue|blood) samples?\b`, weightWeak},
		{`\b(?:TCGA|PCAWG|GEO|UK Biobank)\b`, weightStrong},
		{`\b(?:whole[- ]genome|exome|WGS|WES|RNA[- ]?seq(?:uencing)?)\b`, weightStrong},
		{`\bdataset\b`, weightWeak},
	},
	types.NodeAnalysis: {
		{`\bwe (?:analy[sz]ed|computed|calculated|modeled|fitted?|trained)\b`, weightStrong},
		{`\bstatistical (?:analysis|test|significance)\b`, weightStrong},
		{`\bp\s*[<=]\s*0?\.\d+`, weightStrong},
		{`\bp-value\b`, weightStrong},
		{`\b(?:ANOVA|t-test|chi-square|regression|correlation)\b`, weightStrong},
		{`\bcorrelat(?:e[ds]?|ion|ing)\b`, weightWeak},
		{`\b(?:random forest|xgboost|linear model|cox model)\b`, weightWeak},
		{`\bsignificant(?:ly)? (?:difference|association|increase|decrease|reduction)\b`, weightWeak},
	},
	types.NodeConclusion: {
		{`\bin conclusion\b`, weightStrong},
		{`\bwe conclude[d]?\b`, weightStrong},
		{`\bthese (?:results|findings|data) (?:suggest|indicate|show|demonstrate|support)\b`, weightStrong},
		{`\bour (?:results|findings|data) (?:suggest|indicate|show|demonstrate|support)\b`, weightStrong},
		{`\bthis study (?:shows|demonstrates|establishes)\b`, weightStrong},
		{`\btaken together\b`, weightWeak},
		{`\boverall,? (?:these|our)\b`, weightWeak},
	},
}
