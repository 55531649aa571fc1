package types

import "time"

// ClassifierConfig holds settings for the cue-phrase rule classifier.
type ClassifierConfig struct {
	// Priors maps (section, type) to a positive score multiplier.
	// A missing entry means 1.0. Nil means DefaultPriors().
	Priors map[Section]map[NodeType]float64 `json:"priors,omitempty" yaml:"priors,omitempty"`
}

// DefaultPriors returns the built-in section-prior table. Methods boosts
// Experiment and Dataset, Results boosts Analysis, Discussion and Conclusion
// boost Conclusion, Abstract and Introduction boost Hypothesis.
func DefaultPriors() map[Section]map[NodeType]float64 {
	return map[Section]map[NodeType]float64{
		SectionAbstract:     {NodeHypothesis: 1.5, NodeConclusion: 1.5},
		SectionIntroduction: {NodeHypothesis: 1.5},
		SectionMethods:      {NodeExperiment: 1.5, NodeDataset: 1.5},
		SectionResults:      {NodeExperiment: 1.25, NodeAnalysis: 1.5, NodeDataset: 1.25},
		SectionDiscussion:   {NodeConclusion: 1.5, NodeHypothesis: 1.25},
		SectionConclusion:   {NodeConclusion: 1.5},
	}
}

// ScoringConfig holds settings for confidence normalization and the
// low-confidence routing decision.
type ScoringConfig struct {
	// K is the normalization constant in score/(score+K). Zero uses 1.0.
	K float64 `json:"k" yaml:"k"`

	// LowConfidenceThreshold routes sentences whose top normalized score
	// falls below it to the fallback classifier (default 0.4).
	LowConfidenceThreshold float64 `json:"low_confidence_threshold" yaml:"low_confidence_threshold"`
}

// NormalizationK returns K with the default applied.
func (c ScoringConfig) NormalizationK() float64 {
	if c.K <= 0 {
		return 1.0
	}
	return c.K
}

// Threshold returns the low-confidence threshold with the default applied.
func (c ScoringConfig) Threshold() float64 {
	if c.LowConfidenceThreshold <= 0 {
		return 0.4
	}
	return c.LowConfidenceThreshold
}

// FallbackConfig holds settings for the external fallback classifier.
type FallbackConfig struct {
	// Provider selects the backend: "claude", "openai", or "" (disabled).
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the backend API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the backend API endpoint. Empty uses the default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the retry count for transient failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the per-call deadline (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// AcceptThreshold is the minimum backend confidence required to
	// override the rule-based classification (default 0.7).
	AcceptThreshold float64 `json:"accept_threshold" yaml:"accept_threshold"`

	// Concurrency bounds the number of in-flight backend calls per
	// document (default 3).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// CallTimeout returns Timeout with the default applied.
func (c FallbackConfig) CallTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

// Acceptance returns AcceptThreshold with the default applied.
func (c FallbackConfig) Acceptance() float64 {
	if c.AcceptThreshold <= 0 {
		return 0.7
	}
	return c.AcceptThreshold
}

// Workers returns Concurrency with the default applied.
func (c FallbackConfig) Workers() int {
	if c.Concurrency <= 0 {
		return 3
	}
	return c.Concurrency
}

// PatternStoreConfig holds settings for the learned-pattern store.
type PatternStoreConfig struct {
	// Path is the pattern store file (default "knowledge/patterns.yaml").
	Path string `json:"path" yaml:"path"`
}

// GraphConfig holds settings for graph assembly.
type GraphConfig struct {
	// DedupeThreshold is the maximum normalized edit distance at which two
	// same-section, same-type nodes are considered duplicates (default 0.2).
	DedupeThreshold float64 `json:"dedupe_threshold" yaml:"dedupe_threshold"`
}

// ExtractionConfig holds settings for the extract stage.
type ExtractionConfig struct {
	// DocsDir is the directory containing plain-text papers.
	DocsDir string `json:"docs_dir" yaml:"docs_dir"`

	// KnowledgeDir is the base directory for output (contains graphs/, index/).
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir"`
}

// StoreConfig holds settings for the SQLite graph index.
type StoreConfig struct {
	// KnowledgeDir is the base directory for knowledge (contains graphs/, index/).
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups the stage configurations for one pipeline run.
type PipelineConfig struct {
	Classifier ClassifierConfig   `json:"classifier" yaml:"classifier"`
	Scoring    ScoringConfig      `json:"scoring" yaml:"scoring"`
	Fallback   FallbackConfig     `json:"fallback" yaml:"fallback"`
	Patterns   PatternStoreConfig `json:"patterns" yaml:"patterns"`
	Graph      GraphConfig        `json:"graph" yaml:"graph"`
	Extraction ExtractionConfig   `json:"extraction" yaml:"extraction"`
	Store      StoreConfig        `json:"store" yaml:"store"`
}
