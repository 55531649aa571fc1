// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/imrad-graph/internal/fallback"
	"github.com/pdiddy/imrad-graph/internal/patterns"
	"github.com/pdiddy/imrad-graph/internal/pipeline"
	"github.com/pdiddy/imrad-graph/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [documents...]",
	Short: "Classify papers into IMRaD roles and assemble graphs",
	Long: `Extract reads plain-text papers, splits them into sentences, classifies
each sentence by cue phrases with section priors, escalates low-confidence
sentences to an external fallback classifier, and writes one graph YAML
file per paper into knowledge/graphs/.

With no arguments it processes every paper in docs-dir, skipping papers
whose graph is newer than the source.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}

	store, err := patterns.Open(cfg.Patterns)
	if err != nil {
		return err
	}

	backend, err := fallback.NewBackend(cfg.Fallback)
	if err != nil {
		return err
	}
	if backend == nil {
		fmt.Fprintln(os.Stderr, "no fallback provider configured; low-confidence sentences stay unverified")
	}

	p, err := pipeline.New(cfg, store, backend)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if len(args) == 0 {
		summary, err := pipeline.RunAll(ctx, p, cfg.Extraction, os.Stdout)
		if err != nil {
			return err
		}
		fmt.Printf("\nprocessed: %d, skipped: %d, failed: %d\n",
			summary.Processed, summary.Skipped, summary.Failed)
		if summary.HasFailures() {
			return fmt.Errorf("%d document(s) failed", summary.Failed)
		}
		return nil
	}

	for _, path := range args {
		docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		doc, err := pipeline.LoadDocument(docID, path)
		if err != nil {
			return err
		}

		result, err := p.Run(ctx, doc, os.Stdout)
		if err != nil {
			return fmt.Errorf("processing %s: %w", docID, err)
		}

		outDir := filepath.Join(cfg.Extraction.KnowledgeDir, "graphs")
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		outPath := filepath.Join(outDir, docID+"-graph.yaml")
		if err := pipeline.WriteGraph(outPath, result.Graph); err != nil {
			return err
		}

		fmt.Printf("processed %s (%d nodes, %d edges, %d low-confidence)\n",
			docID, len(result.Graph.Nodes), len(result.Graph.Edges), result.Stats.LowConfidence)
	}
	return nil
}

// pipelineConfig assembles the stage configuration from flags, the config
// file, and loaded secrets.
func pipelineConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	docsDir, _ := cmd.Flags().GetString("docs-dir")
	knowledgeDir, _ := cmd.Flags().GetString("knowledge-dir")
	patternsPath, _ := cmd.Flags().GetString("patterns")
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	baseURL, _ := cmd.Flags().GetString("base-url")
	apiKey, _ := cmd.Flags().GetString("api-key")
	threshold, _ := cmd.Flags().GetFloat64("low-threshold")
	accept, _ := cmd.Flags().GetFloat64("accept-threshold")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	dedupe, _ := cmd.Flags().GetFloat64("dedupe-threshold")

	if provider == "" {
		provider = viper.GetString("fallback.provider")
	}
	if model == "" {
		model = viper.GetString("fallback.model")
	}

	var key string
	switch provider {
	case "claude":
		key = secretDefault("anthropic-api-key", apiKey)
	case "openai":
		key = secretDefault("openai-api-key", apiKey)
	}

	cfg := types.PipelineConfig{
		Classifier: types.ClassifierConfig{Priors: types.DefaultPriors()},
		Scoring:    types.ScoringConfig{LowConfidenceThreshold: threshold},
		Fallback: types.FallbackConfig{
			Provider:        provider,
			Model:           model,
			APIKey:          key,
			BaseURL:         baseURL,
			AcceptThreshold: accept,
			Concurrency:     concurrency,
		},
		Patterns: types.PatternStoreConfig{Path: patternsPath},
		Graph:    types.GraphConfig{DedupeThreshold: dedupe},
		Extraction: types.ExtractionConfig{
			DocsDir:      docsDir,
			KnowledgeDir: knowledgeDir,
		},
	}
	return cfg, nil
}

func init() {
	extractCmd.Flags().String("docs-dir", "papers/text", "directory containing plain-text papers")
	extractCmd.Flags().String("knowledge-dir", "knowledge", "base directory for output (contains graphs/)")
	extractCmd.Flags().String("patterns", "knowledge/patterns.yaml", "learned cue-pattern store file")
	extractCmd.Flags().String("provider", "", "fallback provider: claude, openai, or none")
	extractCmd.Flags().String("model", "", "fallback model identifier")
	extractCmd.Flags().String("base-url", "", "override the fallback API endpoint")
	extractCmd.Flags().String("api-key", "", "fallback API key (default: .secrets/)")
	extractCmd.Flags().Float64("low-threshold", 0, "low-confidence routing threshold (0 = default)")
	extractCmd.Flags().Float64("accept-threshold", 0, "minimum fallback confidence to accept (0 = default)")
	extractCmd.Flags().Int("concurrency", 0, "concurrent fallback calls per document (0 = default)")
	extractCmd.Flags().Float64("dedupe-threshold", 0, "normalized edit distance for node dedup (0 = default)")

	rootCmd.AddCommand(extractCmd)
}
