// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

const graphsDir = "graphs"

// BatchSummary holds counts from a batch run over a document directory.
type BatchSummary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Total returns the number of documents considered.
func (s BatchSummary) Total() int {
	return s.Processed + s.Skipped + s.Failed
}

// HasFailures reports whether any documents failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// RunAll processes every text document in cfg.DocsDir and writes one graph
// YAML file per document into cfg.KnowledgeDir/graphs/. Documents whose
// graph output is newer than the source are skipped; a failure on one
// document never aborts the batch.
func RunAll(ctx context.Context, p *Pipeline, cfg types.ExtractionConfig, w io.Writer) (BatchSummary, error) {
	outDir := filepath.Join(cfg.KnowledgeDir, graphsDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(cfg.DocsDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading documents directory %s: %w", cfg.DocsDir, err)
	}

	var summary BatchSummary

	for _, entry := range entries {
		if entry.IsDir() || !isTextFile(entry.Name()) {
			continue
		}

		docID := docIDFromName(entry.Name())
		docPath := filepath.Join(cfg.DocsDir, entry.Name())
		outPath := filepath.Join(outDir, docID+"-graph.yaml")

		changed, err := hasChanged(docPath, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}
		if !changed {
			fmt.Fprintf(w, "skipped %s\n", docID)
			summary.Skipped++
			continue
		}

		fmt.Fprintf(w, "processing %s\n", docID)

		doc, err := LoadDocument(docID, docPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		result, err := p.Run(ctx, doc, w)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if err := WriteGraph(outPath, result.Graph); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", docID, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "processed %s (%d nodes, %d edges)\n", docID, len(result.Graph.Nodes), len(result.Graph.Edges))
		summary.Processed++
	}

	return summary, nil
}

// LoadDocument reads a plain-text document from disk. Section structure is
// recovered later from heading lines during segmentation, so the document
// carries a single span with no section hint.
func LoadDocument(docID, path string) (types.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("reading document %s: %w", path, err)
	}
	return types.Document{
		ID:    docID,
		Spans: []types.Span{{Text: string(content)}},
	}, nil
}

func isTextFile(name string) bool {
	return strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".md")
}

func docIDFromName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// hasChanged reports whether the document is newer than its graph output.
// A missing output always counts as changed.
func hasChanged(docPath, outPath string) (bool, error) {
	docInfo, err := os.Stat(docPath)
	if err != nil {
		return false, fmt.Errorf("stat document %s: %w", docPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return docInfo.ModTime().After(outInfo.ModTime()), nil
}

// WriteGraph marshals the graph to a YAML file.
func WriteGraph(path string, g types.Graph) error {
	data, err := yaml.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshaling graph: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
