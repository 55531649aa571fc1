// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes matching nodes to knowledge/index/export.yaml. It
// supports the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.knowledgeDir, indexDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes matching nodes to knowledge/index/export.json. It
// supports the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.knowledgeDir, indexDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	return results, nil
}

// ExportCSV writes one document's graph as a pair of CSV files,
// [docID]_nodes.csv and [docID]_edges.csv, under knowledge/index/.
func (s *Store) ExportCSV(ctx context.Context, docID string) error {
	g, err := s.Graph(ctx, docID)
	if err != nil {
		return err
	}

	outDir := filepath.Join(s.knowledgeDir, indexDir)

	nodeRows := [][]string{
		{"id", "type", "text", "section", "confidence", "evidence", "semantic_context", "timestamp"},
	}
	for _, n := range g.Nodes {
		nodeRows = append(nodeRows, []string{
			n.ID, string(n.Type), n.Text, string(n.Section),
			formatConfidence(n.Confidence),
			strings.Join(n.Evidence, "; "),
			n.SemanticContext,
			n.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	if err := writeCSV(filepath.Join(outDir, docID+"_nodes.csv"), nodeRows); err != nil {
		return fmt.Errorf("writing nodes CSV: %w", err)
	}

	edgeRows := [][]string{
		{"start", "end", "type", "confidence", "semantic_evidence"},
	}
	for _, e := range g.Edges {
		edgeRows = append(edgeRows, []string{
			e.Start, e.End, string(e.Type),
			formatConfidence(e.Confidence),
			e.SemanticEvidence,
		})
	}
	if err := writeCSV(filepath.Join(outDir, docID+"_edges.csv"), edgeRows); err != nil {
		return fmt.Errorf("writing edges CSV: %w", err)
	}

	return nil
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}

func writeCSV(path string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
