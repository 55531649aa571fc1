// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/imrad-graph/internal/store"
	"github.com/pdiddy/imrad-graph/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Index assembled graphs and query the graph index",
	Long: `Store ingests graph YAML files into a SQLite index with FTS5 full-text
search over node text, and supports structured queries by node type,
section, or document. Use subcommands to index, query, or export.`,
}

// --- index subcommand ---

var storeIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Ingest graph files into the index",
	Long: `Index reads graph YAML files from knowledge/graphs/ and ingests them
into the SQLite index. Unchanged documents are skipped on subsequent runs;
changed ones are re-ingested, replacing their nodes and edges.`,
	RunE: runStoreIndex,
}

func runStoreIndex(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d graph(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [search terms]",
	Short: "Query the graph index with full-text search and filters",
	Long: `Query searches node text with FTS5, structured filters (type, section,
document), or a combination of both. Full-text queries rank by relevance;
structured queries come back in sentence order.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms, --type, --section, or --doc")
	}

	results, err := s.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-10s  %-50s  %-20s  %-12s  %s\n",
		"Rank", "Type", "Text", "Document", "Section", "Conf")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range results {
		text := r.Text
		if len(text) > 50 {
			text = text[:47] + "..."
		}
		doc := r.DocID
		if len(doc) > 20 {
			doc = doc[:17] + "..."
		}
		section := string(r.Section)
		if len(section) > 12 {
			section = section[:9] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-10s  %-50s  %-20s  %-12s  %.2f\n",
			i+1, r.Type, text, doc, section, r.Confidence)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the graph index to YAML, JSON, or CSV",
	Long: `Export writes indexed nodes (or a filtered subset) to
knowledge/index/export.yaml or export.json. With --format csv and --doc,
it writes one node CSV and one edge CSV for the named document.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := s.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to knowledge/index/export.yaml")
	case "json":
		if err := s.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to knowledge/index/export.json")
	case "csv":
		if opts.DocID == "" {
			return fmt.Errorf("csv export requires --doc")
		}
		if err := s.ExportCSV(context.Background(), opts.DocID); err != nil {
			return err
		}
		fmt.Printf("Exported to knowledge/index/%s_nodes.csv and %s_edges.csv\n", opts.DocID, opts.DocID)
	default:
		return fmt.Errorf("unsupported format %q: use yaml, json, or csv", format)
	}

	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	knowledgeDir, _ := cmd.Flags().GetString("knowledge-dir")
	if knowledgeDir == "" {
		knowledgeDir = "knowledge"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return store.Open(types.StoreConfig{
		KnowledgeDir: knowledgeDir,
		MaxResults:   maxResults,
	})
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	nodeType, _ := cmd.Flags().GetString("type")
	section, _ := cmd.Flags().GetString("section")
	docID, _ := cmd.Flags().GetString("doc")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:      queryText,
		Type:       types.NodeType(nodeType),
		Section:    types.Section(section),
		DocID:      docID,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("knowledge-dir", "knowledge", "base directory for knowledge (contains graphs/, index/)")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Query flags.
	storeQueryCmd.Flags().String("query", "", "full-text search query")
	storeQueryCmd.Flags().String("type", "", "filter by node type: Hypothesis, Experiment, Dataset, Analysis, Conclusion")
	storeQueryCmd.Flags().String("section", "", "filter by document section")
	storeQueryCmd.Flags().String("doc", "", "filter by document ID")
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml, json, or csv")
	storeExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	storeExportCmd.Flags().String("type", "", "filter by node type for partial export")
	storeExportCmd.Flags().String("section", "", "filter by section for partial export")
	storeExportCmd.Flags().String("doc", "", "filter by document ID (required for csv)")
	storeExportCmd.Flags().Int("limit", 0, "maximum nodes to export (0 = all)")

	// Wire subcommands.
	storeCmd.AddCommand(storeIndexCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
