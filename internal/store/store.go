// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists assembled graphs in SQLite and builds a retrieval
// index over their nodes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

const (
	graphsDir = "graphs"
	indexDir  = "index"
	dbFile    = "imrad.db"
)

// Store manages the graph index SQLite database.
type Store struct {
	db           *sql.DB
	knowledgeDir string
	maxResults   int
}

// Open opens or creates the graph index database at
// knowledgeDir/index/imrad.db, creating the schema if needed.
func Open(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.KnowledgeDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:           db,
		knowledgeDir: cfg.KnowledgeDir,
		maxResults:   maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			run_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS nodes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			doc_id TEXT NOT NULL REFERENCES documents(id),
			type TEXT NOT NULL,
			text TEXT NOT NULL,
			section TEXT,
			confidence REAL,
			evidence TEXT,
			semantic_context TEXT,
			timestamp TEXT,
			idx INTEGER,
			unverified INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_doc_id ON nodes(doc_id)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type)`,
		`CREATE TABLE IF NOT EXISTS edges (
			doc_id TEXT NOT NULL REFERENCES documents(id),
			start_id TEXT NOT NULL,
			end_id TEXT NOT NULL,
			type TEXT NOT NULL,
			confidence REAL,
			semantic_evidence TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_doc_id ON edges(doc_id)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			doc_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over node text, with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='nodes_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE nodes_fts USING fts5(text, content=nodes, content_rowid=rowid)`,
			`CREATE TRIGGER nodes_ai AFTER INSERT ON nodes BEGIN
				INSERT INTO nodes_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER nodes_ad AFTER DELETE ON nodes BEGIN
				INSERT INTO nodes_fts(nodes_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			END`,
			`CREATE TRIGGER nodes_au AFTER UPDATE ON nodes BEGIN
				INSERT INTO nodes_fts(nodes_fts, rowid, text) VALUES('delete', old.rowid, old.text);
				INSERT INTO nodes_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a graph indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of graphs processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads graph YAML files from knowledgeDir/graphs/ and populates the
// database. Unchanged files are skipped; re-ingesting a changed document
// replaces its nodes and edges.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	srcDir := filepath.Join(s.knowledgeDir, graphsDir)

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading graphs directory %s: %w", srcDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "-graph.yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		docID := strings.TrimSuffix(entry.Name(), "-graph.yaml")
		filePath := filepath.Join(srcDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE doc_id = ?`, docID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", docID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		var g types.Graph
		if err := yaml.Unmarshal(data, &g); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", docID, err)
			summary.Failed++
			continue
		}
		if g.DocID == "" {
			g.DocID = docID
		}

		if err := s.ingestGraph(ctx, g, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d nodes, %d edges)\n", docID, len(g.Nodes), len(g.Edges))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d nodes, %d edges)\n", docID, len(g.Nodes), len(g.Edges))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestGraph(ctx context.Context, g types.Graph, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE doc_id = ?`, g.DocID); err != nil {
			return fmt.Errorf("deleting old edges: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE doc_id = ?`, g.DocID); err != nil {
			return fmt.Errorf("deleting old nodes: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, run_id) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET run_id=excluded.run_id`,
		g.DocID, g.RunID,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO nodes
			(id, doc_id, type, text, section, confidence, evidence, semantic_context, timestamp, idx, unverified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()

	for _, n := range g.Nodes {
		evidenceJSON, _ := json.Marshal(n.Evidence)
		unverified := 0
		if n.Unverified {
			unverified = 1
		}
		_, err := nodeStmt.ExecContext(ctx,
			n.ID, g.DocID, string(n.Type), n.Text, string(n.Section),
			n.Confidence, string(evidenceJSON), n.SemanticContext,
			n.Timestamp.UTC().Format(time.RFC3339Nano), n.Index, unverified,
		)
		if err != nil {
			return fmt.Errorf("inserting node %s: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (doc_id, start_id, end_id, type, confidence, semantic_evidence)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for _, e := range g.Edges {
		_, err := edgeStmt.ExecContext(ctx,
			g.DocID, e.Start, e.End, string(e.Type), e.Confidence, e.SemanticEvidence,
		)
		if err != nil {
			return fmt.Errorf("inserting edge %s->%s: %w", e.Start, e.End, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (doc_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		g.DocID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}
