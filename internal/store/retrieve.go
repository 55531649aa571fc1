// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

// QueryOptions holds parameters for graph index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over node text.
	Query string

	// Type filters by NodeType.
	Type types.NodeType

	// Section filters by document section.
	Section types.Section

	// DocID filters by source document.
	DocID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Type == "" && q.Section == "" && q.DocID == ""
}

// QueryResult is a node with its run provenance.
type QueryResult struct {
	types.Node
	DocID string `json:"doc_id" yaml:"doc_id"`
	RunID string `json:"run_id" yaml:"run_id"`
}

// Retrieve queries the graph index with optional full-text search and
// structured filters. Full-text queries rank by relevance; structured-only
// queries sort by document and sentence position.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT n.id, n.doc_id, n.type, n.text, n.section, n.confidence,
				n.evidence, n.semantic_context, n.timestamp, n.idx, n.unverified,
				d.run_id, nodes_fts.rank
			FROM nodes_fts
			JOIN nodes n ON n.rowid = nodes_fts.rowid
			LEFT JOIN documents d ON n.doc_id = d.id
			WHERE nodes_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT n.id, n.doc_id, n.type, n.text, n.section, n.confidence,
				n.evidence, n.semantic_context, n.timestamp, n.idx, n.unverified,
				d.run_id, 0 AS rank
			FROM nodes n
			LEFT JOIN documents d ON n.doc_id = d.id
			WHERE 1=1`)
	}

	if opts.Type != "" {
		qb.WriteString(` AND n.type = ?`)
		args = append(args, string(opts.Type))
	}

	if opts.Section != "" {
		qb.WriteString(` AND n.section = ?`)
		args = append(args, string(opts.Section))
	}

	if opts.DocID != "" {
		qb.WriteString(` AND n.doc_id = ?`)
		args = append(args, opts.DocID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY nodes_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY n.doc_id, n.idx`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying graph index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr           QueryResult
			nodeType     string
			section      sql.NullString
			evidenceJSON sql.NullString
			semCtx       sql.NullString
			timestamp    sql.NullString
			unverified   int
			runID        sql.NullString
			rank         float64
		)

		if err := rows.Scan(
			&qr.ID, &qr.DocID, &nodeType, &qr.Text, &section, &qr.Confidence,
			&evidenceJSON, &semCtx, &timestamp, &qr.Index, &unverified,
			&runID, &rank,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.Type = types.NodeType(nodeType)
		qr.Unverified = unverified != 0

		if section.Valid {
			qr.Section = types.Section(section.String)
		}
		if evidenceJSON.Valid {
			json.Unmarshal([]byte(evidenceJSON.String), &qr.Evidence)
		}
		if semCtx.Valid {
			qr.SemanticContext = semCtx.String
		}
		if timestamp.Valid {
			if ts, err := time.Parse(time.RFC3339Nano, timestamp.String); err == nil {
				qr.Timestamp = ts
			}
		}
		if runID.Valid {
			qr.RunID = runID.String
		}

		results = append(results, qr)
	}

	return results, rows.Err()
}

// Edges returns all edges for one document, joined with endpoint types for
// readability.
func (s *Store) Edges(ctx context.Context, docID string) ([]types.Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_id, end_id, type, confidence, semantic_evidence
		 FROM edges WHERE doc_id = ? ORDER BY rowid`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var edges []types.Edge
	for rows.Next() {
		var (
			e      types.Edge
			et     string
			semEvd sql.NullString
		)
		if err := rows.Scan(&e.Start, &e.End, &et, &e.Confidence, &semEvd); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		e.Type = types.EdgeType(et)
		if semEvd.Valid {
			e.SemanticEvidence = semEvd.String
		}
		edges = append(edges, e)
	}

	return edges, rows.Err()
}

// Graph reconstructs the stored graph for one document. It returns an error
// if the document is not indexed.
func (s *Store) Graph(ctx context.Context, docID string) (types.Graph, error) {
	var runID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id FROM documents WHERE id = ?`, docID,
	).Scan(&runID)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Graph{}, fmt.Errorf("document %s not indexed", docID)
		}
		return types.Graph{}, fmt.Errorf("looking up document: %w", err)
	}

	results, err := s.Retrieve(ctx, QueryOptions{DocID: docID, MaxResults: exportLimit})
	if err != nil {
		return types.Graph{}, err
	}

	edges, err := s.Edges(ctx, docID)
	if err != nil {
		return types.Graph{}, err
	}

	g := types.Graph{DocID: docID, RunID: runID.String, Edges: edges}
	for _, r := range results {
		g.Nodes = append(g.Nodes, r.Node)
	}
	return g, nil
}
