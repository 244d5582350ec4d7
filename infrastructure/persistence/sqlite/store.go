// Package sqlite is an embedded graph store for local development and the
// CLI. Similarity search is a linear scan over stored embeddings.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	"topicgraph/application/ports"
	"topicgraph/domain/graph"
	"topicgraph/pkg/observability"
	"topicgraph/pkg/vector"

	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
  id        TEXT PRIMARY KEY,
  label     TEXT NOT NULL,
  embedding BLOB,
  seq       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS edges (
  id     TEXT PRIMARY KEY,
  source TEXT NOT NULL,
  target TEXT NOT NULL,
  label  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
`

// Store implements ports.GraphStore on a single SQLite file
type Store struct {
	db *sql.DB
}

var _ ports.GraphStore = (*Store)(nil)

// Open creates or opens the database at path. ":memory:" is accepted.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveNodes(ctx context.Context, nodes []graph.Node) (err error) {
	if len(nodes) == 0 {
		return nil
	}
	ctx, span := observability.StartSpan(ctx, "sqlite.save_nodes", attribute.Int("nodes", len(nodes)))
	defer func() { observability.EndSpan(span, err) }()

	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			return err
		}
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO nodes (id, label, embedding, seq)
			VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM nodes))
			ON CONFLICT(id) DO UPDATE SET label = excluded.label, embedding = excluded.embedding`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, n := range nodes {
			if _, err := stmt.ExecContext(ctx, n.ID, n.Label(), vectorParam(n.Embedding)); err != nil {
				return fmt.Errorf("upsert node %s: %w", n.ID, err)
			}
		}
		return nil
	})
}

// SaveEdges inserts only edges whose endpoints are stored
func (s *Store) SaveEdges(ctx context.Context, edges []graph.Edge) (err error) {
	if len(edges) == 0 {
		return nil
	}
	ctx, span := observability.StartSpan(ctx, "sqlite.save_edges", attribute.Int("edges", len(edges)))
	defer func() { observability.EndSpan(span, err) }()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO edges (id, source, target, label)
			SELECT ?1, ?2, ?3, ?4
			WHERE EXISTS (SELECT 1 FROM nodes WHERE id = ?2)
			  AND EXISTS (SELECT 1 FROM nodes WHERE id = ?3)
			ON CONFLICT(id) DO UPDATE SET source = excluded.source, target = excluded.target, label = excluded.label`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range edges {
			if _, err := stmt.ExecContext(ctx, e.ID, e.Source, e.Target, e.Label()); err != nil {
				return fmt.Errorf("upsert edge %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) LoadAll(ctx context.Context) (g graph.Graph, err error) {
	ctx, span := observability.StartSpan(ctx, "sqlite.load_all")
	defer func() { observability.EndSpan(span, err) }()

	g = graph.Empty()

	rows, err := s.db.QueryContext(ctx, `SELECT id, label FROM nodes ORDER BY seq`)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return graph.Graph{}, err
		}
		g.Nodes = append(g.Nodes, graph.NewNode(id, label))
	}
	if err := rows.Err(); err != nil {
		return graph.Graph{}, err
	}

	edgeRows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.source, e.target, e.label FROM edges e
		JOIN nodes a ON a.id = e.source
		JOIN nodes b ON b.id = e.target
		ORDER BY e.rowid`)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var id, source, target, label string
		if err := edgeRows.Scan(&id, &source, &target, &label); err != nil {
			return graph.Graph{}, err
		}
		g.Edges = append(g.Edges, graph.NewEdge(id, source, target, label))
	}
	return g, edgeRows.Err()
}

func (s *Store) Search(ctx context.Context, query []float32, limit int) (results []ports.SearchResult, err error) {
	ctx, span := observability.StartSpan(ctx, "sqlite.search", attribute.Int("limit", limit))
	defer func() { observability.EndSpan(span, err) }()

	rows, err := s.db.QueryContext(ctx, `SELECT id, label, embedding FROM nodes WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var candidates []vector.Candidate
	for rows.Next() {
		var c vector.Candidate
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Label, &blob); err != nil {
			return nil, err
		}
		c.Embedding = decodeVector(blob)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vector.TopK(query, candidates, limit), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func vectorParam(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return encodeVector(v)
}

// encodeVector packs v as little-endian float32s
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}
