// Package neo4j stores graphs in Neo4j and serves similarity search from a
// native vector index.
package neo4j

import (
	"context"
	"fmt"

	"topicgraph/application/ports"
	"topicgraph/domain/graph"
	"topicgraph/pkg/observability"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	nodeLabel = "Concept"
	relType   = "RELATES_TO"
	// IndexName is the vector index queried by Search
	IndexName = "concept_embeddings"
)

// Config holds connection settings
type Config struct {
	URI        string
	Username   string
	Password   string
	Database   string
	Dimensions int
}

// Store implements ports.GraphStore. Every call opens its own session and
// closes it before returning.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	dims     int
	logger   *zap.Logger
}

var _ ports.GraphStore = (*Store)(nil)

// NewStore connects, verifies connectivity and ensures the schema exists
func NewStore(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	s := &Store{
		driver:   driver,
		database: cfg.Database,
		dims:     cfg.Dimensions,
		logger:   logger.Named("neo4j"),
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j unreachable at %s: %w", cfg.URI, err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	s.logger.Info("Connected to Neo4j", zap.String("uri", cfg.URI), zap.String("database", cfg.Database))
	return s, nil
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// EnsureSchema creates the id uniqueness constraint and the vector index
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := []string{
		fmt.Sprintf("CREATE CONSTRAINT concept_id IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE", nodeLabel),
		fmt.Sprintf("CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:%s) ON n.embedding "+
			"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
			IndexName, nodeLabel, s.dims),
	}
	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// SaveNodes merges nodes on id. Empty embeddings are stored as null so the
// node never enters the vector index.
func (s *Store) SaveNodes(ctx context.Context, nodes []graph.Node) (err error) {
	if len(nodes) == 0 {
		return nil
	}
	ctx, span := observability.StartSpan(ctx, "neo4j.save_nodes", attribute.Int("nodes", len(nodes)))
	defer func() { observability.EndSpan(span, err) }()

	rows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			return err
		}
		rows = append(rows, map[string]any{
			"id":        n.ID,
			"label":     n.Label(),
			"embedding": embeddingParam(n.Embedding),
		})
	}

	query := fmt.Sprintf(`
		UNWIND $rows AS row
		MERGE (n:%s {id: row.id})
		ON CREATE SET n.created_at = timestamp()
		SET n.label = row.label, n.embedding = row.embedding`, nodeLabel)

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{"rows": rows})
	})
	if err != nil {
		return fmt.Errorf("failed to save nodes: %w", err)
	}
	return nil
}

// SaveEdges matches both endpoints, so edges whose nodes are not stored
// produce no rows and are skipped.
func (s *Store) SaveEdges(ctx context.Context, edges []graph.Edge) (err error) {
	if len(edges) == 0 {
		return nil
	}
	ctx, span := observability.StartSpan(ctx, "neo4j.save_edges", attribute.Int("edges", len(edges)))
	defer func() { observability.EndSpan(span, err) }()

	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, map[string]any{
			"id":     e.ID,
			"source": e.Source,
			"target": e.Target,
			"label":  e.Label(),
		})
	}

	query := fmt.Sprintf(`
		UNWIND $rows AS row
		MATCH (a:%[1]s {id: row.source})
		MATCH (b:%[1]s {id: row.target})
		MERGE (a)-[r:%[2]s {id: row.id}]->(b)
		SET r.label = row.label
		RETURN count(r) AS saved`, nodeLabel, relType)

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	saved, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		n, _, err := neo4j.GetRecordValue[int64](record, "saved")
		return n, err
	})
	if err != nil {
		return fmt.Errorf("failed to save edges: %w", err)
	}
	if skipped := int64(len(edges)) - saved.(int64); skipped > 0 {
		s.logger.Debug("Skipped edges with missing endpoints", zap.Int64("skipped", skipped))
	}
	return nil
}

// LoadAll reads nodes in creation order, then every relationship between
// stored nodes
func (s *Store) LoadAll(ctx context.Context) (g graph.Graph, err error) {
	ctx, span := observability.StartSpan(ctx, "neo4j.load_all")
	defer func() { observability.EndSpan(span, err) }()

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		loaded := graph.Empty()

		result, err := tx.Run(ctx, fmt.Sprintf(
			`MATCH (n:%s) RETURN n.id AS id, n.label AS label ORDER BY n.created_at, n.id`, nodeLabel), nil)
		if err != nil {
			return nil, err
		}
		for result.Next(ctx) {
			n, err := nodeFromRecord(result.Record())
			if err != nil {
				return nil, err
			}
			loaded.Nodes = append(loaded.Nodes, n)
		}
		if err := result.Err(); err != nil {
			return nil, err
		}

		result, err = tx.Run(ctx, fmt.Sprintf(
			`MATCH (a:%[1]s)-[r:%[2]s]->(b:%[1]s) RETURN r.id AS id, a.id AS source, b.id AS target, r.label AS label ORDER BY r.id`,
			nodeLabel, relType), nil)
		if err != nil {
			return nil, err
		}
		for result.Next(ctx) {
			e, err := edgeFromRecord(result.Record())
			if err != nil {
				return nil, err
			}
			loaded.Edges = append(loaded.Edges, e)
		}
		return loaded, result.Err()
	})
	if err != nil {
		return graph.Graph{}, fmt.Errorf("failed to load graph: %w", err)
	}
	return out.(graph.Graph), nil
}

// Search queries the vector index
func (s *Store) Search(ctx context.Context, vector []float32, limit int) (results []ports.SearchResult, err error) {
	if len(vector) == 0 || limit <= 0 {
		return []ports.SearchResult{}, nil
	}
	ctx, span := observability.StartSpan(ctx, "neo4j.search", attribute.Int("limit", limit))
	defer func() { observability.EndSpan(span, err) }()

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			CALL db.index.vector.queryNodes($index, $k, $vector)
			YIELD node, score
			RETURN node.id AS id, node.label AS label, score
			ORDER BY score DESC`,
			map[string]any{"index": IndexName, "k": limit, "vector": toFloat64s(vector)})
		if err != nil {
			return nil, err
		}
		matches := make([]ports.SearchResult, 0, limit)
		for result.Next(ctx) {
			r, err := resultFromRecord(result.Record())
			if err != nil {
				return nil, err
			}
			matches = append(matches, r)
		}
		return matches, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return out.([]ports.SearchResult), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
