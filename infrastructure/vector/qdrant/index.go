// Package qdrant keeps node embeddings in a Qdrant collection for search.
package qdrant

import (
	"context"
	"fmt"

	"topicgraph/application/ports"
	"topicgraph/domain/graph"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

// Config holds connection settings
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimensions int
}

// Index implements ports.VectorIndex
type Index struct {
	client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

var _ ports.VectorIndex = (*Index)(nil)

// NewIndex connects and creates the collection if it is missing
func NewIndex(ctx context.Context, cfg Config, logger *zap.Logger) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	idx := &Index{client: client, collection: cfg.Collection, logger: logger.Named("qdrant")}
	if err := idx.ensureCollection(ctx, cfg.Dimensions); err != nil {
		client.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) ensureCollection(ctx context.Context, dims int) error {
	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dims),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	i.logger.Info("Created Qdrant collection", zap.String("collection", i.collection), zap.Int("dimensions", dims))
	return nil
}

// PointID maps a node id to a stable UUID, since Qdrant ids must be UUIDs
// or integers
func PointID(nodeID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(nodeID)).String()
}

// Upsert writes every node that has an embedding
func (i *Index) Upsert(ctx context.Context, nodes []graph.Node) error {
	points := toPoints(nodes)
	if len(points) == 0 {
		return nil
	}

	wait := true
	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

func (i *Index) Search(ctx context.Context, vector []float32, limit int) ([]ports.SearchResult, error) {
	if len(vector) == 0 || limit <= 0 {
		return []ports.SearchResult{}, nil
	}

	n := uint64(limit)
	hits, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &n,
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search in Qdrant: %w", err)
	}
	return fromHits(hits), nil
}

func (i *Index) Close() error {
	return i.client.Close()
}

func toPoints(nodes []graph.Node) []*qdrant.PointStruct {
	points := make([]*qdrant.PointStruct, 0, len(nodes))
	for _, n := range nodes {
		if len(n.Embedding) == 0 {
			continue
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(n.ID)),
			Vectors: qdrant.NewVectors(n.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"node_id": n.ID,
				"label":   n.Label(),
			}),
		})
	}
	return points
}

func fromHits(hits []*qdrant.ScoredPoint) []ports.SearchResult {
	out := make([]ports.SearchResult, 0, len(hits))
	for _, hit := range hits {
		id := hit.Payload["node_id"].GetStringValue()
		if id == "" {
			continue
		}
		out = append(out, ports.SearchResult{
			ID:    id,
			Label: hit.Payload["label"].GetStringValue(),
			Score: float64(hit.Score),
		})
	}
	return out
}
