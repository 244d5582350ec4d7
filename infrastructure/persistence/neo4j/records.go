package neo4j

import (
	"fmt"

	"topicgraph/application/ports"
	"topicgraph/domain/graph"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func embeddingParam(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return toFloat64s(v)
}

func toFloat64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func stringField(record *neo4j.Record, key string) (string, error) {
	v, isNil, err := neo4j.GetRecordValue[string](record, key)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", key, err)
	}
	if isNil {
		return "", nil
	}
	return v, nil
}

func nodeFromRecord(record *neo4j.Record) (graph.Node, error) {
	id, err := stringField(record, "id")
	if err != nil {
		return graph.Node{}, err
	}
	label, err := stringField(record, "label")
	if err != nil {
		return graph.Node{}, err
	}
	n := graph.NewNode(id, label)
	return n, n.Validate()
}

func edgeFromRecord(record *neo4j.Record) (graph.Edge, error) {
	var fields [4]string
	for i, key := range []string{"id", "source", "target", "label"} {
		v, err := stringField(record, key)
		if err != nil {
			return graph.Edge{}, err
		}
		fields[i] = v
	}
	e := graph.NewEdge(fields[0], fields[1], fields[2], fields[3])
	return e, e.Validate()
}

func resultFromRecord(record *neo4j.Record) (ports.SearchResult, error) {
	id, err := stringField(record, "id")
	if err != nil {
		return ports.SearchResult{}, err
	}
	label, err := stringField(record, "label")
	if err != nil {
		return ports.SearchResult{}, err
	}
	score, _, err := neo4j.GetRecordValue[float64](record, "score")
	if err != nil {
		return ports.SearchResult{}, fmt.Errorf("column score: %w", err)
	}
	return ports.SearchResult{ID: id, Label: label, Score: score}, nil
}
