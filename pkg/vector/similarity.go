// Package vector has the similarity helpers shared by the embedded graph
// stores.
package vector

import (
	"sort"

	"topicgraph/application/ports"

	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity returns the cosine of the angle between a and b. Vectors
// of different length, empty vectors and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	x, y := widen(a), widen(b)
	na, nb := floats.Norm(x, 2), floats.Norm(y, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(x, y) / (na * nb)
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// Candidate is a stored node considered by a brute-force search
type Candidate struct {
	ID        string
	Label     string
	Embedding []float32
}

// TopK scores every candidate against query and returns the best limit
// matches by descending score. Candidates without an embedding never match.
func TopK(query []float32, candidates []Candidate, limit int) []ports.SearchResult {
	results := make([]ports.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) == 0 || len(c.Embedding) != len(query) {
			continue
		}
		results = append(results, ports.SearchResult{
			ID:    c.ID,
			Label: c.Label,
			Score: CosineSimilarity(query, c.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].ID < results[j].ID
		}
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
