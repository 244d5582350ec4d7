package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2}, []float32{1, 2}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTopK(t *testing.T) {
	candidates := []Candidate{
		{ID: "2", Label: "Gravity", Embedding: []float32{0.1, 1}},
		{ID: "1", Label: "Photosynthesis", Embedding: []float32{1, 0.1}},
		{ID: "3", Label: "Unembedded", Embedding: []float32{}},
	}

	res := TopK([]float32{1, 0.1}, candidates, 10)
	require.Len(t, res, 2)
	assert.Equal(t, "Photosynthesis", res[0].Label)
	assert.Greater(t, res[0].Score, res[1].Score)

	assert.Len(t, TopK([]float32{1, 0.1}, candidates, 1), 1)
}
