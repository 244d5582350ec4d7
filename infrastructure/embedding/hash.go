// Package embedding provides ports.Embedder implementations.
package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"
)

// DefaultDimensions matches the vector index created for the hash embedder
const DefaultDimensions = 384

// HashEmbedder is a deterministic bag-of-words embedder using feature
// hashing over words and character trigrams. Texts sharing vocabulary land
// close together, which is enough for offline search and tests.
type HashEmbedder struct {
	dims int
}

func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	acc := make([]float64, e.dims)
	for _, word := range tokenize(text) {
		e.add(acc, "w:"+word, 1)
		padded := " " + word + " "
		for i := 0; i+3 <= len(padded); i++ {
			e.add(acc, "t:"+padded[i:i+3], 0.5)
		}
	}

	out := make([]float32, e.dims)
	norm := floats.Norm(acc, 2)
	if norm == 0 {
		return out, nil
	}
	floats.Scale(1/norm, acc)
	for i, v := range acc {
		out[i] = float32(v)
	}
	return out, nil
}

func (e *HashEmbedder) Dimensions() int { return e.dims }

func (e *HashEmbedder) add(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dims))
	// The top bit picks a sign so collisions tend to cancel.
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
