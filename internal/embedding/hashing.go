package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// HashingEmbedder is an offline embedder based on feature hashing of word
// tokens and character trigrams. It needs no model download or network, and
// texts sharing words or word fragments land close together.
type HashingEmbedder struct {
	dimensions int
}

// NewHashingEmbedder returns a hashing embedder producing vectors of the given size.
func NewHashingEmbedder(dimensions int) (*HashingEmbedder, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &HashingEmbedder{dimensions: dimensions}, nil
}

// Model implements Embedder.
func (h *HashingEmbedder) Model() string {
	return fmt.Sprintf("hashing-%d", h.dimensions)
}

// Embed implements Embedder. The result is L2-normalized.
func (h *HashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	acc := make([]float64, h.dimensions)
	for _, token := range tokens {
		h.add(acc, "w:"+token, 1.0)

		padded := "<" + token + ">"
		for i := 0; i+3 <= len(padded); i++ {
			h.add(acc, "t:"+padded[i:i+3], 0.5)
		}
	}

	var norm float64
	for _, x := range acc {
		norm += x * x
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, h.dimensions)
	if norm == 0 {
		return vec, nil
	}
	for i, x := range acc {
		vec[i] = float32(x / norm)
	}
	return vec, nil
}

// add hashes feature into a bucket with a hash-derived sign so collisions cancel
// rather than accumulate.
func (h *HashingEmbedder) add(acc []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	idx := int(sum % uint64(h.dimensions))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	acc[idx] += weight
}
