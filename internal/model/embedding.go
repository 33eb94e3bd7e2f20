package model

// DefaultEmbeddingDimensions matches the sentence embedding models the table is built with.
const DefaultEmbeddingDimensions = 384

// EmbeddingEntry is a precomputed keyword embedding.
type EmbeddingEntry struct {
	Keyword  string
	Category string
	Model    string
	Vector   []float32
}
