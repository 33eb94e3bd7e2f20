// Package embedding provides the embedding functions shared by the offline
// index builder and the vector matcher, plus vector encoding and similarity.
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyText is returned when asked to embed an empty string.
var ErrEmptyText = errors.New("cannot embed empty text")

// Embedder maps text to a fixed-dimension vector. The same Embedder (same
// Model) must be used to build the table and to embed queries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Model names the embedding space; it is stored with every table row.
	Model() string
}
