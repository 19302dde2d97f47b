package embedding

import (
	"context"
	"errors"
)

// ErrNoEmbedding indicates the provider returned an empty result.
var ErrNoEmbedding = errors.New("no embeddings returned")

// Provider is the contract the cache requires from an embedding backend.
type Provider interface {
	// EmbedQuery generates the embedding for a single piece of text.
	EmbedQuery(ctx context.Context, text string) ([]float64, error)

	// Name returns the provider identifier.
	Name() string

	// Dimensions returns the embedding dimensionality.
	Dimensions() int
}
