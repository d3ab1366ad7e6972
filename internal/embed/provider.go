// Package embed turns text into fixed-dimension vectors via an external
// embedding service.
package embed

import "context"

// Provider maps text to fixed-dimension vectors.
type Provider interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the vector dimensionality the provider produces.
	Dimensions() int
}

// Prober is implemented by providers that can check their backing service
// before any embedding work starts.
type Prober interface {
	// IsAvailable reports whether the embedding service is reachable.
	IsAvailable(ctx context.Context) error
}
