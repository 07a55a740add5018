// Package embedding provides text embedding generation for the durable
// store's vector step.
package embedding

import "context"

// Embedder generates embedding vectors for text.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	// CRITICAL: Must match the HNSW index dimension in the schema.
	Dimension() int
}
