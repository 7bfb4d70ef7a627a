// Package embedding defines the contract with external embedding models.
package embedding

import "context"

// Provider converts text into fixed-length embedding vectors. All vectors
// produced by one provider instance share the same dimensionality and model.
type Provider interface {
	// Embed converts a single text to a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model reports the embedding model name, recorded once per corpus.
	Model() string

	// Dimension returns the number of embedding dimensions.
	Dimension() int
}
