package domain

import "context"

// EmbeddingProvider defines the interface for generating embeddings.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Name returns the model identifier for logging.
	Name() string
}
