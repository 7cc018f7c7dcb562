package domain

import "context"

// Match represents a passage found via vector search, including its
// similarity score. Scores are cosine-like: higher is better, the absolute
// scale is store-dependent.
type Match struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]string
}

// VectorStore performs nearest-neighbor search against a single indexed
// collection of transcript chunks. Index population belongs to the
// ingestion tooling, not this service.
type VectorStore interface {
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)

	// Name returns the backend identifier for logging.
	Name() string
}
