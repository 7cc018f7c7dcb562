package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"transcript-qa/internal/domain"
)

// PgvectorStore searches transcript chunks stored in Postgres with the
// pgvector extension. Scores are cosine similarity in [0, 1].
type PgvectorStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPgvectorStore(pool *pgxpool.Pool, logger *slog.Logger) *PgvectorStore {
	return &PgvectorStore{pool: pool, logger: logger}
}

func (s *PgvectorStore) Search(ctx context.Context, vector []float32, k int) ([]domain.Match, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, `
		SELECT id::text,
		       content,
		       title,
		       transcript_id::text,
		       1 - (embedding <=> $1) AS score
		FROM transcript_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search transcript chunks: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var (
			match        domain.Match
			title        string
			transcriptID string
		)
		if err := rows.Scan(&match.ID, &match.Text, &title, &transcriptID, &match.Score); err != nil {
			return nil, fmt.Errorf("failed to scan transcript chunk row: %w", err)
		}
		match.Metadata = map[string]string{
			"title":         title,
			"transcript_id": transcriptID,
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript chunk rows: %w", err)
	}

	s.logger.Debug("vector_search_finished",
		slog.String("store", s.Name()),
		slog.Int("limit", k),
		slog.Int("matches", len(matches)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return matches, nil
}

func (s *PgvectorStore) Name() string {
	return "pgvector/transcript_chunks"
}

var _ domain.VectorStore = (*PgvectorStore)(nil)
