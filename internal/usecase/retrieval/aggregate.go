package retrieval

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"transcript-qa/internal/domain"
)

// Aggregate embeds every expansion query, searches the vector store for its
// top retrievalK neighbors, and merges the per-query hits into one ranked
// candidate list.
//
// The merge keeps at most one candidate per id, retaining the maximum score
// observed; a tie keeps the first-seen observation. A failed embed or search
// for one query is logged and that query's contribution is simply absent.
// When every query fails (or nothing is found) the result is empty and the
// caller short-circuits to its no-results answer.
//
// Searches run concurrently; the merge itself walks results in query order,
// and because max is commutative the outcome is independent of completion
// order.
func Aggregate(
	ctx context.Context,
	queries []string,
	embedder domain.EmbeddingProvider,
	store domain.VectorStore,
	retrievalK int,
	logger *slog.Logger,
) []Candidate {
	perQuery := make([][]domain.Match, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, query := range queries {
		g.Go(func() error {
			vector, err := embedder.Embed(gctx, query)
			if err != nil {
				logger.Warn("query_embed_failed",
					slog.Int("query_index", i),
					slog.String("query", query),
					slog.String("error", err.Error()))
				return nil // isolated per-query failure
			}
			matches, err := store.Search(gctx, vector, retrievalK)
			if err != nil {
				logger.Warn("query_search_failed",
					slog.Int("query_index", i),
					slog.String("query", query),
					slog.String("error", err.Error()))
				return nil
			}
			perQuery[i] = matches
			return nil
		})
	}
	_ = g.Wait()

	merged := mergeMatches(perQuery)

	logger.Info("candidates_aggregated",
		slog.Int("query_count", len(queries)),
		slog.Int("candidate_count", len(merged)))

	return merged
}

// mergeMatches applies the at-most-one-winner-per-id rule: a candidate id
// observed from several queries keeps its highest score, and the ranked
// output is sorted score-descending with first-seen order breaking ties.
func mergeMatches(perQuery [][]domain.Match) []Candidate {
	index := make(map[string]int)
	var merged []Candidate

	for _, matches := range perQuery {
		for _, m := range matches {
			if m.ID == "" {
				continue
			}
			if at, ok := index[m.ID]; ok {
				if m.Score > merged[at].Score {
					merged[at] = Candidate{
						ID:       m.ID,
						Score:    m.Score,
						Text:     m.Text,
						Metadata: m.Metadata,
					}
				}
				continue
			}
			index[m.ID] = len(merged)
			merged = append(merged, Candidate{
				ID:       m.ID,
				Score:    m.Score,
				Text:     m.Text,
				Metadata: m.Metadata,
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	return merged
}
