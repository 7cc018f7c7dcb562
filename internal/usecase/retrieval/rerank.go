package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"transcript-qa/internal/domain"
)

const (
	// rerankExcerptLimit bounds the passage text shown to the reranking
	// model; full chunks would blow the prompt budget.
	rerankExcerptLimit = 800

	rerankMaxTokens = 256
)

// Rerank asks the chat model to reorder the filtered candidates by relevance
// to the question. The model must answer with a strict JSON array of
// candidate ids; listed ids come first in response order and any unlisted
// candidate follows in its original position. Reranking only reorders: the
// output is always a permutation of the input, and on any failure the input
// ordering is returned unchanged.
func Rerank(
	ctx context.Context,
	chat domain.ChatModel,
	question string,
	candidates []Candidate,
	logger *slog.Logger,
) []Candidate {
	if len(candidates) < 2 {
		return candidates
	}

	prompt := buildRerankPrompt(question, candidates)
	resp, err := chat.Complete(ctx,
		[]domain.Message{{Role: domain.RoleUser, Content: prompt}},
		domain.CompletionOptions{Temperature: 0, MaxTokens: rerankMaxTokens},
	)
	if err != nil {
		logger.Warn("reranking_failed",
			slog.String("error", err.Error()))
		return candidates
	}

	orderedIDs, err := parseRerankResponse(resp)
	if err != nil {
		logger.Warn("reranking_response_malformed",
			slog.String("error", err.Error()))
		return candidates
	}

	reordered := applyOrder(candidates, orderedIDs)

	logger.Info("reranking_completed",
		slog.Int("candidate_count", len(candidates)),
		slog.Int("ids_returned", len(orderedIDs)))

	return reordered
}

func buildRerankPrompt(question string, candidates []Candidate) string {
	var sb strings.Builder
	sb.WriteString("You are reranking transcript passages by relevance to the user question. ")
	sb.WriteString("Return a JSON array of passage ids ordered from most to least relevant. ")
	sb.WriteString("Only return JSON, no extra text.\n\n")
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nPassages:\n")
	for _, c := range candidates {
		sb.WriteString("- id: ")
		sb.WriteString(c.ID)
		sb.WriteString("\n  text: ")
		sb.WriteString(truncateRunes(c.Text, rerankExcerptLimit))
		sb.WriteString("\n")
	}
	return sb.String()
}

func parseRerankResponse(resp string) ([]string, error) {
	trimmed := strings.TrimSpace(resp)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return nil, fmt.Errorf("response is not a JSON array")
	}
	var ids []string
	if err := json.Unmarshal([]byte(trimmed), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode id array: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("empty id array")
	}
	return ids, nil
}

// applyOrder places candidates whose ids appear in orderedIDs first, in that
// order, then the remaining candidates in their original order. Unknown ids
// are ignored, duplicates taken once.
func applyOrder(candidates []Candidate, orderedIDs []string) []Candidate {
	byID := make(map[string]int, len(candidates))
	for i, c := range candidates {
		byID[c.ID] = i
	}

	out := make([]Candidate, 0, len(candidates))
	taken := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if taken[id] {
			continue
		}
		if i, ok := byID[id]; ok {
			out = append(out, candidates[i])
			taken[id] = true
		}
	}
	for _, c := range candidates {
		if !taken[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
