package retrieval

import "log/slog"

// Filter applies the similarity-threshold cut to a ranked candidate list,
// keeping at most topK candidates in rank order.
//
// When the cut would eliminate every candidate and fallback is enabled, the
// topK highest-scoring candidates are returned regardless of score, so that
// an answer attempt is still made whenever any retrieval succeeded. The
// fallback trades precision for availability and is logged when it engages.
func Filter(ranked []Candidate, threshold float64, topK int, fallback bool, logger *slog.Logger) []Candidate {
	if len(ranked) == 0 || topK <= 0 {
		return nil
	}

	kept := make([]Candidate, 0, topK)
	for _, c := range ranked {
		if c.Score < threshold {
			break // ranked is sorted descending; nothing below passes
		}
		kept = append(kept, c)
		if len(kept) == topK {
			break
		}
	}

	if len(kept) > 0 {
		logger.Info("relevance_filter_applied",
			slog.Float64("threshold", threshold),
			slog.Int("candidates", len(ranked)),
			slog.Int("kept", len(kept)))
		return kept
	}

	if !fallback {
		logger.Warn("relevance_filter_empty",
			slog.Float64("threshold", threshold),
			slog.Int("candidates", len(ranked)))
		return nil
	}

	n := topK
	if len(ranked) < n {
		n = len(ranked)
	}
	logger.Warn("relevance_fallback_engaged",
		slog.Float64("threshold", threshold),
		slog.Int("candidates", len(ranked)),
		slog.Int("kept", n))

	out := make([]Candidate, n)
	copy(out, ranked[:n])
	return out
}
