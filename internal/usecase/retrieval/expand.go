package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"transcript-qa/internal/domain"
)

const (
	// maxGeneratedQueries caps the LLM contribution; with the original
	// question always present the expansion set holds at most four queries.
	maxGeneratedQueries = 3

	// minQueryLength drops fragments too short to be useful search queries.
	minQueryLength = 10

	expansionTemperature = 0.3
	expansionMaxTokens   = 256
)

const expandPromptTemplate = `You are an expert at converting user questions into optimal search queries for a database of long-form podcast transcripts.

Given a user question, generate 2-3 different search queries that will retrieve the most relevant information. These queries should:
- Use different phrasings and terminology
- Cover different aspects of the question
- Include scientific or domain terms when appropriate
- Be concise (10-20 words each)

Examples:

User Question: "sleep stuff"
Search Queries:
1. sleep optimization protocols and sleep hygiene recommendations
2. circadian rhythm and sleep quality improvement strategies
3. sleep supplements and evening routines for better rest

User Question: "what do they say about focus?"
Search Queries:
1. focus and concentration enhancement protocols
2. dopamine and attention improvement strategies
3. cognitive performance and mental clarity techniques

Now generate search queries for this question:

User Question: %s
Search Queries:`

// Lines starting with these phrases are LLM chatter, not queries.
var boilerplatePrefixes = []string{
	"here are",
	"search queries:",
	"user question:",
	"these queries",
}

// Expander widens retrieval recall by generating alternative phrasings of an
// index-language question with an LLM. When disabled it passes the question
// through as a single-element set.
type Expander struct {
	chat    domain.ChatModel
	enabled bool
	logger  *slog.Logger
}

// NewExpander creates a query expander backed by the given chat model.
func NewExpander(chat domain.ChatModel, enabled bool, logger *slog.Logger) *Expander {
	return &Expander{
		chat:    chat,
		enabled: enabled,
		logger:  logger,
	}
}

// Expand returns the search queries to run for a question. The question
// itself is always a member of the returned set, inserted at position 0 when
// the LLM did not reproduce it. Generation failures are logged and fall back
// to the question alone; they never propagate.
func (e *Expander) Expand(ctx context.Context, question string) []string {
	if !e.enabled {
		return []string{question}
	}

	prompt := fmt.Sprintf(expandPromptTemplate, question)
	resp, err := e.chat.Complete(ctx,
		[]domain.Message{{Role: domain.RoleUser, Content: prompt}},
		domain.CompletionOptions{Temperature: expansionTemperature, MaxTokens: expansionMaxTokens},
	)
	if err != nil {
		e.logger.Warn("query_expansion_failed",
			slog.String("error", err.Error()))
		return []string{question}
	}

	queries := parseQueryLines(resp)
	if !contains(queries, question) {
		queries = append([]string{question}, queries...)
	}

	e.logger.Info("query_expanded",
		slog.String("original", question),
		slog.Int("query_count", len(queries)),
		slog.Any("queries", queries))

	return queries
}

// parseQueryLines turns an LLM response into a list of search queries:
// enumeration markers are stripped, boilerplate and short lines dropped,
// and the result capped at maxGeneratedQueries.
func parseQueryLines(response string) []string {
	var queries []string
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if hasBoilerplatePrefix(line) {
			continue
		}
		line = strings.TrimLeft(line, "0123456789.)- \t")
		if len(line) > minQueryLength {
			queries = append(queries, line)
		}
		if len(queries) == maxGeneratedQueries {
			break
		}
	}
	return queries
}

func hasBoilerplatePrefix(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
