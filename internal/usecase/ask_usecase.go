package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"transcript-qa/internal/domain"
	"transcript-qa/internal/usecase/retrieval"
)

// noResultsAnswer is the canned degraded answer for a run where retrieval
// produced zero candidates.
const noResultsAnswer = "No relevant information found."

const (
	sourceExcerptLimit = 200

	// Debug payloads are for observability only, so candidate lists and
	// prompt message bodies are bounded.
	debugMaxCandidates  = 10
	debugMaxPromptChars = 800
)

// PipelineConfig carries the retrieval and generation knobs.
type PipelineConfig struct {
	TopK                int
	RetrievalMultiplier int
	SimilarityThreshold float64

	// ThresholdFallback controls whether the relevance filter returns the
	// best-effort top-k when nothing clears the threshold. On by default;
	// operators who prefer precision over availability can disable it.
	ThresholdFallback bool

	ExpansionEnabled bool
	RerankingEnabled bool

	Temperature  float64
	MaxTokens    int
	HistoryLimit int

	// CacheSize and CacheTTL configure the first-turn answer cache;
	// a zero size disables caching.
	CacheSize int
	CacheTTL  time.Duration
}

// Source points back at one passage the answer was grounded on. Excerpt is
// a bounded preview, never the full passage.
type Source struct {
	Title   string  `json:"title"`
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt"`
}

// Answer is the user-facing result of one ask.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// AskDebug extends Answer with pipeline internals for observability.
type AskDebug struct {
	Answer
	RequestID        string                `json:"request_id"`
	DetectedLanguage string                `json:"detected_language"`
	IndexQuestion    string                `json:"index_question"`
	ExpandedQueries  []string              `json:"expanded_queries"`
	PreFilter        []retrieval.Candidate `json:"pre_filter"`
	PostRerank       []retrieval.Candidate `json:"post_rerank"`
	Prompt           []domain.Message      `json:"prompt"`
	PromptVersion    string                `json:"prompt_version"`
}

// Pipeline orchestrates one conversation's retrieval-and-answer flow:
// language round-trip, query expansion, aggregated vector retrieval,
// relevance filtering, optional reranking, prompt assembly, and answer
// generation. One Pipeline owns one Conversation.
type Pipeline struct {
	embedder     domain.EmbeddingProvider
	store        domain.VectorStore
	chat         domain.ChatModel
	language     *LanguageService
	expander     *retrieval.Expander
	prompts      *PromptBuilder
	conversation *Conversation
	cache        *expirable.LRU[string, Answer]
	cfg          PipelineConfig
	logger       *slog.Logger
}

// NewPipeline wires together the components needed to answer questions.
// All collaborators are injected; tests substitute fakes.
func NewPipeline(
	embedder domain.EmbeddingProvider,
	store domain.VectorStore,
	chat domain.ChatModel,
	language *LanguageService,
	expander *retrieval.Expander,
	prompts *PromptBuilder,
	cfg PipelineConfig,
	logger *slog.Logger,
) *Pipeline {
	var cache *expirable.LRU[string, Answer]
	if cfg.CacheSize > 0 {
		cache = expirable.NewLRU[string, Answer](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return &Pipeline{
		embedder:     embedder,
		store:        store,
		chat:         chat,
		language:     language,
		expander:     expander,
		prompts:      prompts,
		conversation: NewConversation(),
		cache:        cache,
		cfg:          cfg,
		logger:       logger,
	}
}

// Ask answers a question, updating the conversation state. Callers receive
// either a well-formed Answer or an error, never a partial result.
func (p *Pipeline) Ask(ctx context.Context, question string) (*Answer, error) {
	debug, err := p.run(ctx, question, false)
	if err != nil {
		return nil, err
	}
	return &debug.Answer, nil
}

// AskDebug is Ask plus the pipeline internals: expansion queries, bounded
// pre-filter and post-rerank candidate lists, and the exact prompt sent.
func (p *Pipeline) AskDebug(ctx context.Context, question string) (*AskDebug, error) {
	return p.run(ctx, question, true)
}

// ResetConversation clears the turn log back to empty.
func (p *Pipeline) ResetConversation() {
	p.conversation.Reset()
	p.logger.Info("conversation_reset")
}

// ConversationHistory returns a snapshot of the stored turns.
func (p *Pipeline) ConversationHistory() []domain.Message {
	return p.conversation.History()
}

// PromptVersion returns the active prompt template version.
func (p *Pipeline) PromptVersion() string {
	return p.prompts.Version()
}

func (p *Pipeline) run(ctx context.Context, question string, debug bool) (*AskDebug, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question is required")
	}

	requestID := uuid.NewString()
	start := time.Now()

	lang := p.language.Detect(question)
	indexQuestion := question
	if lang != IndexLanguage {
		indexQuestion = p.language.ToIndexLanguage(ctx, question, lang)
		p.logger.Info("question_translated",
			slog.String("request_id", requestID),
			slog.String("language", lang))
	}

	// Cached answers are only valid for the first turn: later answers
	// depend on conversation history.
	cacheKey := lang + "\x00" + strings.TrimSpace(indexQuestion)
	if !debug && p.cache != nil && p.conversation.Len() == 0 {
		if cached, ok := p.cache.Get(cacheKey); ok {
			p.logger.Info("answer_cache_hit",
				slog.String("request_id", requestID))
			p.conversation.Append(domain.RoleUser, question)
			p.conversation.Append(domain.RoleAssistant, cached.Text)
			return &AskDebug{Answer: cached, RequestID: requestID}, nil
		}
	}

	queries := p.expander.Expand(ctx, indexQuestion)

	topK := p.cfg.TopK
	if topK < 1 {
		topK = 1
	}
	multiplier := p.cfg.RetrievalMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	retrievalK := topK * multiplier
	ranked := retrieval.Aggregate(ctx, queries, p.embedder, p.store, retrievalK, p.logger)
	if len(ranked) == 0 {
		p.logger.Warn("no_candidates_retrieved",
			slog.String("request_id", requestID),
			slog.Int("query_count", len(queries)))
		return &AskDebug{
			Answer:           Answer{Text: noResultsAnswer, Sources: []Source{}},
			RequestID:        requestID,
			DetectedLanguage: lang,
			IndexQuestion:    indexQuestion,
			ExpandedQueries:  queries,
			PromptVersion:    p.prompts.Version(),
		}, nil
	}

	filtered := retrieval.Filter(ranked, p.cfg.SimilarityThreshold, topK, p.cfg.ThresholdFallback, p.logger)
	if len(filtered) == 0 {
		// Fallback disabled and nothing cleared the threshold: answering
		// anyway would ground the model on an empty context.
		p.logger.Warn("no_candidates_above_threshold",
			slog.String("request_id", requestID),
			slog.Float64("threshold", p.cfg.SimilarityThreshold),
			slog.Int("candidate_count", len(ranked)))
		out := &AskDebug{
			Answer:           Answer{Text: noResultsAnswer, Sources: []Source{}},
			RequestID:        requestID,
			DetectedLanguage: lang,
			IndexQuestion:    indexQuestion,
			ExpandedQueries:  queries,
			PromptVersion:    p.prompts.Version(),
		}
		if debug {
			out.PreFilter = boundCandidates(ranked, debugMaxCandidates)
		}
		return out, nil
	}

	reranked := filtered
	if p.cfg.RerankingEnabled {
		reranked = retrieval.Rerank(ctx, p.chat, indexQuestion, filtered, p.logger)
	}

	languageName := LanguageName(lang)
	contextText := BuildContext(reranked)
	messages := p.prompts.Build(indexQuestion, contextText, languageName, p.conversation.History())

	indexAnswer, err := p.chat.Complete(ctx, messages, domain.CompletionOptions{
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	indexAnswer = strings.TrimSpace(indexAnswer)

	finalAnswer := indexAnswer
	if lang != IndexLanguage {
		finalAnswer = p.language.FromIndexLanguage(ctx, indexAnswer, lang, languageName)
	}

	firstTurn := p.conversation.Len() == 0
	p.conversation.Append(domain.RoleUser, question)
	p.conversation.Append(domain.RoleAssistant, finalAnswer)

	answer := Answer{
		Text:    finalAnswer,
		Sources: buildSources(reranked),
	}
	if p.cache != nil && firstTurn {
		p.cache.Add(cacheKey, answer)
	}

	p.logger.Info("answer_generated",
		slog.String("request_id", requestID),
		slog.String("language", lang),
		slog.Int("source_count", len(answer.Sources)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	out := &AskDebug{
		Answer:           answer,
		RequestID:        requestID,
		DetectedLanguage: lang,
		IndexQuestion:    indexQuestion,
		PromptVersion:    p.prompts.Version(),
	}
	if debug {
		out.ExpandedQueries = queries
		out.PreFilter = boundCandidates(ranked, debugMaxCandidates)
		out.PostRerank = boundCandidates(reranked, debugMaxCandidates)
		out.Prompt = boundMessages(messages, debugMaxPromptChars)
	}
	return out, nil
}

func buildSources(candidates []retrieval.Candidate) []Source {
	sources := make([]Source, 0, len(candidates))
	for _, c := range candidates {
		sources = append(sources, Source{
			Title:   SourceTitle(c.Metadata),
			ID:      c.ID,
			Score:   c.Score,
			Excerpt: excerpt(c.Text, sourceExcerptLimit),
		})
	}
	return sources
}

// excerpt returns the first limit runes of text, with an ellipsis marker
// when truncated.
func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func boundCandidates(candidates []retrieval.Candidate, max int) []retrieval.Candidate {
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	out := make([]retrieval.Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].Text = excerpt(out[i].Text, debugMaxPromptChars)
	}
	return out
}

func boundMessages(messages []domain.Message, limit int) []domain.Message {
	out := make([]domain.Message, len(messages))
	copy(out, messages)
	for i := range out {
		out[i].Content = excerpt(out[i].Content, limit)
	}
	return out
}
