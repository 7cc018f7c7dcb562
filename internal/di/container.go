package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"transcript-qa/internal/adapter/language"
	"transcript-qa/internal/adapter/llm"
	"transcript-qa/internal/adapter/vectorstore"
	"transcript-qa/internal/domain"
	"transcript-qa/internal/infra"
	"transcript-qa/internal/infra/config"
	"transcript-qa/internal/infra/httpclient"
	"transcript-qa/internal/usecase"
	"transcript-qa/internal/usecase/retrieval"
)

// ApplicationComponents holds the wired dependencies the entry points use.
type ApplicationComponents struct {
	// NewPipeline builds a pipeline with a fresh conversation. Each
	// session gets its own so histories stay isolated; providers are
	// shared.
	NewPipeline func() *usecase.Pipeline

	// Pool is set only when the pgvector store is selected.
	Pool *pgxpool.Pool
}

// NewApplicationComponents wires all dependencies from config.
func NewApplicationComponents(ctx context.Context, cfg *config.Config, log *slog.Logger) (*ApplicationComponents, error) {
	providerHTTP := httpclient.NewPooledClient(time.Duration(cfg.ProviderTimeoutSeconds) * time.Second)

	// Chat model
	var chat domain.ChatModel
	switch cfg.LLMProvider {
	case "groq":
		groq, err := llm.NewGroqChat(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel, cfg.ChatRPS, providerHTTP, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create groq client: %w", err)
		}
		chat = groq
	case "ollama":
		chat = llm.NewOllamaChat(cfg.OllamaURL, cfg.OllamaModel, providerHTTP)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}

	// Embedding provider
	var embedder domain.EmbeddingProvider
	switch cfg.EmbeddingProvider {
	case "openai":
		openai, err := llm.NewOpenAIEmbedder(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, providerHTTP)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai embedder: %w", err)
		}
		embedder = openai
	case "ollama":
		embedder = llm.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, providerHTTP, log)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}

	// Vector store
	var (
		store domain.VectorStore
		pool  *pgxpool.Pool
	)
	switch cfg.VectorStore {
	case "qdrant":
		store = vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantCollection, cfg.QdrantAPIKey, providerHTTP, log)
	case "pgvector":
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		p, err := infra.NewPostgresDB(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to db: %w", err)
		}
		pool = p
		store = vectorstore.NewPgvectorStore(pool, log)
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}

	languageService := usecase.NewLanguageService(language.NewDetector(), chat, log)

	promptTemplate := usecase.ActivePrompt()
	if cfg.PromptVersion != "" {
		t, err := usecase.PromptByVersion(cfg.PromptVersion)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve prompt version: %w", err)
		}
		promptTemplate = t
	}
	promptBuilder := usecase.NewPromptBuilder(promptTemplate, cfg.HistoryLimit)

	pipelineCfg := usecase.PipelineConfig{
		TopK:                cfg.TopK,
		RetrievalMultiplier: cfg.RetrievalMultiplier,
		SimilarityThreshold: cfg.SimilarityThreshold,
		ThresholdFallback:   cfg.ThresholdFallback,
		ExpansionEnabled:    cfg.QueryExpansion,
		RerankingEnabled:    cfg.Reranking,
		Temperature:         cfg.Temperature,
		MaxTokens:           cfg.MaxTokens,
		HistoryLimit:        cfg.HistoryLimit,
		CacheSize:           cfg.CacheSize,
		CacheTTL:            time.Duration(cfg.CacheTTLMinutes) * time.Minute,
	}

	newPipeline := func() *usecase.Pipeline {
		expander := retrieval.NewExpander(chat, cfg.QueryExpansion, log)
		return usecase.NewPipeline(embedder, store, chat, languageService, expander, promptBuilder, pipelineCfg, log)
	}

	log.Info("components_wired",
		slog.String("chat_model", chat.Name()),
		slog.String("embedder", embedder.Name()),
		slog.String("vector_store", store.Name()),
		slog.String("prompt_version", promptBuilder.Version()),
	)

	return &ApplicationComponents{
		NewPipeline: newPipeline,
		Pool:        pool,
	}, nil
}
