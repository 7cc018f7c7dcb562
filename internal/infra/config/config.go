package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env  string
	Port string

	// LLM generation
	LLMProvider string // "groq" or "ollama"
	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string
	OllamaURL   string
	OllamaModel string
	ChatRPS     float64

	// Embeddings
	EmbeddingProvider string // "openai" or "ollama"
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	EmbeddingModel    string

	// Vector store
	VectorStore      string // "qdrant" or "pgvector"
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string

	// Retrieval and answering
	TopK                int
	RetrievalMultiplier int
	SimilarityThreshold float64
	ThresholdFallback   bool
	QueryExpansion      bool
	Reranking           bool
	Temperature         float64
	MaxTokens           int
	HistoryLimit        int
	PromptVersion       string

	// Answer cache
	CacheSize       int
	CacheTTLMinutes int

	ProviderTimeoutSeconds int
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		LLMProvider: getEnv("LLM_PROVIDER", "groq"),
		GroqAPIKey:  getSecret("GROQ_API_KEY", "GROQ_API_KEY_FILE", ""),
		GroqBaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		OllamaURL:   getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: getEnv("OLLAMA_MODEL", "llama3.1"),
		ChatRPS:     getEnvFloat("CHAT_REQUESTS_PER_SECOND", 1),

		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
		OpenAIAPIKey:      getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		VectorStore:      getEnv("VECTOR_STORE", "qdrant"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     getSecret("QDRANT_API_KEY", "QDRANT_API_KEY_FILE", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "transcript_chunks"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "transcript_user"),
		DBPassword:       getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "transcript_password"),
		DBName:           getEnv("DB_NAME", "transcript_db"),

		TopK:                getEnvInt("RAG_TOP_K", 7),
		RetrievalMultiplier: getEnvInt("RAG_RETRIEVAL_MULTIPLIER", 2),
		SimilarityThreshold: getEnvFloat("RAG_SIMILARITY_THRESHOLD", 0.3),
		ThresholdFallback:   getEnvBool("RAG_FALLBACK_ON_EMPTY", true),
		QueryExpansion:      getEnvBool("RAG_QUERY_EXPANSION", true),
		Reranking:           getEnvBool("RAG_RERANKING", false),
		Temperature:         getEnvFloat("RAG_TEMPERATURE", 0.7),
		MaxTokens:           getEnvInt("RAG_MAX_TOKENS", 1024),
		HistoryLimit:        getEnvInt("RAG_HISTORY_LIMIT", 10),
		PromptVersion:       getEnv("RAG_PROMPT_VERSION", ""),

		CacheSize:       getEnvInt("ANSWER_CACHE_SIZE", 256),
		CacheTTLMinutes: getEnvInt("ANSWER_CACHE_TTL_MINUTES", 60),

		ProviderTimeoutSeconds: getEnvInt("PROVIDER_TIMEOUT_SECONDS", 120),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
