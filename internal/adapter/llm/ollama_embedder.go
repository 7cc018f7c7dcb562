package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"transcript-qa/internal/domain"
)

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// OllamaEmbedder generates embeddings through Ollama's embed endpoint.
type OllamaEmbedder struct {
	BaseURL string
	Model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewOllamaEmbedder constructs an embedder for the given Ollama endpoint.
func NewOllamaEmbedder(baseURL, model string, client *http.Client, logger *slog.Logger) *OllamaEmbedder {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &OllamaEmbedder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  client,
		logger:  logger,
	}
}

// Embed returns the embedding vector for one text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

// EmbedBatch returns one embedding vector per input text.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()

	payload, err := json.Marshal(embedRequest{Model: e.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embed", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embed endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed endpoint returned %d", resp.StatusCode)
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(embedResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embedResp.Embeddings))
	}

	e.logger.Debug("embed_completed",
		slog.String("model", e.Model),
		slog.Int("text_count", len(texts)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return embedResp.Embeddings, nil
}

// Name returns the embedding model identifier.
func (e *OllamaEmbedder) Name() string {
	return "ollama/" + e.Model
}

var _ domain.EmbeddingProvider = (*OllamaEmbedder)(nil)
