package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"transcript-qa/internal/domain"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// OpenAIEmbedder generates embeddings through an OpenAI-compatible
// embeddings endpoint.
type OpenAIEmbedder struct {
	BaseURL string
	Model   string
	apiKey  string
	client  *http.Client
}

// NewOpenAIEmbedder constructs an embedder. The API key is required.
func NewOpenAIEmbedder(baseURL, apiKey, model string, client *http.Client) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &OpenAIEmbedder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		apiKey:  apiKey,
		client:  client,
	}, nil
}

// Embed returns the embedding vector for one text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

// EmbedBatch returns one embedding vector per input text, in input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(openAIEmbedRequest{Model: e.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/embeddings", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embed endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed endpoint returned %d: %s", resp.StatusCode, truncateString(string(body), 500))
	}

	var embedResp openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(embedResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embedResp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range embedResp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("invalid embedding index %d for %d inputs", d.Index, len(texts))
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Name returns the embedding model identifier.
func (e *OpenAIEmbedder) Name() string {
	return "openai/" + e.Model
}

var _ domain.EmbeddingProvider = (*OpenAIEmbedder)(nil)
