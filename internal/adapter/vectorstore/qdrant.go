package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"transcript-qa/internal/domain"
)

type qdrantSearchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantSearchResponse struct {
	Result []qdrantPoint `json:"result"`
}

type qdrantPoint struct {
	ID      json.RawMessage        `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

// QdrantStore searches a Qdrant collection over its REST API.
type QdrantStore struct {
	baseURL    string
	collection string
	apiKey     string
	client     *http.Client
	logger     *slog.Logger
}

func NewQdrantStore(baseURL, collection, apiKey string, client *http.Client, logger *slog.Logger) *QdrantStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &QdrantStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		apiKey:     apiKey,
		client:     client,
		logger:     logger,
	}
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, k int) ([]domain.Match, error) {
	start := time.Now()

	body, err := json.Marshal(qdrantSearchRequest{
		Vector:      vector,
		Limit:       k,
		WithPayload: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal qdrant search request: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", s.baseURL, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call qdrant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("qdrant search returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var searchResp qdrantSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode qdrant search response: %w", err)
	}

	matches := make([]domain.Match, 0, len(searchResp.Result))
	for _, point := range searchResp.Result {
		match := domain.Match{
			ID:       decodePointID(point.ID),
			Score:    point.Score,
			Metadata: make(map[string]string),
		}
		for key, value := range point.Payload {
			str, ok := value.(string)
			if !ok {
				continue
			}
			if key == "text" {
				match.Text = str
				continue
			}
			match.Metadata[key] = str
		}
		matches = append(matches, match)
	}

	s.logger.Debug("vector_search_finished",
		slog.String("store", s.Name()),
		slog.Int("limit", k),
		slog.Int("matches", len(matches)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return matches, nil
}

func (s *QdrantStore) Name() string {
	return "qdrant/" + s.collection
}

// Qdrant point ids are either unsigned integers or UUID strings.
func decodePointID(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var num uint64
	if err := json.Unmarshal(raw, &num); err == nil {
		return strconv.FormatUint(num, 10)
	}
	return string(raw)
}

var _ domain.VectorStore = (*QdrantStore)(nil)
