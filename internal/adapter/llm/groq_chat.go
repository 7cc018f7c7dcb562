package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"transcript-qa/internal/domain"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GroqChat sends chat completions to an OpenAI-compatible endpoint (Groq by
// default). A client-side rate limiter paces requests so query expansion,
// reranking, and generation on the same key do not trip provider limits.
type GroqChat struct {
	BaseURL string
	Model   string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewGroqChat constructs a chat client. The API key is required: a missing
// key is a fatal misconfiguration surfaced at startup, not per request.
// requestsPerSecond <= 0 disables client-side pacing.
func NewGroqChat(baseURL, apiKey, model string, requestsPerSecond float64, client *http.Client, logger *slog.Logger) (*GroqChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &GroqChat{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		apiKey:  apiKey,
		client:  client,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Complete sends the messages and returns the first completion's text.
func (g *GroqChat) Complete(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	start := time.Now()

	reqBody := chatCompletionRequest{
		Model:       g.Model,
		Messages:    toChatMessages(messages),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", g.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, truncateString(string(body), 500))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat endpoint returned no completions")
	}

	g.logger.Debug("chat_completion_finished",
		slog.String("model", g.Model),
		slog.Int("message_count", len(messages)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return completion.Choices[0].Message.Content, nil
}

// Name returns the provider/model identifier.
func (g *GroqChat) Name() string {
	return "groq/" + g.Model
}

func toChatMessages(messages []domain.Message) []chatMessage {
	out := make([]chatMessage, len(messages))
	for i, m := range messages {
		out[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

func truncateString(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

var _ domain.ChatModel = (*GroqChat)(nil)
