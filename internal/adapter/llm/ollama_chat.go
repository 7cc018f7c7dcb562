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

type ollamaChatRequest struct {
	Model     string                 `json:"model"`
	Messages  []chatMessage          `json:"messages"`
	Stream    bool                   `json:"stream"`
	KeepAlive int                    `json:"keep_alive"`
	Options   map[string]interface{} `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// OllamaChat sends chat messages to Ollama's chat endpoint. Used for local
// deployments where no hosted completion provider is available.
type OllamaChat struct {
	BaseURL string
	Model   string
	client  *http.Client
}

// NewOllamaChat constructs a chat client for the given Ollama endpoint.
func NewOllamaChat(baseURL, model string, client *http.Client) *OllamaChat {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &OllamaChat{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  client,
	}
}

// Complete sends the messages and returns the assistant message text.
func (o *OllamaChat) Complete(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (string, error) {
	reqBody := ollamaChatRequest{
		Model:     o.Model,
		Messages:  toChatMessages(messages),
		Stream:    false,
		KeepAlive: -1,
		Options: map[string]interface{}{
			"temperature": opts.Temperature,
		},
	}
	if opts.MaxTokens > 0 {
		reqBody.Options["num_predict"] = opts.MaxTokens
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, truncateString(string(body), 500))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	return chatResp.Message.Content, nil
}

// Name returns the provider/model identifier.
func (o *OllamaChat) Name() string {
	return "ollama/" + o.Model
}

var _ domain.ChatModel = (*OllamaChat)(nil)
