package domain

import "context"

// CompletionOptions carries per-call generation parameters.
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

// ChatModel defines the capability to send chat messages to an LLM and
// receive the first completion's text.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)

	// Name returns the provider/model identifier for logging.
	Name() string
}
