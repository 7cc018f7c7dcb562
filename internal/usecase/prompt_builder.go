package usecase

import (
	"fmt"
	"strings"

	"transcript-qa/internal/domain"
	"transcript-qa/internal/usecase/retrieval"
)

// Metadata key fallbacks for a candidate's display title; different
// ingestion paths store the episode title under different keys.
var titleMetadataKeys = []string{"title", "episode_name"}

// SourceTitle resolves a display title from candidate metadata.
func SourceTitle(metadata map[string]string) string {
	for _, key := range titleMetadataKeys {
		if v := metadata[key]; v != "" {
			return v
		}
	}
	return "Unknown"
}

// BuildContext concatenates the filtered candidates into the grounding
// context string: each passage tagged with its episode title, in filtered
// order, separated by a blank line.
func BuildContext(candidates []retrieval.Candidate) string {
	var sb strings.Builder
	for i, c := range candidates {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("From episode '%s':\n%s", SourceTitle(c.Metadata), c.Text))
	}
	return sb.String()
}

// PromptBuilder assembles the chat messages for one question: the versioned
// system template with grounding context interpolated, the bounded
// conversation history, then the question through the human template.
type PromptBuilder struct {
	template     PromptTemplate
	historyLimit int
}

// NewPromptBuilder creates a builder for one template version. historyLimit
// bounds how many of the most recent turns are included per prompt; zero or
// negative means no history is included.
func NewPromptBuilder(template PromptTemplate, historyLimit int) *PromptBuilder {
	return &PromptBuilder{
		template:     template,
		historyLimit: historyLimit,
	}
}

// Version returns the template version the builder renders.
func (b *PromptBuilder) Version() string {
	return b.template.Version
}

// Build renders the full message sequence. languageName fills the
// {language} placeholder when the template declares one.
func (b *PromptBuilder) Build(question, contextText, languageName string, history []domain.Message) []domain.Message {
	system := strings.ReplaceAll(b.template.System, "{context}", contextText)
	if strings.Contains(b.template.System, "{language}") {
		system = strings.ReplaceAll(system, "{language}", languageName)
	}

	recent := tailTurns(history, b.historyLimit)

	messages := make([]domain.Message, 0, len(recent)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: system})
	messages = append(messages, recent...)
	messages = append(messages, domain.Message{
		Role:    domain.RoleUser,
		Content: strings.ReplaceAll(b.template.Human, "{question}", question),
	})
	return messages
}

// tailTurns returns the most recent limit turns in original order.
func tailTurns(turns []domain.Message, limit int) []domain.Message {
	if limit <= 0 {
		return nil
	}
	if len(turns) <= limit {
		return turns
	}
	return turns[len(turns)-limit:]
}
