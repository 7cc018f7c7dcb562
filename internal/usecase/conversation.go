package usecase

import (
	"sync"

	"transcript-qa/internal/domain"
)

// Conversation is an append-only log of user/assistant turns for one
// session. It grows with each answered question and returns to empty only
// through Reset. The pipeline assumes a single writer per conversation; the
// mutex guards concurrent reads from transport handlers.
type Conversation struct {
	mu    sync.RWMutex
	turns []domain.Message
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append records one turn.
func (c *Conversation) Append(role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, domain.Message{Role: role, Content: content})
}

// History returns a snapshot of all turns in order.
func (c *Conversation) History() []domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Message, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of stored turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Reset clears the conversation back to empty.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}
