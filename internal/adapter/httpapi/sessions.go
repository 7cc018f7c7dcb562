package httpapi

import (
	"sync"

	"github.com/google/uuid"

	"transcript-qa/internal/usecase"
)

// Sessions maps conversation ids to their pipelines. Each conversation
// owns one pipeline so its history never leaks into another session.
type Sessions struct {
	mu          sync.Mutex
	byID        map[string]*usecase.Pipeline
	newPipeline func() *usecase.Pipeline
}

func NewSessions(newPipeline func() *usecase.Pipeline) *Sessions {
	return &Sessions{
		byID:        make(map[string]*usecase.Pipeline),
		newPipeline: newPipeline,
	}
}

// Get returns the pipeline for the given conversation id, creating one
// when the id is empty or unknown. The returned id identifies the
// conversation the caller should continue with.
func (s *Sessions) Get(conversationID string) (string, *usecase.Pipeline) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversationID != "" {
		if pipeline, ok := s.byID[conversationID]; ok {
			return conversationID, pipeline
		}
	}

	id := conversationID
	if id == "" {
		id = uuid.NewString()
	}
	pipeline := s.newPipeline()
	s.byID[id] = pipeline
	return id, pipeline
}

// Lookup returns the pipeline for an existing conversation, without
// creating one.
func (s *Sessions) Lookup(conversationID string) (*usecase.Pipeline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pipeline, ok := s.byID[conversationID]
	return pipeline, ok
}

// Delete removes a conversation and reports whether it existed.
func (s *Sessions) Delete(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[conversationID]; !ok {
		return false
	}
	delete(s.byID, conversationID)
	return true
}
