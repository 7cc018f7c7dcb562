package retrieval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"transcript-qa/internal/domain"
	"transcript-qa/internal/usecase/retrieval"
)

func TestAggregate_MergesMaxScorePerID(t *testing.T) {
	embedder := new(mockEmbedder)
	store := new(mockVectorStore)

	vecA := []float32{0.1}
	vecB := []float32{0.2}
	embedder.On("Embed", mock.Anything, "query a").Return(vecA, nil)
	embedder.On("Embed", mock.Anything, "query b").Return(vecB, nil)

	store.On("Search", mock.Anything, vecA, 4).Return([]domain.Match{
		{ID: "c1", Score: 0.9, Text: "chunk one"},
		{ID: "c2", Score: 0.5, Text: "chunk two"},
	}, nil)
	store.On("Search", mock.Anything, vecB, 4).Return([]domain.Match{
		{ID: "c2", Score: 0.8, Text: "chunk two"},
		{ID: "c3", Score: 0.4, Text: "chunk three"},
	}, nil)

	candidates := retrieval.Aggregate(context.Background(),
		[]string{"query a", "query b"}, embedder, store, 4, testLogger())

	assert.Len(t, candidates, 3)
	assert.Equal(t, "c1", candidates[0].ID)
	assert.Equal(t, "c2", candidates[1].ID)
	assert.InDelta(t, 0.8, candidates[1].Score, 1e-9)
	assert.Equal(t, "c3", candidates[2].ID)
}

func TestAggregate_StableTieOrder(t *testing.T) {
	embedder := new(mockEmbedder)
	store := new(mockVectorStore)

	vec := []float32{0.1}
	embedder.On("Embed", mock.Anything, "only query").Return(vec, nil)
	store.On("Search", mock.Anything, vec, 3).Return([]domain.Match{
		{ID: "first", Score: 0.7},
		{ID: "second", Score: 0.7},
		{ID: "third", Score: 0.7},
	}, nil)

	candidates := retrieval.Aggregate(context.Background(),
		[]string{"only query"}, embedder, store, 3, testLogger())

	assert.Equal(t, []string{"first", "second", "third"},
		[]string{candidates[0].ID, candidates[1].ID, candidates[2].ID})
}

func TestAggregate_PartialQueryFailureIsIsolated(t *testing.T) {
	embedder := new(mockEmbedder)
	store := new(mockVectorStore)

	vecB := []float32{0.2}
	embedder.On("Embed", mock.Anything, "broken query").Return(nil, errors.New("embedding service down"))
	embedder.On("Embed", mock.Anything, "working query").Return(vecB, nil)
	store.On("Search", mock.Anything, vecB, 2).Return([]domain.Match{
		{ID: "c1", Score: 0.6},
	}, nil)

	candidates := retrieval.Aggregate(context.Background(),
		[]string{"broken query", "working query"}, embedder, store, 2, testLogger())

	assert.Len(t, candidates, 1)
	assert.Equal(t, "c1", candidates[0].ID)
}

func TestAggregate_AllQueriesFailReturnsEmpty(t *testing.T) {
	embedder := new(mockEmbedder)
	store := new(mockVectorStore)

	vec := []float32{0.1}
	embedder.On("Embed", mock.Anything, mock.Anything).Return(vec, nil)
	store.On("Search", mock.Anything, vec, 5).Return(nil, errors.New("store unreachable"))

	candidates := retrieval.Aggregate(context.Background(),
		[]string{"q1", "q2"}, embedder, store, 5, testLogger())

	assert.Empty(t, candidates)
}

func TestAggregate_RepeatedQueryIsIdempotent(t *testing.T) {
	embedder := new(mockEmbedder)
	store := new(mockVectorStore)

	vec := []float32{0.3}
	embedder.On("Embed", mock.Anything, "same query").Return(vec, nil)
	store.On("Search", mock.Anything, vec, 3).Return([]domain.Match{
		{ID: "c1", Score: 0.9},
		{ID: "c2", Score: 0.4},
	}, nil)

	candidates := retrieval.Aggregate(context.Background(),
		[]string{"same query", "same query"}, embedder, store, 3, testLogger())

	assert.Len(t, candidates, 2)
	assert.Equal(t, "c1", candidates[0].ID)
	assert.Equal(t, "c2", candidates[1].ID)
}
