package retrieval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"transcript-qa/internal/usecase/retrieval"
)

func TestFilter_ThresholdAndTopK(t *testing.T) {
	ranked := []retrieval.Candidate{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.7},
		{ID: "c", Score: 0.3},
	}

	kept := retrieval.Filter(ranked, 0.5, 2, true, testLogger())

	assert.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ID)
	assert.Equal(t, "b", kept[1].ID)
}

func TestFilter_TopKCapsPassingCandidates(t *testing.T) {
	ranked := []retrieval.Candidate{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.8},
		{ID: "c", Score: 0.7},
	}

	kept := retrieval.Filter(ranked, 0.5, 2, true, testLogger())

	assert.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ID)
	assert.Equal(t, "b", kept[1].ID)
}

func TestFilter_FallbackKeepsTopCandidates(t *testing.T) {
	ranked := []retrieval.Candidate{
		{ID: "a", Score: 0.2},
		{ID: "b", Score: 0.1},
	}

	kept := retrieval.Filter(ranked, 0.6, 5, true, testLogger())

	assert.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ID)
	assert.Equal(t, "b", kept[1].ID)
}

func TestFilter_NoFallbackReturnsNothing(t *testing.T) {
	ranked := []retrieval.Candidate{
		{ID: "a", Score: 0.2},
		{ID: "b", Score: 0.1},
	}

	kept := retrieval.Filter(ranked, 0.6, 5, false, testLogger())

	assert.Empty(t, kept)
}

func TestFilter_EmptyInput(t *testing.T) {
	assert.Empty(t, retrieval.Filter(nil, 0.5, 5, true, testLogger()))
}

func TestFilter_FallbackDoesNotMutateInput(t *testing.T) {
	ranked := []retrieval.Candidate{
		{ID: "a", Score: 0.2},
		{ID: "b", Score: 0.1},
		{ID: "c", Score: 0.05},
	}

	kept := retrieval.Filter(ranked, 0.9, 2, true, testLogger())
	kept[0].ID = "mutated"

	assert.Equal(t, "a", ranked[0].ID)
	assert.Len(t, kept, 2)
}
