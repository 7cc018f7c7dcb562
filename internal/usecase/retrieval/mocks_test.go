package retrieval_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"transcript-qa/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockChatModel struct {
	mock.Mock
}

func (m *mockChatModel) Complete(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

func (m *mockChatModel) Name() string {
	return "mock-chat"
}

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *mockEmbedder) Name() string {
	return "mock-embedder"
}

type mockVectorStore struct {
	mock.Mock
}

func (m *mockVectorStore) Search(ctx context.Context, vector []float32, k int) ([]domain.Match, error) {
	args := m.Called(ctx, vector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Match), args.Error(1)
}

func (m *mockVectorStore) Name() string {
	return "mock-store"
}
