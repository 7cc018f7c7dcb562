package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcript-qa/internal/adapter/httpapi"
	"transcript-qa/internal/domain"
	"transcript-qa/internal/usecase"
	"transcript-qa/internal/usecase/retrieval"
)

type stubChat struct {
	answer string
}

func (s *stubChat) Complete(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (string, error) {
	return s.answer, nil
}

func (s *stubChat) Name() string { return "stub-chat" }

type stubEmbedder struct{}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (s *stubEmbedder) Name() string { return "stub-embedder" }

type stubStore struct {
	matches []domain.Match
}

func (s *stubStore) Search(ctx context.Context, vector []float32, k int) ([]domain.Match, error) {
	return s.matches, nil
}

func (s *stubStore) Name() string { return "stub-store" }

func testSessions() *httpapi.Sessions {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	chat := &stubChat{answer: "stub answer"}
	store := &stubStore{matches: []domain.Match{
		{ID: "c1", Score: 0.9, Text: "a passage", Metadata: map[string]string{"title": "Episode"}},
	}}
	cfg := usecase.PipelineConfig{
		TopK:                3,
		RetrievalMultiplier: 2,
		SimilarityThreshold: 0.3,
		ThresholdFallback:   true,
		Temperature:         0.7,
		MaxTokens:           256,
		HistoryLimit:        10,
	}
	return httpapi.NewSessions(func() *usecase.Pipeline {
		language := usecase.NewLanguageService(nil, chat, log)
		expander := retrieval.NewExpander(chat, false, log)
		prompts := usecase.NewPromptBuilder(usecase.ActivePrompt(), cfg.HistoryLimit)
		return usecase.NewPipeline(&stubEmbedder{}, store, chat, language, expander, prompts, cfg, log)
	})
}

func newTestServer() *echo.Echo {
	e := echo.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := httpapi.NewHandler(testSessions(), log)
	handler.Register(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAsk_ReturnsAnswerAndConversationID(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/v1/ask", `{"question": "why do we sleep?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "stub answer", resp["answer"])
	assert.NotEmpty(t, resp["conversation_id"])
	assert.NotEmpty(t, resp["prompt_version"])
	assert.NotEmpty(t, resp["sources"])
}

func TestAsk_EmptyQuestionIsBadRequest(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/v1/ask", `{"question": "  "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_ContinuesExistingConversation(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/v1/ask", `{"question": "first question"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	conversationID := first["conversation_id"].(string)

	rec = doJSON(e, http.MethodPost, "/v1/ask",
		`{"question": "second question", "conversation_id": "`+conversationID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/v1/conversations/"+conversationID+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	turns := history["turns"].([]interface{})
	assert.Len(t, turns, 4)
}

func TestHistory_UnknownConversationIsNotFound(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodGet, "/v1/conversations/nope/history", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteConversation(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/v1/ask", `{"question": "a question"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	conversationID := resp["conversation_id"].(string)

	rec = doJSON(e, http.MethodDelete, "/v1/conversations/"+conversationID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/v1/conversations/"+conversationID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAskDebug_IncludesInternals(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/v1/ask/debug", `{"question": "why do we sleep?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	debug := resp["debug"].(map[string]interface{})
	assert.NotEmpty(t, debug["request_id"])
	assert.NotEmpty(t, debug["expanded_queries"])

	// The answer and sources appear once, at the top level only.
	assert.Equal(t, "stub answer", resp["answer"])
	_, answerDuplicated := debug["answer"]
	assert.False(t, answerDuplicated)
	_, sourcesDuplicated := debug["sources"]
	assert.False(t, sourcesDuplicated)
}

func TestPrompts_ListsVersions(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodGet, "/v1/prompts", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	versions := resp["versions"].([]interface{})
	assert.NotEmpty(t, versions)
}

func TestHealth(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
