package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"transcript-qa/internal/domain"
	"transcript-qa/internal/usecase"
	"transcript-qa/internal/usecase/retrieval"
)

type askRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type askResponse struct {
	Answer         string           `json:"answer"`
	Sources        []usecase.Source `json:"sources"`
	ConversationID string           `json:"conversation_id"`
	PromptVersion  string           `json:"prompt_version"`
}

type askDebugResponse struct {
	askResponse
	Debug askDebugDetails `json:"debug"`
}

// askDebugDetails carries the pipeline internals without repeating the
// answer and sources already present at the top level.
type askDebugDetails struct {
	RequestID        string                `json:"request_id"`
	DetectedLanguage string                `json:"detected_language"`
	IndexQuestion    string                `json:"index_question"`
	ExpandedQueries  []string              `json:"expanded_queries"`
	PreFilter        []retrieval.Candidate `json:"pre_filter"`
	PostRerank       []retrieval.Candidate `json:"post_rerank"`
	Prompt           []domain.Message      `json:"prompt"`
	PromptVersion    string                `json:"prompt_version"`
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type historyResponse struct {
	ConversationID string        `json:"conversation_id"`
	Turns          []historyTurn `json:"turns"`
}

type Handler struct {
	sessions *Sessions
	logger   *slog.Logger
}

func NewHandler(sessions *Sessions, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, logger: logger}
}

// Register mounts all routes on the given echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.POST("/v1/ask", h.Ask)
	e.POST("/v1/ask/debug", h.AskDebug)
	e.GET("/v1/conversations/:id/history", h.History)
	e.DELETE("/v1/conversations/:id", h.DeleteConversation)
	e.GET("/v1/prompts", h.Prompts)
}

func (h *Handler) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Ask(ctx echo.Context) error {
	var req askRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	start := time.Now()
	conversationID, pipeline := h.sessions.Get(req.ConversationID)

	answer, err := pipeline.Ask(ctx.Request().Context(), req.Question)
	if err != nil {
		h.logger.Error("ask_request_failed",
			slog.String("conversation_id", conversationID),
			slog.String("error", err.Error()),
		)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	h.logger.Info("ask_request_finished",
		slog.String("conversation_id", conversationID),
		slog.Int("sources", len(answer.Sources)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return ctx.JSON(http.StatusOK, askResponse{
		Answer:         answer.Text,
		Sources:        answer.Sources,
		ConversationID: conversationID,
		PromptVersion:  pipeline.PromptVersion(),
	})
}

func (h *Handler) AskDebug(ctx echo.Context) error {
	var req askRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	conversationID, pipeline := h.sessions.Get(req.ConversationID)

	debug, err := pipeline.AskDebug(ctx.Request().Context(), req.Question)
	if err != nil {
		h.logger.Error("ask_request_failed",
			slog.String("conversation_id", conversationID),
			slog.String("error", err.Error()),
		)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, askDebugResponse{
		askResponse: askResponse{
			Answer:         debug.Answer.Text,
			Sources:        debug.Answer.Sources,
			ConversationID: conversationID,
			PromptVersion:  pipeline.PromptVersion(),
		},
		Debug: askDebugDetails{
			RequestID:        debug.RequestID,
			DetectedLanguage: debug.DetectedLanguage,
			IndexQuestion:    debug.IndexQuestion,
			ExpandedQueries:  debug.ExpandedQueries,
			PreFilter:        debug.PreFilter,
			PostRerank:       debug.PostRerank,
			Prompt:           debug.Prompt,
			PromptVersion:    debug.PromptVersion,
		},
	})
}

func (h *Handler) History(ctx echo.Context) error {
	id := ctx.Param("id")
	pipeline, ok := h.sessions.Lookup(id)
	if !ok {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
	}

	history := pipeline.ConversationHistory()
	turns := make([]historyTurn, 0, len(history))
	for _, turn := range history {
		turns = append(turns, historyTurn{Role: string(turn.Role), Content: turn.Content})
	}

	return ctx.JSON(http.StatusOK, historyResponse{ConversationID: id, Turns: turns})
}

func (h *Handler) DeleteConversation(ctx echo.Context) error {
	id := ctx.Param("id")
	if !h.sessions.Delete(id) {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) Prompts(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"versions": usecase.ListPromptVersions(),
	})
}
