package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/finwell/finwell/internal/auth"
	"github.com/finwell/finwell/internal/flow"
	"github.com/finwell/finwell/internal/handler/dto"
	"github.com/finwell/finwell/internal/metrics"
	"github.com/finwell/finwell/internal/model"
)

// QuizHandler handles the personality quiz flow.
type QuizHandler struct {
	flow    *flow.QuizFlow
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(f *flow.QuizFlow, rec metrics.Recorder, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{flow: f, metrics: rec, logger: logger}
}

// Questions handles GET /api/v1/quiz/questions?page={1|2}. Prompts
// come back in the session's language.
func (h *QuizHandler) Questions(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || (page != 1 && page != 2) {
		writeError(w, http.StatusBadRequest, "INVALID_PAGE", "query parameter 'page' must be 1 or 2")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	response := dto.QuestionsResponse{Page: page}
	for _, q := range h.flow.Questions(page) {
		response.Questions = append(response.Questions, dto.QuestionResponse{
			ID:     q.ID,
			Prompt: q.Prompt(sess.Lang),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// Step1 handles POST /api/v1/quiz/steps/1.
func (h *QuizHandler) Step1(w http.ResponseWriter, r *http.Request) {
	var req flow.QuizStep1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	if err := h.flow.SaveStep1(r.Context(), sess.SessionID, req); err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StepResponse{Status: "ok", NextStep: 2})
}

// Answers handles POST /api/v1/quiz/answers/{page}.
func (h *QuizHandler) Answers(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || (page != 1 && page != 2) {
		writeError(w, http.StatusBadRequest, "INVALID_PAGE", "answer page must be 1 or 2")
		return
	}

	var req dto.QuizAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	if err := h.flow.SaveAnswers(r.Context(), sess.SessionID, page, req.Answers); err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StepResponse{Status: "ok", NextStep: page + 2})
}

// Complete handles POST /api/v1/quiz. Scores the answers and
// materializes the result record.
func (h *QuizHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())
	rec, err := h.flow.Complete(r.Context(), sess.SessionID, sess.Lang)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}

	h.metrics.IncRecordCreated(string(model.KindQuizResult))
	h.logger.Info("quiz_completed", "record_id", rec.ID)
	writeJSON(w, http.StatusCreated, dto.ToRecordResponse(rec))
}
