package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/finwell/finwell/internal/auth"
	"github.com/finwell/finwell/internal/flow"
	"github.com/finwell/finwell/internal/handler/dto"
)

// LearningHandler handles the learning hub endpoints.
type LearningHandler struct {
	svc    *flow.LearningService
	logger *slog.Logger
}

// NewLearningHandler creates a new LearningHandler.
func NewLearningHandler(svc *flow.LearningService, logger *slog.Logger) *LearningHandler {
	return &LearningHandler{svc: svc, logger: logger}
}

// Courses handles GET /api/v1/learning/courses.
func (h *LearningHandler) Courses(w http.ResponseWriter, r *http.Request) {
	courses := h.svc.Courses()
	out := make([]dto.CourseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, dto.ToCourseResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// CompleteLesson handles POST /api/v1/learning/lessons/complete.
func (h *LearningHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	var req flow.CompleteLessonInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	progress, err := h.svc.CompleteLesson(r.Context(), sess.SessionID, sess.Lang, req)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToProgressResponse(progress))
}

// QuizScore handles POST /api/v1/learning/quiz-scores.
func (h *LearningHandler) QuizScore(w http.ResponseWriter, r *http.Request) {
	var req dto.QuizScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	progress, err := h.svc.RecordQuizScore(r.Context(), sess.SessionID, sess.Lang, req.CourseID, req.QuizID, req.Score)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToProgressResponse(progress))
}

// Progress handles GET /api/v1/learning/progress.
func (h *LearningHandler) Progress(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())
	items, err := h.svc.Progress(r.Context(), sess.SessionID)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}

	out := make([]dto.ProgressResponse, 0, len(items))
	for _, p := range items {
		out = append(out, dto.ToProgressResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}
