package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/finwell/finwell/internal/auth"
	"github.com/finwell/finwell/internal/flow"
	"github.com/finwell/finwell/internal/handler/dto"
	"github.com/finwell/finwell/internal/metrics"
	"github.com/finwell/finwell/internal/model"
)

// BudgetHandler handles the four-step budget flow.
type BudgetHandler struct {
	flow    *flow.BudgetFlow
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(f *flow.BudgetFlow, rec metrics.Recorder, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{flow: f, metrics: rec, logger: logger}
}

// Step1 handles POST /api/v1/budget/steps/1.
func (h *BudgetHandler) Step1(w http.ResponseWriter, r *http.Request) {
	var req flow.BudgetStep1
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

// Step2 handles POST /api/v1/budget/steps/2.
func (h *BudgetHandler) Step2(w http.ResponseWriter, r *http.Request) {
	var req dto.BudgetStep2Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	if err := h.flow.SaveStep2(r.Context(), sess.SessionID, req.MonthlyIncome); err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StepResponse{Status: "ok", NextStep: 3})
}

// Step3 handles POST /api/v1/budget/steps/3.
func (h *BudgetHandler) Step3(w http.ResponseWriter, r *http.Request) {
	var req flow.BudgetStep3
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	if err := h.flow.SaveStep3(r.Context(), sess.SessionID, req); err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StepResponse{Status: "ok", NextStep: 4})
}

// Complete handles POST /api/v1/budget. The savings goal is the last
// input; the flow materializes the budget record.
func (h *BudgetHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req dto.BudgetStep4Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	rec, err := h.flow.CompleteStep4(r.Context(), sess.SessionID, sess.Lang, req.SavingsGoal)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}

	h.metrics.IncRecordCreated(string(model.KindBudget))
	h.logger.Info("budget_created", "record_id", rec.ID)
	writeJSON(w, http.StatusCreated, dto.ToRecordResponse(rec))
}

// Latest handles GET /api/v1/budget/latest.
func (h *BudgetHandler) Latest(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())
	rec, err := h.flow.Latest(r.Context(), sess.SessionID)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "RECORD_NOT_FOUND", "No budget yet for this session")
		return
	}
	writeJSON(w, http.StatusOK, dto.ToRecordResponse(rec))
}
