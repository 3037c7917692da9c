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

// FinancialHealthHandler handles the three-step health score flow.
type FinancialHealthHandler struct {
	flow    *flow.FinancialHealthFlow
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewFinancialHealthHandler creates a new FinancialHealthHandler.
func NewFinancialHealthHandler(f *flow.FinancialHealthFlow, rec metrics.Recorder, logger *slog.Logger) *FinancialHealthHandler {
	return &FinancialHealthHandler{flow: f, metrics: rec, logger: logger}
}

// Step1 handles POST /api/v1/financial-health/steps/1.
func (h *FinancialHealthHandler) Step1(w http.ResponseWriter, r *http.Request) {
	var req flow.FinancialHealthStep1
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

// Step2 handles POST /api/v1/financial-health/steps/2.
func (h *FinancialHealthHandler) Step2(w http.ResponseWriter, r *http.Request) {
	var req flow.FinancialHealthStep2
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	if err := h.flow.SaveStep2(r.Context(), sess.SessionID, req); err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StepResponse{Status: "ok", NextStep: 3})
}

// Complete handles POST /api/v1/financial-health. The debt profile is
// the last input; the flow computes the score and materializes it.
func (h *FinancialHealthHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req flow.FinancialHealthStep3
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	rec, err := h.flow.CompleteStep3(r.Context(), sess.SessionID, sess.Lang, req)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}

	h.metrics.IncRecordCreated(string(model.KindFinancialHealth))
	h.logger.Info("financial_health_created", "record_id", rec.ID)
	writeJSON(w, http.StatusCreated, dto.ToRecordResponse(rec))
}

// Latest handles GET /api/v1/financial-health/latest.
func (h *FinancialHealthHandler) Latest(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())
	rec, err := h.flow.Latest(r.Context(), sess.SessionID)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "RECORD_NOT_FOUND", "No health score yet for this session")
		return
	}
	writeJSON(w, http.StatusOK, dto.ToRecordResponse(rec))
}
