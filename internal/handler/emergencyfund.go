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

// EmergencyFundHandler handles the four-step emergency fund flow.
type EmergencyFundHandler struct {
	flow    *flow.EmergencyFundFlow
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewEmergencyFundHandler creates a new EmergencyFundHandler.
func NewEmergencyFundHandler(f *flow.EmergencyFundFlow, rec metrics.Recorder, logger *slog.Logger) *EmergencyFundHandler {
	return &EmergencyFundHandler{flow: f, metrics: rec, logger: logger}
}

// Step1 handles POST /api/v1/emergency-fund/steps/1.
func (h *EmergencyFundHandler) Step1(w http.ResponseWriter, r *http.Request) {
	var req flow.EmergencyFundStep1
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

// Step2 handles POST /api/v1/emergency-fund/steps/2.
func (h *EmergencyFundHandler) Step2(w http.ResponseWriter, r *http.Request) {
	var req flow.EmergencyFundStep2
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

// Step3 handles POST /api/v1/emergency-fund/steps/3.
func (h *EmergencyFundHandler) Step3(w http.ResponseWriter, r *http.Request) {
	var req flow.EmergencyFundStep3
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

// Complete handles POST /api/v1/emergency-fund. The target timeline is
// the last input; the flow materializes the fund plan record.
func (h *EmergencyFundHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req dto.EmergencyFundStep4Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	rec, err := h.flow.CompleteStep4(r.Context(), sess.SessionID, sess.Lang, req.TimelineMonths)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}

	h.metrics.IncRecordCreated(string(model.KindEmergencyFund))
	h.logger.Info("emergency_fund_created", "record_id", rec.ID)
	writeJSON(w, http.StatusCreated, dto.ToRecordResponse(rec))
}

// Unsubscribe handles GET /api/v1/emergency-fund/unsubscribe.
func (h *EmergencyFundHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "MISSING_EMAIL", "query parameter 'email' is required")
		return
	}

	updated, err := h.flow.Unsubscribe(r.Context(), email)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UnsubscribeResponse{Updated: updated})
}
