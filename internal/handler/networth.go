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

// NetWorthHandler handles the three-step net worth flow.
type NetWorthHandler struct {
	flow    *flow.NetWorthFlow
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewNetWorthHandler creates a new NetWorthHandler.
func NewNetWorthHandler(f *flow.NetWorthFlow, rec metrics.Recorder, logger *slog.Logger) *NetWorthHandler {
	return &NetWorthHandler{flow: f, metrics: rec, logger: logger}
}

// Step1 handles POST /api/v1/networth/steps/1.
func (h *NetWorthHandler) Step1(w http.ResponseWriter, r *http.Request) {
	var req flow.NetWorthStep1
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

// Step2 handles POST /api/v1/networth/steps/2.
func (h *NetWorthHandler) Step2(w http.ResponseWriter, r *http.Request) {
	var req flow.NetWorthStep2
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

// Complete handles POST /api/v1/networth. Liabilities are the last
// input; the flow materializes the net worth record.
func (h *NetWorthHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req dto.NetWorthStep3Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	rec, err := h.flow.CompleteStep3(r.Context(), sess.SessionID, sess.Lang, req.Loans)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}

	h.metrics.IncRecordCreated(string(model.KindNetWorth))
	h.logger.Info("net_worth_created", "record_id", rec.ID)
	writeJSON(w, http.StatusCreated, dto.ToRecordResponse(rec))
}

// Unsubscribe handles GET /api/v1/networth/unsubscribe.
func (h *NetWorthHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
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
