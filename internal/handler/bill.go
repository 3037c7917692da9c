package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finwell/finwell/internal/auth"
	"github.com/finwell/finwell/internal/flow"
	"github.com/finwell/finwell/internal/handler/dto"
	"github.com/finwell/finwell/internal/metrics"
	"github.com/finwell/finwell/internal/model"
)

// BillHandler handles the bill flow and bill management endpoints.
type BillHandler struct {
	flow    *flow.BillFlow
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(f *flow.BillFlow, rec metrics.Recorder, logger *slog.Logger) *BillHandler {
	return &BillHandler{flow: f, metrics: rec, logger: logger}
}

// Step1 handles POST /api/v1/bills/steps/1.
func (h *BillHandler) Step1(w http.ResponseWriter, r *http.Request) {
	var req flow.BillStep1
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

// Complete handles POST /api/v1/bills. The second step materializes
// the bill record.
func (h *BillHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req flow.BillStep2
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	rec, err := h.flow.CompleteStep2(r.Context(), sess.SessionID, sess.Lang, req)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}

	h.metrics.IncRecordCreated(string(model.KindBill))
	h.logger.Info("bill_created", "record_id", rec.ID)
	writeJSON(w, http.StatusCreated, dto.ToRecordResponse(rec))
}

// List handles GET /api/v1/bills.
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())
	records, err := h.flow.List(r.Context(), sess.SessionID)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToListResponse(records))
}

// Dashboard handles GET /api/v1/bills/dashboard.
func (h *BillHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())
	d, err := h.flow.Dashboard(r.Context(), sess.SessionID, model.Today())
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToDashboardResponse(d))
}

// Toggle handles POST /api/v1/bills/{id}/toggle. Paid flips to unpaid
// and anything else flips to paid; a recurring bill spawns its next
// occurrence when marked paid.
func (h *BillHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Bill ID is required")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	rec, err := h.flow.ToggleStatus(r.Context(), sess.SessionID, id)
	if err != nil {
		handleFlowError(w, h.logger, err)
		return
	}

	h.metrics.IncRecordUpdated(string(model.KindBill))
	writeJSON(w, http.StatusOK, dto.ToRecordResponse(rec))
}

// Delete handles DELETE /api/v1/bills/{id}.
func (h *BillHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Bill ID is required")
		return
	}

	sess := auth.MustSessionFromContext(r.Context())
	if err := h.flow.Delete(r.Context(), sess.SessionID, id); err != nil {
		handleFlowError(w, h.logger, err)
		return
	}

	h.metrics.IncRecordDeleted(string(model.KindBill))
	w.WriteHeader(http.StatusNoContent)
}

// Unsubscribe handles GET /api/v1/bills/unsubscribe. The link is
// embedded in reminder emails, so it works without a session.
func (h *BillHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
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
