package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finwell/finwell/internal/flow"
	"github.com/finwell/finwell/internal/handler/dto"
	"github.com/finwell/finwell/internal/model"
)

func futureDate(days int) string {
	return model.Today().AddDays(days).String()
}

func TestBillHandler_TwoStepFlow(t *testing.T) {
	env := newTestEnv(t)
	h := NewBillHandler(env.flows.Bill, env.metrics, env.logger)

	rec := httptest.NewRecorder()
	h.Step1(rec, request(t, http.MethodPost, "/api/v1/bills/steps/1", "sess-1", flow.BillStep1{
		FirstName: "Aisha",
		Email:     "aisha@example.com",
		BillName:  "Electricity",
		Amount:    "15000",
		DueDate:   futureDate(10),
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("step 1: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var step dto.StepResponse
	if err := json.NewDecoder(rec.Body).Decode(&step); err != nil {
		t.Fatalf("decode step response: %v", err)
	}
	if step.NextStep != 2 {
		t.Errorf("expected next step 2, got %d", step.NextStep)
	}

	rec = httptest.NewRecorder()
	h.Complete(rec, request(t, http.MethodPost, "/api/v1/bills", "sess-1", flow.BillStep2{
		Frequency:    model.FrequencyMonthly,
		Category:     "utilities",
		Status:       model.BillStatusUnpaid,
		SendEmail:    true,
		ReminderDays: 3,
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("complete: expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created dto.RecordResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode record response: %v", err)
	}
	if created.Kind != model.KindBill {
		t.Errorf("expected kind bill, got %s", created.Kind)
	}
	if created.ID == "" {
		t.Error("expected a record id")
	}

	if got := env.metrics.Snapshot().RecordsCreated["bill"]; got != 1 {
		t.Errorf("expected 1 bill created in metrics, got %d", got)
	}
	if len(env.sender.requests) != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", len(env.sender.requests))
	}

	// The bill shows up in the list and on the dashboard.
	rec = httptest.NewRecorder()
	h.List(rec, request(t, http.MethodGet, "/api/v1/bills", "sess-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected status 200, got %d", rec.Code)
	}
	var list dto.ListResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 {
		t.Errorf("expected 1 bill, got %d", list.Total)
	}

	rec = httptest.NewRecorder()
	h.Dashboard(rec, request(t, http.MethodGet, "/api/v1/bills/dashboard", "sess-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected status 200, got %d", rec.Code)
	}
	var dash dto.DashboardResponse
	if err := json.NewDecoder(rec.Body).Decode(&dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.UnpaidCount != 1 {
		t.Errorf("expected 1 unpaid bill, got %d", dash.UnpaidCount)
	}

	// Another session sees nothing.
	rec = httptest.NewRecorder()
	h.List(rec, request(t, http.MethodGet, "/api/v1/bills", "sess-2", nil))
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 0 {
		t.Errorf("expected no bills for other session, got %d", list.Total)
	}

	// Toggle then delete.
	rec = httptest.NewRecorder()
	req := request(t, http.MethodPost, "/api/v1/bills/"+created.ID+"/toggle", "sess-1", nil)
	h.Toggle(rec, withURLParam(req, "id", created.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var toggled dto.RecordResponse
	if err := json.NewDecoder(rec.Body).Decode(&toggled); err != nil {
		t.Fatalf("decode toggled: %v", err)
	}
	if got := toggled.Data.(*model.Bill).Status; got != model.BillStatusPaid {
		t.Errorf("expected status paid after toggle, got %s", got)
	}

	rec = httptest.NewRecorder()
	req = request(t, http.MethodDelete, "/api/v1/bills/"+created.ID, "sess-1", nil)
	h.Delete(rec, withURLParam(req, "id", created.ID))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status 204, got %d", rec.Code)
	}

	snap := env.metrics.Snapshot()
	if snap.RecordsUpdated["bill"] != 1 || snap.RecordsDeleted["bill"] != 1 {
		t.Errorf("unexpected update/delete metrics: %+v", snap)
	}
}

func TestBillHandler_ValidationError(t *testing.T) {
	env := newTestEnv(t)
	h := NewBillHandler(env.flows.Bill, env.metrics, env.logger)

	rec := httptest.NewRecorder()
	h.Step1(rec, request(t, http.MethodPost, "/api/v1/bills/steps/1", "sess-1", flow.BillStep1{
		Amount:  "not-a-number",
		DueDate: futureDate(5),
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Code != "VALIDATION_FAILED" {
		t.Errorf("expected code VALIDATION_FAILED, got %s", resp.Code)
	}
	if resp.Fields["bill_name"] == "" {
		t.Errorf("expected a bill_name field message, got %v", resp.Fields)
	}
}

func TestBillHandler_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	h := NewBillHandler(env.flows.Bill, env.metrics, env.logger)

	rec := httptest.NewRecorder()
	req := request(t, http.MethodPost, "/api/v1/bills/steps/1", "sess-1", nil)
	req.Body = http.NoBody
	h.Step1(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "INVALID_JSON" {
		t.Errorf("expected code INVALID_JSON, got %s", resp.Code)
	}
}

func TestBillHandler_CompleteWithoutDraft(t *testing.T) {
	env := newTestEnv(t)
	h := NewBillHandler(env.flows.Bill, env.metrics, env.logger)

	rec := httptest.NewRecorder()
	h.Complete(rec, request(t, http.MethodPost, "/api/v1/bills", "sess-1", flow.BillStep2{
		Frequency: model.FrequencyOneTime,
		Category:  "utilities",
		Status:    model.BillStatusUnpaid,
	}))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeError(t, rec); resp.Code != "DRAFT_MISSING" {
		t.Errorf("expected code DRAFT_MISSING, got %s", resp.Code)
	}
}

func TestBillHandler_ToggleUnknownID(t *testing.T) {
	env := newTestEnv(t)
	h := NewBillHandler(env.flows.Bill, env.metrics, env.logger)

	rec := httptest.NewRecorder()
	req := request(t, http.MethodPost, "/api/v1/bills/missing/toggle", "sess-1", nil)
	h.Toggle(rec, withURLParam(req, "id", "missing"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestBillHandler_UnsubscribeRequiresEmail(t *testing.T) {
	env := newTestEnv(t)
	h := NewBillHandler(env.flows.Bill, env.metrics, env.logger)

	rec := httptest.NewRecorder()
	h.Unsubscribe(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bills/unsubscribe", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "MISSING_EMAIL" {
		t.Errorf("expected code MISSING_EMAIL, got %s", resp.Code)
	}
}

func TestBudgetHandler_LatestBeforeAnyBudget(t *testing.T) {
	env := newTestEnv(t)
	h := NewBudgetHandler(env.flows.Budget, env.metrics, env.logger)

	rec := httptest.NewRecorder()
	h.Latest(rec, request(t, http.MethodGet, "/api/v1/budget/latest", "sess-1", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestBudgetHandler_FourStepFlow(t *testing.T) {
	env := newTestEnv(t)
	h := NewBudgetHandler(env.flows.Budget, env.metrics, env.logger)

	steps := []func(rec *httptest.ResponseRecorder){
		func(rec *httptest.ResponseRecorder) {
			h.Step1(rec, request(t, http.MethodPost, "/api/v1/budget/steps/1", "sess-1", flow.BudgetStep1{
				FirstName: "Ngozi",
			}))
		},
		func(rec *httptest.ResponseRecorder) {
			h.Step2(rec, request(t, http.MethodPost, "/api/v1/budget/steps/2", "sess-1", dto.BudgetStep2Request{
				MonthlyIncome: "250000",
			}))
		},
		func(rec *httptest.ResponseRecorder) {
			h.Step3(rec, request(t, http.MethodPost, "/api/v1/budget/steps/3", "sess-1", flow.BudgetStep3{
				Housing:   "80000",
				Food:      "50000",
				Transport: "20000",
			}))
		},
	}
	for i, step := range steps {
		rec := httptest.NewRecorder()
		step(rec)
		if rec.Code != http.StatusOK {
			t.Fatalf("step %d: expected status 200, got %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	h.Complete(rec, request(t, http.MethodPost, "/api/v1/budget", "sess-1", dto.BudgetStep4Request{
		SavingsGoal: "30000",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("complete: expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Latest(rec, request(t, http.MethodGet, "/api/v1/budget/latest", "sess-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("latest: expected status 200, got %d", rec.Code)
	}
	var latest dto.RecordResponse
	if err := json.NewDecoder(rec.Body).Decode(&latest); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	budget := latest.Data.(*model.Budget)
	if got := budget.SurplusDeficit.StringFixed(2); got != "100000.00" {
		t.Errorf("expected surplus 100000.00, got %s", got)
	}
}

// Completing out of order must not leak a half-built record.
func TestBudgetHandler_SkippedStepRejected(t *testing.T) {
	env := newTestEnv(t)
	h := NewBudgetHandler(env.flows.Budget, env.metrics, env.logger)

	rec := httptest.NewRecorder()
	h.Step1(rec, request(t, http.MethodPost, "/api/v1/budget/steps/1", "sess-1", flow.BudgetStep1{}))
	if rec.Code != http.StatusOK {
		t.Fatalf("step 1: expected status 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Step3(rec, request(t, http.MethodPost, "/api/v1/budget/steps/3", "sess-1", flow.BudgetStep3{
		Housing: "80000",
	}))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 for skipped step, got %d", rec.Code)
	}

	records, err := env.store.ReadAll(request(t, http.MethodGet, "/", "sess-1", nil).Context())
	if err != nil {
		t.Fatalf("read records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records after aborted flow, got %d", len(records))
	}
}
