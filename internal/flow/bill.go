package flow

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finwell/finwell/internal/i18n"
	"github.com/finwell/finwell/internal/model"
)

const billDraftKey = "bill"

// BillFlow collects a bill across two steps and manages existing
// bills: status toggles with recurring follow-ups, deletion, dashboard
// aggregates and email unsubscribe.
type BillFlow struct {
	deps Deps
}

// NewBillFlow creates the bill flow service.
func NewBillFlow(deps Deps) *BillFlow {
	return &BillFlow{deps: deps}
}

// BillStep1 is the identity-and-basics step.
type BillStep1 struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	BillName  string `json:"bill_name"`
	Amount    string `json:"amount"`
	DueDate   string `json:"due_date"`
}

// BillStep2 is the scheduling-and-reminder step.
type BillStep2 struct {
	Frequency    model.BillFrequency `json:"frequency"`
	Category     string              `json:"category"`
	Status       model.BillStatus    `json:"status"`
	SendEmail    bool                `json:"send_email"`
	ReminderDays int                 `json:"reminder_days"`
}

// SaveStep1 validates and stages the first step.
func (f *BillFlow) SaveStep1(ctx context.Context, sessionID string, in BillStep1) error {
	if in.BillName == "" {
		return invalid("bill_name", "bill name is required")
	}
	if _, err := parseAmount(in.Amount); err != nil {
		return invalid("amount", "enter a valid amount")
	}
	due, err := model.ParseDate(in.DueDate)
	if err != nil {
		return invalid("due_date", "enter the due date as YYYY-MM-DD")
	}
	if due.Before(model.Today()) {
		return invalid("due_date", "due date must not be in the past")
	}
	if in.Email != "" && !validEmail(in.Email) {
		return invalid("email", "enter a valid email address")
	}

	return saveDraft(ctx, f.deps, sessionID, billDraftKey, in)
}

// CompleteStep2 validates the final step, materializes the bill record
// and sends the reminder-style confirmation when opted in. The staged
// draft is discarded on success.
func (f *BillFlow) CompleteStep2(ctx context.Context, sessionID, lang string, in BillStep2) (*model.Record, error) {
	if !in.Frequency.IsValid() {
		return nil, invalid("frequency", "choose a valid frequency")
	}
	if !validBillCategory(in.Category) {
		return nil, invalid("category", "choose a valid category")
	}
	if in.SendEmail && in.ReminderDays <= 0 {
		return nil, invalid("reminder_days", "reminder days are required when reminders are on")
	}

	var step1 BillStep1
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, billDraftKey, &step1); err != nil {
		return nil, err
	}

	amount, err := parseAmount(step1.Amount)
	if err != nil {
		return nil, invalid("amount", "enter a valid amount")
	}
	due, err := model.ParseDate(step1.DueDate)
	if err != nil {
		return nil, invalid("due_date", "enter the due date as YYYY-MM-DD")
	}

	// A bill saved as unpaid with an already-passed due date starts
	// out overdue rather than waiting for the next sweep.
	status := in.Status
	if status != model.BillStatusPaid && status != model.BillStatusPending && due.Before(model.Today()) {
		status = model.BillStatusOverdue
	}

	bill := &model.Bill{
		FirstName:    step1.FirstName,
		BillName:     step1.BillName,
		Amount:       amount,
		DueDate:      due,
		Frequency:    in.Frequency,
		Category:     in.Category,
		Status:       status,
		SendEmail:    in.SendEmail,
		ReminderDays: in.ReminderDays,
	}
	rec := model.NewRecord(sessionID, bill, step1.Email, lang)
	if err := f.deps.Store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append bill: %w", err)
	}

	if in.SendEmail && step1.Email != "" {
		notify(ctx, f.deps, &model.NotificationRequest{
			To:          step1.Email,
			TemplateKey: model.TemplateBillReminder,
			Data: map[string]any{
				"first_name": step1.FirstName,
				"bills": []map[string]any{{
					"bill_name": bill.BillName,
					"amount":    bill.Amount.StringFixed(2),
					"due_date":  bill.DueDate.String(),
					"category":  i18n.T(lang, "bill_category_"+bill.Category),
					"status":    i18n.T(lang, "bill_status_"+string(bill.Status)),
				}},
				"cta_url":         f.deps.BaseURL + "/bills/dashboard",
				"unsubscribe_url": unsubscribeURL(f.deps.BaseURL, "/bills/unsubscribe", step1.Email),
			},
			Lang: lang,
		})
	}

	if err := f.deps.Drafts.DeleteDraft(ctx, sessionID, billDraftKey); err != nil {
		f.deps.Logger.Warn("discard bill draft", "error", err)
	}
	return rec, nil
}

// List returns the session's bills.
func (f *BillFlow) List(ctx context.Context, sessionID string) ([]*model.Record, error) {
	records, err := f.deps.Store.FilterByOwner(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	bills := records[:0]
	for _, rec := range records {
		if rec.Kind == model.KindBill {
			bills = append(bills, rec)
		}
	}
	return bills, nil
}

// ToggleStatus flips a bill between paid and unpaid. Marking a
// recurring bill paid appends its next occurrence as a fresh unpaid
// bill.
func (f *BillFlow) ToggleStatus(ctx context.Context, sessionID, id string) (*model.Record, error) {
	rec, err := f.deps.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	bill, ok := rec.Payload.(*model.Bill)
	if !ok || rec.OwnerKey != sessionID {
		return nil, invalid("bill_id", "bill not found")
	}

	if bill.Status == model.BillStatusUnpaid || bill.Status == model.BillStatusOverdue {
		bill.Status = model.BillStatusPaid
	} else {
		bill.Status = model.BillStatusUnpaid
	}
	if err := f.deps.Store.UpdateByID(ctx, id, bill); err != nil {
		return nil, err
	}

	if bill.Status == model.BillStatusPaid && bill.Frequency != model.FrequencyOneTime {
		next := model.NewRecord(sessionID, bill.NextOccurrence(), rec.ContactEmail, rec.Lang)
		if err := f.deps.Store.Append(ctx, next); err != nil {
			// The toggle already succeeded; a failed follow-up is
			// logged but not surfaced as a toggle failure.
			f.deps.Logger.Error("append recurring bill", "bill", bill.BillName, "error", err)
		}
	}
	return rec, nil
}

// Delete removes one of the session's bills.
func (f *BillFlow) Delete(ctx context.Context, sessionID, id string) error {
	rec, err := f.deps.Store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.OwnerKey != sessionID || rec.Kind != model.KindBill {
		return invalid("bill_id", "bill not found")
	}
	return f.deps.Store.DeleteByID(ctx, id)
}

// Unsubscribe turns reminders off for every bill registered to email,
// across all sessions. Reached from the email opt-out link, so it is
// keyed by address rather than session.
func (f *BillFlow) Unsubscribe(ctx context.Context, email string) (int, error) {
	records, err := f.deps.Store.FilterByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	var updated int
	for _, rec := range records {
		bill, ok := rec.Payload.(*model.Bill)
		if !ok || !bill.SendEmail {
			continue
		}
		bill.SendEmail = false
		if err := f.deps.Store.UpdateByID(ctx, rec.ID, bill); err != nil {
			f.deps.Logger.Warn("unsubscribe update failed", "record_id", rec.ID, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}

// BillDashboard aggregates the session's bills for display.
type BillDashboard struct {
	Bills        []*model.Record
	PaidCount    int
	UnpaidCount  int
	OverdueCount int
	PendingCount int
	TotalPaid    decimal.Decimal
	TotalUnpaid  decimal.Decimal
	TotalOverdue decimal.Decimal
	TotalBills   decimal.Decimal
	ByCategory   map[string]decimal.Decimal
	DueToday     []*model.Record
	DueWeek      []*model.Record
	DueMonth     []*model.Record
}

// Dashboard computes counts, money totals and due buckets.
func (f *BillFlow) Dashboard(ctx context.Context, sessionID string, today model.Date) (*BillDashboard, error) {
	records, err := f.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	d := &BillDashboard{
		Bills:        records,
		TotalPaid:    decimal.Zero,
		TotalUnpaid:  decimal.Zero,
		TotalOverdue: decimal.Zero,
		TotalBills:   decimal.Zero,
		ByCategory:   make(map[string]decimal.Decimal),
	}
	for _, rec := range records {
		bill := rec.Payload.(*model.Bill)

		d.TotalBills = d.TotalBills.Add(bill.Amount)
		if total, ok := d.ByCategory[bill.Category]; ok {
			d.ByCategory[bill.Category] = total.Add(bill.Amount)
		} else {
			d.ByCategory[bill.Category] = bill.Amount
		}

		switch bill.Status {
		case model.BillStatusPaid:
			d.PaidCount++
			d.TotalPaid = d.TotalPaid.Add(bill.Amount)
		case model.BillStatusUnpaid:
			d.UnpaidCount++
			d.TotalUnpaid = d.TotalUnpaid.Add(bill.Amount)
		case model.BillStatusOverdue:
			d.OverdueCount++
			d.TotalOverdue = d.TotalOverdue.Add(bill.Amount)
		case model.BillStatusPending:
			d.PendingCount++
		}

		if bill.DueDate.Equal(today) {
			d.DueToday = append(d.DueToday, rec)
		}
		if bill.DueWithin(today, 7) {
			d.DueWeek = append(d.DueWeek, rec)
		}
		if bill.DueWithin(today, 30) {
			d.DueMonth = append(d.DueMonth, rec)
		}
	}
	return d, nil
}

func validBillCategory(cat string) bool {
	for _, c := range model.ValidBillCategories {
		if c == cat {
			return true
		}
	}
	return false
}
