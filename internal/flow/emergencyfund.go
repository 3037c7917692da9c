package flow

import (
	"context"
	"fmt"

	"github.com/finwell/finwell/internal/model"
)

const emergencyFundDraftKey = "emergency_fund"

// Valid planning timelines in months.
var validTimelines = map[int]bool{6: true, 12: true, 18: true}

// EmergencyFundFlow collects an emergency fund plan across four steps:
// identity, cash flow, risk profile, timeline.
type EmergencyFundFlow struct {
	deps Deps
}

// NewEmergencyFundFlow creates the emergency fund flow service.
func NewEmergencyFundFlow(deps Deps) *EmergencyFundFlow {
	return &EmergencyFundFlow{deps: deps}
}

type emergencyFundDraft struct {
	FirstName       string `json:"first_name"`
	Email           string `json:"email"`
	EmailOptIn      bool   `json:"email_opt_in"`
	MonthlyExpenses string `json:"monthly_expenses,omitempty"`
	MonthlyIncome   string `json:"monthly_income,omitempty"`
	CurrentSavings  string `json:"current_savings,omitempty"`
	RiskTolerance   string `json:"risk_tolerance_level,omitempty"`
	Dependents      int    `json:"dependents"`
	Step            int    `json:"step"`
}

// EmergencyFundStep1 is the identity step.
type EmergencyFundStep1 struct {
	FirstName  string `json:"first_name"`
	Email      string `json:"email"`
	EmailOptIn bool   `json:"email_opt_in"`
}

// EmergencyFundStep2 is the cash flow step.
type EmergencyFundStep2 struct {
	MonthlyExpenses string `json:"monthly_expenses"`
	MonthlyIncome   string `json:"monthly_income"`
}

// EmergencyFundStep3 is the risk profile step.
type EmergencyFundStep3 struct {
	CurrentSavings string              `json:"current_savings"`
	RiskTolerance  model.RiskTolerance `json:"risk_tolerance_level"`
	Dependents     int                 `json:"dependents"`
}

// SaveStep1 stages identity and opt-in.
func (f *EmergencyFundFlow) SaveStep1(ctx context.Context, sessionID string, in EmergencyFundStep1) error {
	if in.FirstName == "" {
		return invalid("first_name", "first name is required")
	}
	if in.EmailOptIn && !validEmail(in.Email) {
		return invalid("email", "a valid email is required for the plan summary")
	}

	draft := emergencyFundDraft{
		FirstName:  in.FirstName,
		Email:      in.Email,
		EmailOptIn: in.EmailOptIn,
		Step:       1,
	}
	return saveDraft(ctx, f.deps, sessionID, emergencyFundDraftKey, draft)
}

// SaveStep2 stages monthly expenses and income. Expenses are
// mandatory; income is optional and only feeds the percent-of-income
// figure.
func (f *EmergencyFundFlow) SaveStep2(ctx context.Context, sessionID string, in EmergencyFundStep2) error {
	expenses, err := parseAmount(in.MonthlyExpenses)
	if err != nil || expenses.IsZero() {
		return invalid("monthly_expenses", "enter your monthly expenses")
	}
	if _, err := parseAmount(in.MonthlyIncome); err != nil {
		return invalid("monthly_income", "enter a valid amount")
	}

	var draft emergencyFundDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, emergencyFundDraftKey, &draft); err != nil {
		return err
	}
	draft.MonthlyExpenses = in.MonthlyExpenses
	draft.MonthlyIncome = in.MonthlyIncome
	draft.Step = 2
	return saveDraft(ctx, f.deps, sessionID, emergencyFundDraftKey, draft)
}

// SaveStep3 stages savings, risk tolerance and dependents.
func (f *EmergencyFundFlow) SaveStep3(ctx context.Context, sessionID string, in EmergencyFundStep3) error {
	if _, err := parseAmount(in.CurrentSavings); err != nil {
		return invalid("current_savings", "enter a valid amount")
	}
	if !in.RiskTolerance.IsValid() {
		return invalid("risk_tolerance_level", "choose low, medium or high")
	}
	if in.Dependents < 0 || in.Dependents > 100 {
		return invalid("dependents", "enter a realistic number of dependents")
	}

	var draft emergencyFundDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, emergencyFundDraftKey, &draft); err != nil {
		return err
	}
	if draft.Step < 2 {
		return ErrDraftMissing
	}
	draft.CurrentSavings = in.CurrentSavings
	draft.RiskTolerance = string(in.RiskTolerance)
	draft.Dependents = in.Dependents
	draft.Step = 3
	return saveDraft(ctx, f.deps, sessionID, emergencyFundDraftKey, draft)
}

// CompleteStep4 takes the timeline, materializes the computed plan and
// emails it when opted in.
func (f *EmergencyFundFlow) CompleteStep4(ctx context.Context, sessionID, lang string, timelineMonths int) (*model.Record, error) {
	if !validTimelines[timelineMonths] {
		return nil, invalid("timeline", "choose 6, 12 or 18 months")
	}

	var draft emergencyFundDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, emergencyFundDraftKey, &draft); err != nil {
		return nil, err
	}
	if draft.Step < 3 {
		return nil, ErrDraftMissing
	}

	fund := &model.EmergencyFund{
		FirstName:      draft.FirstName,
		EmailOptIn:     draft.EmailOptIn,
		RiskTolerance:  model.RiskTolerance(draft.RiskTolerance),
		Dependents:     draft.Dependents,
		TimelineMonths: timelineMonths,
	}
	fund.MonthlyExpenses, _ = parseAmount(draft.MonthlyExpenses)
	fund.MonthlyIncome, _ = parseAmount(draft.MonthlyIncome)
	fund.CurrentSavings, _ = parseAmount(draft.CurrentSavings)
	fund.Recalculate()

	rec := model.NewRecord(sessionID, fund, draft.Email, lang)
	if err := f.deps.Store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append emergency fund: %w", err)
	}

	if draft.EmailOptIn && draft.Email != "" {
		notify(ctx, f.deps, &model.NotificationRequest{
			To:          draft.Email,
			TemplateKey: model.TemplateEmergencyFund,
			Data: map[string]any{
				"first_name":         draft.FirstName,
				"recommended_months": fund.RecommendedMonths,
				"target_amount":      fund.TargetAmount.StringFixed(2),
				"current_savings":    fund.CurrentSavings.StringFixed(2),
				"savings_gap":        fund.SavingsGap.StringFixed(2),
				"monthly_savings":    fund.MonthlySavings.StringFixed(2),
				"badges":             fund.Badges,
			},
			Lang: lang,
		})
	}

	if err := f.deps.Drafts.DeleteDraft(ctx, sessionID, emergencyFundDraftKey); err != nil {
		f.deps.Logger.Warn("discard emergency fund draft", "error", err)
	}
	return rec, nil
}

// Unsubscribe clears the opt-in on every plan registered to email.
func (f *EmergencyFundFlow) Unsubscribe(ctx context.Context, email string) (int, error) {
	records, err := f.deps.Store.FilterByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	var updated int
	for _, rec := range records {
		fund, ok := rec.Payload.(*model.EmergencyFund)
		if !ok || !fund.EmailOptIn {
			continue
		}
		fund.EmailOptIn = false
		if err := f.deps.Store.UpdateByID(ctx, rec.ID, fund); err != nil {
			f.deps.Logger.Warn("unsubscribe update failed", "record_id", rec.ID, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}
