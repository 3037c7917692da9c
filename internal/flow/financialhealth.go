package flow

import (
	"context"
	"fmt"

	"github.com/finwell/finwell/internal/i18n"
	"github.com/finwell/finwell/internal/model"
)

const financialHealthDraftKey = "financial_health"

// FinancialHealthFlow scores a user's finances across three steps:
// identity, income and expenses, debt profile.
type FinancialHealthFlow struct {
	deps Deps
}

// NewFinancialHealthFlow creates the financial health flow service.
func NewFinancialHealthFlow(deps Deps) *FinancialHealthFlow {
	return &FinancialHealthFlow{deps: deps}
}

type financialHealthDraft struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	UserType  string `json:"user_type,omitempty"`
	SendEmail bool   `json:"send_email"`
	Income    string `json:"income,omitempty"`
	Expenses  string `json:"expenses,omitempty"`
	Step      int    `json:"step"`
}

// FinancialHealthStep1 is the identity step.
type FinancialHealthStep1 struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	UserType  string `json:"user_type"`
	SendEmail bool   `json:"send_email"`
}

// FinancialHealthStep2 is the income and expenses step.
type FinancialHealthStep2 struct {
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
}

// FinancialHealthStep3 is the debt profile step.
type FinancialHealthStep3 struct {
	Debt         string `json:"debt"`
	InterestRate string `json:"interest_rate"`
}

// SaveStep1 stages identity, user type and the email opt-in.
func (f *FinancialHealthFlow) SaveStep1(ctx context.Context, sessionID string, in FinancialHealthStep1) error {
	if in.FirstName == "" {
		return invalid("first_name", "first name is required")
	}
	if in.SendEmail && !validEmail(in.Email) {
		return invalid("email", "a valid email is required for the report")
	}

	draft := financialHealthDraft{
		FirstName: in.FirstName,
		Email:     in.Email,
		UserType:  in.UserType,
		SendEmail: in.SendEmail,
		Step:      1,
	}
	return saveDraft(ctx, f.deps, sessionID, financialHealthDraftKey, draft)
}

// SaveStep2 stages income and expenses. Income must be positive, it
// is the divisor for every ratio the score is built from.
func (f *FinancialHealthFlow) SaveStep2(ctx context.Context, sessionID string, in FinancialHealthStep2) error {
	income, err := parseAmount(in.Income)
	if err != nil || !income.IsPositive() {
		return invalid("income", "income must be greater than zero")
	}
	if _, err := parseAmount(in.Expenses); err != nil {
		return invalid("expenses", "enter a valid amount")
	}

	var draft financialHealthDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, financialHealthDraftKey, &draft); err != nil {
		return err
	}
	draft.Income = in.Income
	draft.Expenses = in.Expenses
	draft.Step = 2
	return saveDraft(ctx, f.deps, sessionID, financialHealthDraftKey, draft)
}

// CompleteStep3 takes the debt profile, computes the score and
// materializes the report, emailing it when opted in.
func (f *FinancialHealthFlow) CompleteStep3(ctx context.Context, sessionID, lang string, in FinancialHealthStep3) (*model.Record, error) {
	debt, err := parseAmount(in.Debt)
	if err != nil {
		return nil, invalid("debt", "enter a valid amount")
	}
	rate, err := parseAmount(in.InterestRate)
	if err != nil {
		return nil, invalid("interest_rate", "enter a valid rate")
	}

	var draft financialHealthDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, financialHealthDraftKey, &draft); err != nil {
		return nil, err
	}
	if draft.Step < 2 {
		return nil, ErrDraftMissing
	}

	health := &model.FinancialHealth{
		FirstName:    draft.FirstName,
		UserType:     draft.UserType,
		SendEmail:    draft.SendEmail,
		Debt:         debt,
		InterestRate: rate,
	}
	health.Income, _ = parseAmount(draft.Income)
	health.Expenses, _ = parseAmount(draft.Expenses)
	health.Recalculate()

	rec := model.NewRecord(sessionID, health, draft.Email, lang)
	if err := f.deps.Store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append financial health: %w", err)
	}

	if draft.SendEmail && draft.Email != "" {
		notify(ctx, f.deps, &model.NotificationRequest{
			To:          draft.Email,
			TemplateKey: model.TemplateFinancialHealth,
			Data: map[string]any{
				"first_name":      draft.FirstName,
				"score":           health.Score,
				"status":          i18n.T(lang, "financial_health_status_"+health.StatusKey),
				"debt_to_income":  health.DebtToIncome.StringFixed(1),
				"savings_rate":    health.SavingsRate.StringFixed(1),
				"interest_burden": health.InterestBurden.StringFixed(2),
			},
			Lang: lang,
		})
	}

	if err := f.deps.Drafts.DeleteDraft(ctx, sessionID, financialHealthDraftKey); err != nil {
		f.deps.Logger.Warn("discard financial health draft", "error", err)
	}
	return rec, nil
}

// Latest returns the most recent score for the session, or nil when
// none exists.
func (f *FinancialHealthFlow) Latest(ctx context.Context, sessionID string) (*model.Record, error) {
	records, err := f.deps.Store.FilterByOwner(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var latest *model.Record
	for _, rec := range records {
		if rec.Payload.PayloadKind() != model.KindFinancialHealth {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	return latest, nil
}
