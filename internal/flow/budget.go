package flow

import (
	"context"
	"fmt"

	"github.com/finwell/finwell/internal/model"
)

const budgetDraftKey = "budget"

// BudgetFlow collects a monthly budget across four steps: identity,
// income, category breakdown, savings goal.
type BudgetFlow struct {
	deps Deps
}

// NewBudgetFlow creates the budget flow service.
func NewBudgetFlow(deps Deps) *BudgetFlow {
	return &BudgetFlow{deps: deps}
}

// budgetDraft accumulates across all four steps.
type budgetDraft struct {
	FirstName     string `json:"first_name"`
	Email         string `json:"email"`
	SendEmail     bool   `json:"send_email"`
	Income        string `json:"income,omitempty"`
	Housing       string `json:"housing,omitempty"`
	Food          string `json:"food,omitempty"`
	Transport     string `json:"transport,omitempty"`
	Dependents    string `json:"dependents,omitempty"`
	Miscellaneous string `json:"miscellaneous,omitempty"`
	Others        string `json:"others,omitempty"`
	Step          int    `json:"step"`
}

// BudgetStep1 is the identity step.
type BudgetStep1 struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	SendEmail bool   `json:"send_email"`
}

// BudgetStep3 is the category breakdown step.
type BudgetStep3 struct {
	Housing       string `json:"housing"`
	Food          string `json:"food"`
	Transport     string `json:"transport"`
	Dependents    string `json:"dependents"`
	Miscellaneous string `json:"miscellaneous"`
	Others        string `json:"others"`
}

// SaveStep1 stages identity and email opt-in.
func (f *BudgetFlow) SaveStep1(ctx context.Context, sessionID string, in BudgetStep1) error {
	if in.FirstName == "" {
		return invalid("first_name", "first name is required")
	}
	if in.SendEmail && !validEmail(in.Email) {
		return invalid("email", "a valid email is required for the summary")
	}

	draft := budgetDraft{
		FirstName: in.FirstName,
		Email:     in.Email,
		SendEmail: in.SendEmail,
		Step:      1,
	}
	return saveDraft(ctx, f.deps, sessionID, budgetDraftKey, draft)
}

// SaveStep2 stages monthly income.
func (f *BudgetFlow) SaveStep2(ctx context.Context, sessionID, income string) error {
	if _, err := parseAmount(income); err != nil {
		return invalid("income", "enter a valid income amount")
	}

	var draft budgetDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, budgetDraftKey, &draft); err != nil {
		return err
	}
	draft.Income = income
	draft.Step = 2
	return saveDraft(ctx, f.deps, sessionID, budgetDraftKey, draft)
}

// SaveStep3 stages the expense breakdown.
func (f *BudgetFlow) SaveStep3(ctx context.Context, sessionID string, in BudgetStep3) error {
	fields := map[string]string{
		"housing":       in.Housing,
		"food":          in.Food,
		"transport":     in.Transport,
		"dependents":    in.Dependents,
		"miscellaneous": in.Miscellaneous,
		"others":        in.Others,
	}
	for field, value := range fields {
		if _, err := parseAmount(value); err != nil {
			return invalid(field, "enter a valid amount")
		}
	}

	var draft budgetDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, budgetDraftKey, &draft); err != nil {
		return err
	}
	if draft.Step < 2 {
		return ErrDraftMissing
	}
	draft.Housing = in.Housing
	draft.Food = in.Food
	draft.Transport = in.Transport
	draft.Dependents = in.Dependents
	draft.Miscellaneous = in.Miscellaneous
	draft.Others = in.Others
	draft.Step = 3
	return saveDraft(ctx, f.deps, sessionID, budgetDraftKey, draft)
}

// CompleteStep4 takes the savings goal, materializes the budget with
// its derived surplus/deficit, and emails the summary when opted in.
func (f *BudgetFlow) CompleteStep4(ctx context.Context, sessionID, lang, savingsGoal string) (*model.Record, error) {
	goal, err := parseAmount(savingsGoal)
	if err != nil {
		return nil, invalid("savings_goal", "enter a valid amount")
	}

	var draft budgetDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, budgetDraftKey, &draft); err != nil {
		return nil, err
	}
	if draft.Step < 3 {
		return nil, ErrDraftMissing
	}

	budget := &model.Budget{FirstName: draft.FirstName, SavingsGoal: goal}
	budget.Income, _ = parseAmount(draft.Income)
	budget.Housing, _ = parseAmount(draft.Housing)
	budget.Food, _ = parseAmount(draft.Food)
	budget.Transport, _ = parseAmount(draft.Transport)
	budget.Dependents, _ = parseAmount(draft.Dependents)
	budget.Miscellaneous, _ = parseAmount(draft.Miscellaneous)
	budget.Others, _ = parseAmount(draft.Others)
	budget.Recalculate()

	rec := model.NewRecord(sessionID, budget, draft.Email, lang)
	if err := f.deps.Store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append budget: %w", err)
	}

	if draft.SendEmail && draft.Email != "" {
		notify(ctx, f.deps, &model.NotificationRequest{
			To:          draft.Email,
			TemplateKey: model.TemplateBudget,
			Data: map[string]any{
				"first_name":      draft.FirstName,
				"income":          budget.Income.StringFixed(2),
				"fixed_expenses":  budget.FixedExpenses.StringFixed(2),
				"savings_goal":    budget.SavingsGoal.StringFixed(2),
				"surplus_deficit": budget.SurplusDeficit.StringFixed(2),
				"surplus":         budget.SurplusDeficit.IsPositive(),
			},
			Lang: lang,
		})
	}

	if err := f.deps.Drafts.DeleteDraft(ctx, sessionID, budgetDraftKey); err != nil {
		f.deps.Logger.Warn("discard budget draft", "error", err)
	}
	return rec, nil
}

// Latest returns the session's most recent budget, or nil when none
// exists yet.
func (f *BudgetFlow) Latest(ctx context.Context, sessionID string) (*model.Record, error) {
	records, err := f.deps.Store.FilterByOwner(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var latest *model.Record
	for _, rec := range records {
		if rec.Kind != model.KindBudget {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	return latest, nil
}
