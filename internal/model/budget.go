package model

import "github.com/shopspring/decimal"

// Budget captures a monthly plan with a category breakdown.
// SurplusDeficit is computed at materialization, not supplied by the
// caller.
type Budget struct {
	FirstName      string          `json:"first_name,omitempty"`
	Income         decimal.Decimal `json:"income"`
	Housing        decimal.Decimal `json:"housing"`
	Food           decimal.Decimal `json:"food"`
	Transport      decimal.Decimal `json:"transport"`
	Dependents     decimal.Decimal `json:"dependents"`
	Miscellaneous  decimal.Decimal `json:"miscellaneous"`
	Others         decimal.Decimal `json:"others"`
	SavingsGoal    decimal.Decimal `json:"savings_goal"`
	FixedExpenses  decimal.Decimal `json:"fixed_expenses"`
	SurplusDeficit decimal.Decimal `json:"surplus_deficit"`
}

// PayloadKind implements Payload.
func (b *Budget) PayloadKind() Kind { return KindBudget }

// TotalExpenses sums the category breakdown.
func (b *Budget) TotalExpenses() decimal.Decimal {
	return b.Housing.
		Add(b.Food).
		Add(b.Transport).
		Add(b.Dependents).
		Add(b.Miscellaneous).
		Add(b.Others)
}

// Recalculate refreshes the derived fields from the breakdown.
func (b *Budget) Recalculate() {
	b.FixedExpenses = b.TotalExpenses()
	b.SurplusDeficit = b.Income.Sub(b.FixedExpenses)
}
