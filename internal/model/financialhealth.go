package model

import "github.com/shopspring/decimal"

// Financial health status keys.
const (
	HealthStatusExcellent        = "excellent"
	HealthStatusGood             = "good"
	HealthStatusNeedsImprovement = "needs_improvement"
)

// Financial health badge keys.
const (
	BadgeFinancialStar = "financial_health_badge_financial_star"
	BadgeDebtManager   = "financial_health_badge_debt_manager"
	BadgeSavingsPro    = "financial_health_badge_savings_pro"
	BadgeInterestFree  = "financial_health_badge_interest_free"
)

// FinancialHealth scores a user's finances from income, expenses,
// debt, and interest rate.
type FinancialHealth struct {
	FirstName      string          `json:"first_name,omitempty"`
	UserType       string          `json:"user_type,omitempty"`
	SendEmail      bool            `json:"send_email"`
	Income         decimal.Decimal `json:"income"`
	Expenses       decimal.Decimal `json:"expenses"`
	Debt           decimal.Decimal `json:"debt"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	DebtToIncome   decimal.Decimal `json:"debt_to_income"`
	SavingsRate    decimal.Decimal `json:"savings_rate"`
	InterestBurden decimal.Decimal `json:"interest_burden"`
	Score          int             `json:"score"`
	StatusKey      string          `json:"status_key,omitempty"`
	Badges         []string        `json:"badges,omitempty"`
}

// PayloadKind implements Payload.
func (f *FinancialHealth) PayloadKind() Kind { return KindFinancialHealth }

// Recalculate derives the metrics, score, status, and badges.
// Income must be positive; the flow validates that before calling.
//
// Score starts at 100: debt-to-income subtracts up to 50 points, a
// negative savings rate subtracts up to 30, a positive one adds up to
// 20 (half its value), and interest burden subtracts up to 20. The
// result is clamped to [0, 100].
func (f *FinancialHealth) Recalculate() {
	hundred := decimal.NewFromInt(100)

	f.DebtToIncome = f.Debt.Div(f.Income).Mul(hundred)
	f.SavingsRate = f.Income.Sub(f.Expenses).Div(f.Income).Mul(hundred)
	f.InterestBurden = decimal.Zero
	if f.Debt.IsPositive() {
		f.InterestBurden = f.InterestRate.Mul(f.Debt).Div(hundred)
	}

	score := decimal.NewFromInt(100)
	if f.DebtToIncome.IsPositive() {
		score = score.Sub(decimal.Min(f.DebtToIncome, decimal.NewFromInt(50)))
	}
	if f.SavingsRate.IsNegative() {
		score = score.Sub(decimal.Min(f.SavingsRate.Abs(), decimal.NewFromInt(30)))
	} else if f.SavingsRate.IsPositive() {
		score = score.Add(decimal.Min(f.SavingsRate.Div(decimal.NewFromInt(2)), decimal.NewFromInt(20)))
	}
	score = score.Sub(decimal.Min(f.InterestBurden, decimal.NewFromInt(20)))

	rounded := int(score.Round(0).IntPart())
	if rounded < 0 {
		rounded = 0
	}
	if rounded > 100 {
		rounded = 100
	}
	f.Score = rounded

	switch {
	case f.Score >= 80:
		f.StatusKey = HealthStatusExcellent
	case f.Score >= 60:
		f.StatusKey = HealthStatusGood
	default:
		f.StatusKey = HealthStatusNeedsImprovement
	}

	f.Badges = f.Badges[:0]
	if f.Score >= 80 {
		f.Badges = append(f.Badges, BadgeFinancialStar)
	}
	if f.DebtToIncome.LessThan(decimal.NewFromInt(20)) {
		f.Badges = append(f.Badges, BadgeDebtManager)
	}
	if f.SavingsRate.GreaterThanOrEqual(decimal.NewFromInt(20)) {
		f.Badges = append(f.Badges, BadgeSavingsPro)
	}
	if f.InterestBurden.IsZero() && f.Debt.IsPositive() {
		f.Badges = append(f.Badges, BadgeInterestFree)
	}
}
