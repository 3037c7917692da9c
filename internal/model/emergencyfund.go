package model

import "github.com/shopspring/decimal"

// RiskTolerance is the user's self-reported appetite for risk.
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// IsValid checks if the risk level is known.
func (r RiskTolerance) IsValid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Emergency fund badge names.
const (
	BadgePlanner     = "Planner"
	BadgeProtector   = "Protector"
	BadgeSteadySaver = "Steady Saver"
	BadgeFundMaster  = "Fund Master"
)

// EmergencyFund holds the inputs and computed plan for an emergency
// savings target.
type EmergencyFund struct {
	FirstName         string          `json:"first_name,omitempty"`
	EmailOptIn        bool            `json:"email_opt_in"`
	MonthlyExpenses   decimal.Decimal `json:"monthly_expenses"`
	MonthlyIncome     decimal.Decimal `json:"monthly_income"`
	CurrentSavings    decimal.Decimal `json:"current_savings"`
	RiskTolerance     RiskTolerance   `json:"risk_tolerance_level"`
	Dependents        int             `json:"dependents"`
	TimelineMonths    int             `json:"timeline"`
	RecommendedMonths int             `json:"recommended_months"`
	TargetAmount      decimal.Decimal `json:"target_amount"`
	SavingsGap        decimal.Decimal `json:"savings_gap"`
	MonthlySavings    decimal.Decimal `json:"monthly_savings"`
	PercentOfIncome   decimal.Decimal `json:"percent_of_income"`
	Badges            []string        `json:"badges,omitempty"`
}

// PayloadKind implements Payload.
func (e *EmergencyFund) PayloadKind() Kind { return KindEmergencyFund }

// Recalculate derives the plan from the collected inputs.
// High risk tolerance pushes the cushion to at least 12 months, low
// caps it at 6, and two or more dependents add 2.
func (e *EmergencyFund) Recalculate() {
	months := e.TimelineMonths
	recommended := months
	switch e.RiskTolerance {
	case RiskHigh:
		if recommended < 12 {
			recommended = 12
		}
	case RiskLow:
		if recommended > 6 {
			recommended = 6
		}
	}
	if e.Dependents >= 2 {
		recommended += 2
	}
	e.RecommendedMonths = recommended

	e.TargetAmount = e.MonthlyExpenses.Mul(decimal.NewFromInt(int64(recommended)))
	e.SavingsGap = e.TargetAmount.Sub(e.CurrentSavings)

	e.MonthlySavings = decimal.Zero
	if e.SavingsGap.IsPositive() && months > 0 {
		e.MonthlySavings = e.SavingsGap.Div(decimal.NewFromInt(int64(months)))
	}

	e.PercentOfIncome = decimal.Zero
	if e.MonthlyIncome.IsPositive() {
		e.PercentOfIncome = e.MonthlySavings.Div(e.MonthlyIncome).Mul(decimal.NewFromInt(100))
	}

	e.Badges = e.Badges[:0]
	if months == 6 || months == 12 {
		e.Badges = append(e.Badges, BadgePlanner)
	}
	if e.Dependents >= 2 {
		e.Badges = append(e.Badges, BadgeProtector)
	}
	if !e.SavingsGap.IsPositive() {
		e.Badges = append(e.Badges, BadgeSteadySaver)
	}
	if e.CurrentSavings.GreaterThanOrEqual(e.TargetAmount) && e.TargetAmount.IsPositive() {
		e.Badges = append(e.Badges, BadgeFundMaster)
	}
}
