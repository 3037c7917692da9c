package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestFinancialHealthRecalculate(t *testing.T) {
	tests := []struct {
		name       string
		income     float64
		expenses   float64
		debt       float64
		rate       float64
		wantScore  int
		wantStatus string
	}{
		// dti 0, savings rate 50 → 100 + 20 = 100 (clamped)
		{"no debt big surplus", 1000, 500, 0, 0, 100, HealthStatusExcellent},
		// dti 100 → -50; savings rate 0; score 50
		{"debt equals income", 1000, 1000, 1000, 0, 50, HealthStatusNeedsImprovement},
		// dti 10 → -10; savings rate 20 → +10; burden 5*100/100=5 → -5; 95
		{"moderate debt", 1000, 800, 100, 5, 95, HealthStatusExcellent},
		// savings rate -50 → -30; score 70
		{"overspending", 1000, 1500, 0, 0, 70, HealthStatusGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &FinancialHealth{
				Income:       d(tt.income),
				Expenses:     d(tt.expenses),
				Debt:         d(tt.debt),
				InterestRate: d(tt.rate),
			}
			f.Recalculate()
			if f.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", f.Score, tt.wantScore)
			}
			if f.StatusKey != tt.wantStatus {
				t.Errorf("status = %s, want %s", f.StatusKey, tt.wantStatus)
			}
		})
	}
}

func TestFinancialHealthScoreBounds(t *testing.T) {
	f := &FinancialHealth{
		Income:       d(100),
		Expenses:     d(500),
		Debt:         d(10000),
		InterestRate: d(50),
	}
	f.Recalculate()
	if f.Score < 0 || f.Score > 100 {
		t.Errorf("score %d out of [0,100]", f.Score)
	}
}

func TestEmergencyFundRecalculate(t *testing.T) {
	tests := []struct {
		name            string
		risk            RiskTolerance
		dependents      int
		timeline        int
		wantRecommended int
	}{
		{"medium risk keeps timeline", RiskMedium, 0, 6, 6},
		{"high risk floors at twelve", RiskHigh, 0, 6, 12},
		{"high risk keeps longer timeline", RiskHigh, 0, 18, 18},
		{"low risk caps at six", RiskLow, 0, 12, 6},
		{"dependents add two", RiskMedium, 2, 6, 8},
		{"high risk with dependents", RiskHigh, 3, 3, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &EmergencyFund{
				MonthlyExpenses: d(1000),
				MonthlyIncome:   d(2000),
				CurrentSavings:  d(500),
				RiskTolerance:   tt.risk,
				Dependents:      tt.dependents,
				TimelineMonths:  tt.timeline,
			}
			e.Recalculate()
			if e.RecommendedMonths != tt.wantRecommended {
				t.Errorf("recommended months = %d, want %d", e.RecommendedMonths, tt.wantRecommended)
			}
			wantTarget := d(1000).Mul(decimal.NewFromInt(int64(tt.wantRecommended)))
			if !e.TargetAmount.Equal(wantTarget) {
				t.Errorf("target = %s, want %s", e.TargetAmount, wantTarget)
			}
		})
	}
}

func TestEmergencyFundFullyFunded(t *testing.T) {
	e := &EmergencyFund{
		MonthlyExpenses: d(1000),
		MonthlyIncome:   d(5000),
		CurrentSavings:  d(20000),
		RiskTolerance:   RiskMedium,
		TimelineMonths:  6,
	}
	e.Recalculate()
	if e.MonthlySavings.IsPositive() {
		t.Errorf("monthly savings = %s, want zero when gap closed", e.MonthlySavings)
	}
	found := false
	for _, b := range e.Badges {
		if b == BadgeFundMaster {
			found = true
		}
	}
	if !found {
		t.Error("fully funded plan should award Fund Master")
	}
}

func TestBudgetRecalculate(t *testing.T) {
	b := &Budget{
		Income:        d(5000),
		Housing:       d(1500),
		Food:          d(800),
		Transport:     d(300),
		Dependents:    d(400),
		Miscellaneous: d(200),
		Others:        d(100),
		SavingsGoal:   d(1000),
	}
	b.Recalculate()
	if !b.FixedExpenses.Equal(d(3300)) {
		t.Errorf("fixed expenses = %s, want 3300", b.FixedExpenses)
	}
	if !b.SurplusDeficit.Equal(d(1700)) {
		t.Errorf("surplus = %s, want 1700", b.SurplusDeficit)
	}
}

func TestNetWorthRecalculate(t *testing.T) {
	n := &NetWorth{
		CashSavings: d(4000),
		Investments: d(3000),
		Property:    d(5000),
		Loans:       d(0),
	}
	n.Recalculate()
	if !n.NetWorth.Equal(d(12000)) {
		t.Errorf("net worth = %s, want 12000", n.NetWorth)
	}
	want := map[string]bool{
		BadgeWealthBuilder:   true,
		BadgeDebtFree:        true,
		BadgeSavingsChampion: true, // 4000 >= 0.3*12000
		BadgePropertyMogul:   false,
	}
	for badge, expected := range want {
		got := false
		for _, b := range n.Badges {
			if b == badge {
				got = true
			}
		}
		if got != expected {
			t.Errorf("badge %s awarded=%v, want %v", badge, got, expected)
		}
	}
}

func TestPersonalityForScore(t *testing.T) {
	tests := []struct {
		score int
		want  QuizPersonality
	}{
		{30, PersonalityPlanner},
		{21, PersonalityPlanner},
		{20, PersonalitySaver},
		{13, PersonalitySaver},
		{12, PersonalityBalanced},
		{7, PersonalityBalanced},
		{6, PersonalitySpender},
		{3, PersonalitySpender},
		{2, PersonalityAvoider},
		{0, PersonalityAvoider},
	}
	for _, tt := range tests {
		if got := PersonalityForScore(tt.score); got != tt.want {
			t.Errorf("PersonalityForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
