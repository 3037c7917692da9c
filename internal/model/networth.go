package model

import "github.com/shopspring/decimal"

// Net worth badge keys, awarded at materialization.
const (
	BadgeWealthBuilder   = "net_worth_badge_wealth_builder"
	BadgeDebtFree        = "net_worth_badge_debt_free"
	BadgeSavingsChampion = "net_worth_badge_savings_champion"
	BadgePropertyMogul   = "net_worth_badge_property_mogul"
)

// NetWorth records a point-in-time asset and liability snapshot.
type NetWorth struct {
	FirstName        string          `json:"first_name,omitempty"`
	CashSavings      decimal.Decimal `json:"cash_savings"`
	Investments      decimal.Decimal `json:"investments"`
	Property         decimal.Decimal `json:"property"`
	Loans            decimal.Decimal `json:"loans"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	NetWorth         decimal.Decimal `json:"net_worth"`
	Badges           []string        `json:"badges,omitempty"`
	SendEmail        bool            `json:"send_email"`
}

// PayloadKind implements Payload.
func (n *NetWorth) PayloadKind() Kind { return KindNetWorth }

// Recalculate refreshes the totals and awarded badges.
func (n *NetWorth) Recalculate() {
	n.TotalAssets = n.CashSavings.Add(n.Investments).Add(n.Property)
	n.TotalLiabilities = n.Loans
	n.NetWorth = n.TotalAssets.Sub(n.TotalLiabilities)

	n.Badges = n.Badges[:0]
	if n.NetWorth.IsPositive() {
		n.Badges = append(n.Badges, BadgeWealthBuilder)
	}
	if n.Loans.IsZero() {
		n.Badges = append(n.Badges, BadgeDebtFree)
	}
	if n.CashSavings.GreaterThanOrEqual(n.TotalAssets.Mul(decimal.NewFromFloat(0.3))) {
		n.Badges = append(n.Badges, BadgeSavingsChampion)
	}
	if n.Property.GreaterThanOrEqual(n.TotalAssets.Mul(decimal.NewFromFloat(0.5))) {
		n.Badges = append(n.Badges, BadgePropertyMogul)
	}
}
