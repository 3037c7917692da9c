package flow

import (
	"context"
	"fmt"

	"github.com/finwell/finwell/internal/model"
)

const netWorthDraftKey = "net_worth"

// NetWorthFlow collects an asset/liability snapshot across three
// steps: identity, assets, loans.
type NetWorthFlow struct {
	deps Deps
}

// NewNetWorthFlow creates the net worth flow service.
func NewNetWorthFlow(deps Deps) *NetWorthFlow {
	return &NetWorthFlow{deps: deps}
}

type netWorthDraft struct {
	FirstName   string `json:"first_name"`
	Email       string `json:"email"`
	SendEmail   bool   `json:"send_email"`
	CashSavings string `json:"cash_savings,omitempty"`
	Investments string `json:"investments,omitempty"`
	Property    string `json:"property,omitempty"`
	Step        int    `json:"step"`
}

// NetWorthStep1 is the identity step.
type NetWorthStep1 struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	SendEmail bool   `json:"send_email"`
}

// NetWorthStep2 is the assets step.
type NetWorthStep2 struct {
	CashSavings string `json:"cash_savings"`
	Investments string `json:"investments"`
	Property    string `json:"property"`
}

// SaveStep1 stages identity and opt-in.
func (f *NetWorthFlow) SaveStep1(ctx context.Context, sessionID string, in NetWorthStep1) error {
	if in.FirstName == "" {
		return invalid("first_name", "first name is required")
	}
	if in.SendEmail && !validEmail(in.Email) {
		return invalid("email", "a valid email is required for the summary")
	}

	draft := netWorthDraft{
		FirstName: in.FirstName,
		Email:     in.Email,
		SendEmail: in.SendEmail,
		Step:      1,
	}
	return saveDraft(ctx, f.deps, sessionID, netWorthDraftKey, draft)
}

// SaveStep2 stages the asset amounts.
func (f *NetWorthFlow) SaveStep2(ctx context.Context, sessionID string, in NetWorthStep2) error {
	for field, value := range map[string]string{
		"cash_savings": in.CashSavings,
		"investments":  in.Investments,
		"property":     in.Property,
	} {
		if _, err := parseAmount(value); err != nil {
			return invalid(field, "enter a valid amount")
		}
	}

	var draft netWorthDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, netWorthDraftKey, &draft); err != nil {
		return err
	}
	draft.CashSavings = in.CashSavings
	draft.Investments = in.Investments
	draft.Property = in.Property
	draft.Step = 2
	return saveDraft(ctx, f.deps, sessionID, netWorthDraftKey, draft)
}

// CompleteStep3 takes the loan total, materializes the snapshot with
// its totals and badges, and emails the summary when opted in.
func (f *NetWorthFlow) CompleteStep3(ctx context.Context, sessionID, lang, loans string) (*model.Record, error) {
	loanTotal, err := parseAmount(loans)
	if err != nil {
		return nil, invalid("loans", "enter a valid amount")
	}

	var draft netWorthDraft
	if err := loadDraft(ctx, f.deps.Drafts, sessionID, netWorthDraftKey, &draft); err != nil {
		return nil, err
	}
	if draft.Step < 2 {
		return nil, ErrDraftMissing
	}

	nw := &model.NetWorth{
		FirstName: draft.FirstName,
		Loans:     loanTotal,
		SendEmail: draft.SendEmail,
	}
	nw.CashSavings, _ = parseAmount(draft.CashSavings)
	nw.Investments, _ = parseAmount(draft.Investments)
	nw.Property, _ = parseAmount(draft.Property)
	nw.Recalculate()

	rec := model.NewRecord(sessionID, nw, draft.Email, lang)
	if err := f.deps.Store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append net worth: %w", err)
	}

	if draft.SendEmail && draft.Email != "" {
		notify(ctx, f.deps, &model.NotificationRequest{
			To:          draft.Email,
			TemplateKey: model.TemplateNetWorth,
			Data: map[string]any{
				"first_name":        draft.FirstName,
				"total_assets":      nw.TotalAssets.StringFixed(2),
				"total_liabilities": nw.TotalLiabilities.StringFixed(2),
				"net_worth":         nw.NetWorth.StringFixed(2),
				"badges":            badgeLabels(lang, nw.Badges),
			},
			Lang: lang,
		})
	}

	if err := f.deps.Drafts.DeleteDraft(ctx, sessionID, netWorthDraftKey); err != nil {
		f.deps.Logger.Warn("discard net worth draft", "error", err)
	}
	return rec, nil
}

// Unsubscribe clears the email opt-in on every net worth snapshot
// registered to the address.
func (f *NetWorthFlow) Unsubscribe(ctx context.Context, email string) (int, error) {
	records, err := f.deps.Store.FilterByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	var updated int
	for _, rec := range records {
		nw, ok := rec.Payload.(*model.NetWorth)
		if !ok || !nw.SendEmail {
			continue
		}
		nw.SendEmail = false
		if err := f.deps.Store.UpdateByID(ctx, rec.ID, nw); err != nil {
			f.deps.Logger.Warn("unsubscribe update failed", "record_id", rec.ID, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}
