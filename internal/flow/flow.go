// Package flow implements the multi-step form flows. Each flow stages
// partial input as a draft in a short-lived keyed store, validates it
// step by step, and materializes a record on the final step. Drafts
// are transient: abandoning a flow loses the partial input once the
// TTL expires.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finwell/finwell/internal/cache"
	"github.com/finwell/finwell/internal/i18n"
	"github.com/finwell/finwell/internal/model"
	"github.com/finwell/finwell/internal/store"
)

// Flow errors.
var (
	// ErrDraftMissing means a step was submitted without the preceding
	// steps' draft, usually after session expiry.
	ErrDraftMissing = errors.New("flow draft missing or expired")
)

// ValidationError carries per-field messages back to the form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// invalid builds a single-field validation error.
func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// DraftStore stages partial flow input between steps.
type DraftStore interface {
	GetDraft(ctx context.Context, sessionID, flow string) ([]byte, error)
	SetDraft(ctx context.Context, sessionID, flow string, data []byte, ttl time.Duration) error
	DeleteDraft(ctx context.Context, sessionID, flow string) error
}

// Sender delivers the completion email for flows that opt in.
type Sender interface {
	Send(ctx context.Context, req *model.NotificationRequest) error
}

// Deps bundles what every flow needs.
type Deps struct {
	Store    store.Store
	Drafts   DraftStore
	Sender   Sender
	BaseURL  string
	DraftTTL time.Duration
	Logger   *slog.Logger
}

// Flows aggregates the six flow services plus bill management.
type Flows struct {
	Bill            *BillFlow
	Budget          *BudgetFlow
	NetWorth        *NetWorthFlow
	EmergencyFund   *EmergencyFundFlow
	FinancialHealth *FinancialHealthFlow
	Quiz            *QuizFlow
	Learning        *LearningService
}

// New wires every flow with shared dependencies.
func New(deps Deps) (*Flows, error) {
	quiz, err := NewQuizFlow(deps)
	if err != nil {
		return nil, err
	}
	return &Flows{
		Bill:            NewBillFlow(deps),
		Budget:          NewBudgetFlow(deps),
		NetWorth:        NewNetWorthFlow(deps),
		EmergencyFund:   NewEmergencyFundFlow(deps),
		FinancialHealth: NewFinancialHealthFlow(deps),
		Quiz:            quiz,
		Learning:        NewLearningService(deps),
	}, nil
}

// loadDraft unmarshals a staged draft into dst. A cache miss maps to
// ErrDraftMissing.
func loadDraft(ctx context.Context, drafts DraftStore, sessionID, flow string, dst any) error {
	data, err := drafts.GetDraft(ctx, sessionID, flow)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return ErrDraftMissing
		}
		return fmt.Errorf("load %s draft: %w", flow, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s draft: %w", flow, err)
	}
	return nil
}

// saveDraft marshals and stages a draft, refreshing its TTL.
func saveDraft(ctx context.Context, deps Deps, sessionID, flow string, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %s draft: %w", flow, err)
	}
	if err := deps.Drafts.SetDraft(ctx, sessionID, flow, data, deps.DraftTTL); err != nil {
		return fmt.Errorf("stage %s draft: %w", flow, err)
	}
	return nil
}

// parseAmount parses a money field, tolerating thousands separators
// the way the forms accept them ("50,000").
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("amount cannot be negative")
	}
	return d, nil
}

// notify sends a completion email, logging failures instead of
// propagating them: a broken mail provider never fails a flow.
func notify(ctx context.Context, deps Deps, req *model.NotificationRequest) {
	if deps.Sender == nil || req.To == "" {
		return
	}
	if err := deps.Sender.Send(ctx, req); err != nil {
		deps.Logger.Error("completion email failed",
			"to", req.To,
			"template", req.TemplateKey,
			"error", err,
		)
	}
}

// unsubscribeURL builds the opt-out link embedded in emails.
func unsubscribeURL(baseURL, path, email string) string {
	return baseURL + path + "?email=" + url.QueryEscape(email)
}

// badgeLabels translates badge keys for display in emails.
func badgeLabels(lang string, badges []string) []string {
	labels := make([]string, len(badges))
	for i, b := range badges {
		labels[i] = i18n.T(lang, b)
	}
	return labels
}

// validEmail is the permissive check the forms apply: an @ with
// something on both sides. Full RFC validation is the mail provider's
// problem.
func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1
}
