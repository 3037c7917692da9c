package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"github.com/finwell/finwell/internal/i18n"
	"github.com/finwell/finwell/internal/metrics"
	"github.com/finwell/finwell/internal/model"
	"github.com/finwell/finwell/internal/store"
)

// Sender delivers one notification request.
type Sender interface {
	Send(ctx context.Context, req *model.NotificationRequest) error
}

// DedupeMarker claims the daily send slot for a recipient. A nil
// marker disables deduplication.
type DedupeMarker interface {
	MarkReminderSent(ctx context.Context, day, email string) (bool, error)
}

// ReminderBatch groups reminder-eligible bills by contact email and
// sends one aggregated notification per address.
type ReminderBatch struct {
	store         store.Store
	sender        Sender
	marker        DedupeMarker
	defaultWindow int
	baseURL       string
	logger        *slog.Logger
	metrics       metrics.Recorder
}

// NewReminderBatch creates the reminder job. defaultWindow is the
// reminder window in days for bills that do not set their own.
func NewReminderBatch(st store.Store, sender Sender, marker DedupeMarker, defaultWindow int, baseURL string, logger *slog.Logger) *ReminderBatch {
	return &ReminderBatch{
		store:         st,
		sender:        sender,
		marker:        marker,
		defaultWindow: defaultWindow,
		baseURL:       baseURL,
		logger:        logger.With("component", "scheduler.reminders"),
		metrics:       metrics.NewNoop(),
	}
}

// WithMetrics attaches a metrics recorder for sent reminders.
func (b *ReminderBatch) WithMetrics(m metrics.Recorder) *ReminderBatch {
	b.metrics = m
	return b
}

// Name implements Job.
func (b *ReminderBatch) Name() string { return "reminder-batch" }

// group collects one recipient's reminder-eligible bills before
// rendering, so the email language can be chosen across the whole
// group rather than from whichever record happened to come first.
type group struct {
	firstName string
	langVotes map[string]int
	bills     []*model.Bill
}

// lang picks the group's most common record language; ties break
// lexicographically so reruns pick the same one.
func (g *group) lang() string {
	var best string
	var bestN int
	for lang, n := range g.langVotes {
		if lang == "" {
			continue
		}
		if n > bestN || (n == bestN && (best == "" || lang < best)) {
			best, bestN = lang, n
		}
	}
	return best
}

// Run builds and sends the day's reminder emails. One failed recipient
// never blocks the rest.
func (b *ReminderBatch) Run(ctx context.Context, today model.Date) error {
	records, err := b.store.FilterByKind(ctx, model.KindBill)
	if err != nil {
		return fmt.Errorf("load bills: %w", err)
	}

	groups := make(map[string]*group)
	for _, rec := range records {
		bill, ok := rec.Payload.(*model.Bill)
		if !ok || rec.ContactEmail == "" {
			continue
		}
		if !bill.NeedsReminder(today, b.defaultWindow) {
			continue
		}

		g, ok := groups[rec.ContactEmail]
		if !ok {
			g = &group{firstName: bill.FirstName, langVotes: make(map[string]int)}
			groups[rec.ContactEmail] = g
		}
		if g.firstName == "" {
			g.firstName = bill.FirstName
		}
		g.langVotes[rec.Lang]++
		g.bills = append(g.bills, bill)
	}

	// Deterministic send order.
	emails := make([]string, 0, len(groups))
	for email := range groups {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	var sent int
	for _, email := range emails {
		if !b.claim(ctx, today, email) {
			continue
		}
		if err := b.send(ctx, email, groups[email]); err != nil {
			b.logger.Error("reminder send failed", "to", email, "error", err)
			continue
		}
		b.metrics.IncReminderSent()
		sent++
	}

	b.logger.Info("reminder batch completed", "recipients", len(groups), "sent", sent)
	return nil
}

// claim asks the dedupe marker for the day's send slot. When the
// marker is unavailable the batch proceeds: a duplicate reminder beats
// a silently dropped one.
func (b *ReminderBatch) claim(ctx context.Context, today model.Date, email string) bool {
	if b.marker == nil {
		return true
	}
	won, err := b.marker.MarkReminderSent(ctx, today.String(), email)
	if err != nil {
		b.logger.Warn("reminder dedupe unavailable, sending anyway", "to", email, "error", err)
		return true
	}
	if !won {
		b.logger.Debug("reminder already sent today", "to", email)
	}
	return won
}

func (b *ReminderBatch) send(ctx context.Context, email string, g *group) error {
	lang := g.lang()
	items := make([]map[string]any, 0, len(g.bills))
	for _, bill := range g.bills {
		items = append(items, map[string]any{
			"bill_name": bill.BillName,
			"amount":    bill.Amount.StringFixed(2),
			"due_date":  bill.DueDate.String(),
			"category":  i18n.T(lang, "bill_category_"+bill.Category),
			"status":    i18n.T(lang, "bill_status_"+string(bill.Status)),
		})
	}
	return b.sender.Send(ctx, &model.NotificationRequest{
		To:          email,
		TemplateKey: model.TemplateBillReminder,
		Data: map[string]any{
			"first_name":      g.firstName,
			"bills":           items,
			"cta_url":         b.baseURL + "/bills/dashboard",
			"unsubscribe_url": b.baseURL + "/bills/unsubscribe?email=" + url.QueryEscape(email),
		},
		Lang: lang,
	})
}
