package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finwell/finwell/internal/model"
)

// fakeProvider scripts per-call results and records every attempt.
type fakeProvider struct {
	name       string
	configured bool
	results    []error
	calls      int
	lastMsg    *Message
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Send(ctx context.Context, msg *Message) error {
	f.lastMsg = msg
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx]
}

func newTestDispatcher(recorder DeliveryRecorder, providers ...Provider) *Dispatcher {
	renderer, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(renderer, logger, recorder, providers...)
	d.backoff = func(int) time.Duration { return 0 }
	return d
}

func reminderReq() *model.NotificationRequest {
	return &model.NotificationRequest{
		To:          "a@example.com",
		TemplateKey: model.TemplateBillReminder,
		Data: map[string]any{
			"first_name": "Aisha",
			"bills":      []map[string]any{{"bill_name": "Rent", "amount": "50000", "due_date": "2025-01-01", "status": "unpaid"}},
		},
		Lang: "en",
	}
}

func TestDispatcher_FirstProviderSucceeds(t *testing.T) {
	primary := &fakeProvider{name: "mailersend", configured: true, results: []error{nil}}
	fallback := &fakeProvider{name: "smtp", configured: true, results: []error{nil}}
	d := newTestDispatcher(nil, primary, fallback)

	err := d.Send(context.Background(), reminderReq())
	require.NoError(t, err)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 0, fallback.calls, "fallback must not be tried on success")
	require.Equal(t, "Bill Payment Reminder", primary.lastMsg.Subject)
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	primary := &fakeProvider{name: "mailersend", configured: true, results: []error{
		Retriable(errors.New("timeout")),
		Retriable(errors.New("timeout")),
		nil,
	}}
	d := newTestDispatcher(nil, primary)

	err := d.Send(context.Background(), reminderReq())
	require.NoError(t, err)
	require.Equal(t, 3, primary.calls)
}

func TestDispatcher_FallsBackAfterExhaustion(t *testing.T) {
	primary := &fakeProvider{name: "mailersend", configured: true, results: []error{
		Retriable(errors.New("503")),
	}}
	fallback := &fakeProvider{name: "smtp", configured: true, results: []error{nil}}
	d := newTestDispatcher(nil, primary, fallback)

	err := d.Send(context.Background(), reminderReq())
	require.NoError(t, err)
	require.Equal(t, MaxAttempts, primary.calls)
	require.Equal(t, 1, fallback.calls)
}

func TestDispatcher_NonRetriableSkipsRemainingAttempts(t *testing.T) {
	primary := &fakeProvider{name: "mailersend", configured: true, results: []error{
		errors.New("422 invalid recipient"),
	}}
	fallback := &fakeProvider{name: "smtp", configured: true, results: []error{nil}}
	d := newTestDispatcher(nil, primary, fallback)

	err := d.Send(context.Background(), reminderReq())
	require.NoError(t, err)
	require.Equal(t, 1, primary.calls, "permanent rejection must not be retried")
	require.Equal(t, 1, fallback.calls)
}

func TestDispatcher_AllProvidersFail(t *testing.T) {
	primary := &fakeProvider{name: "mailersend", configured: true, results: []error{
		Retriable(errors.New("down")),
	}}
	fallback := &fakeProvider{name: "smtp", configured: true, results: []error{
		errors.New("auth failed"),
	}}
	d := newTestDispatcher(nil, primary, fallback)

	err := d.Send(context.Background(), reminderReq())
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.Equal(t, MaxAttempts, primary.calls)
	require.Equal(t, 1, fallback.calls)
}

func TestDispatcher_SkipsUnconfiguredProvider(t *testing.T) {
	primary := &fakeProvider{name: "mailersend", configured: false, results: []error{nil}}
	fallback := &fakeProvider{name: "smtp", configured: true, results: []error{nil}}
	d := newTestDispatcher(nil, primary, fallback)

	err := d.Send(context.Background(), reminderReq())
	require.NoError(t, err)
	require.Equal(t, 0, primary.calls)
	require.Equal(t, 1, fallback.calls)
}

func TestDispatcher_NoConfiguredProviders(t *testing.T) {
	primary := &fakeProvider{name: "mailersend", configured: false, results: []error{nil}}
	d := newTestDispatcher(nil, primary)

	err := d.Send(context.Background(), reminderReq())
	require.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestDispatcher_ProviderSpecificTemplate(t *testing.T) {
	// The smtp provider has its own bill reminder variant.
	primary := &fakeProvider{name: "mailersend", configured: true, results: []error{
		errors.New("rejected"),
	}}
	fallback := &fakeProvider{name: "smtp", configured: true, results: []error{nil}}
	d := newTestDispatcher(nil, primary, fallback)

	err := d.Send(context.Background(), reminderReq())
	require.NoError(t, err)
	require.NotEqual(t, primary.lastMsg.HTML, fallback.lastMsg.HTML)
	require.Contains(t, fallback.lastMsg.HTML, "Rent: 50000")
}

func TestDispatcher_SubjectOverride(t *testing.T) {
	primary := &fakeProvider{name: "mailersend", configured: true, results: []error{nil}}
	d := newTestDispatcher(nil, primary)

	req := reminderReq()
	req.Subject = "Custom subject"
	require.NoError(t, d.Send(context.Background(), req))
	require.Equal(t, "Custom subject", primary.lastMsg.Subject)
}

type captureRecorder struct {
	entries []*DeliveryEntry
}

func (c *captureRecorder) Record(ctx context.Context, entry *DeliveryEntry) {
	c.entries = append(c.entries, entry)
}

func TestDispatcher_RecordsOutcomes(t *testing.T) {
	rec := &captureRecorder{}
	primary := &fakeProvider{name: "mailersend", configured: true, results: []error{
		errors.New("rejected"),
	}}
	fallback := &fakeProvider{name: "smtp", configured: true, results: []error{nil}}
	d := newTestDispatcher(rec, primary, fallback)

	require.NoError(t, d.Send(context.Background(), reminderReq()))
	require.Len(t, rec.entries, 2)

	require.Equal(t, "mailersend", rec.entries[0].Provider)
	require.False(t, rec.entries[0].Succeeded)
	require.NotEmpty(t, rec.entries[0].Error)

	require.Equal(t, "smtp", rec.entries[1].Provider)
	require.True(t, rec.entries[1].Succeeded)
	require.Equal(t, 1, rec.entries[1].Attempts)
}

func TestDefaultBackoffDoubles(t *testing.T) {
	require.Equal(t, 2*time.Second, defaultBackoff(1))
	require.Equal(t, 4*time.Second, defaultBackoff(2))
}
