package flow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finwell/finwell/internal/cache"
	"github.com/finwell/finwell/internal/model"
	"github.com/finwell/finwell/internal/store"
)

// memDrafts is an in-memory DraftStore. TTLs are ignored.
type memDrafts struct {
	data map[string][]byte
}

func newMemDrafts() *memDrafts {
	return &memDrafts{data: make(map[string][]byte)}
}

func (m *memDrafts) key(sessionID, flow string) string { return sessionID + ":" + flow }

func (m *memDrafts) GetDraft(_ context.Context, sessionID, flow string) ([]byte, error) {
	data, ok := m.data[m.key(sessionID, flow)]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return data, nil
}

func (m *memDrafts) SetDraft(_ context.Context, sessionID, flow string, data []byte, _ time.Duration) error {
	m.data[m.key(sessionID, flow)] = data
	return nil
}

func (m *memDrafts) DeleteDraft(_ context.Context, sessionID, flow string) error {
	delete(m.data, m.key(sessionID, flow))
	return nil
}

type fakeSender struct {
	requests []*model.NotificationRequest
	err      error
}

func (s *fakeSender) Send(_ context.Context, req *model.NotificationRequest) error {
	s.requests = append(s.requests, req)
	return s.err
}

type flowEnv struct {
	flows  *Flows
	store  store.Store
	drafts *memDrafts
	sender *fakeSender
}

func newFlowEnv(t *testing.T) *flowEnv {
	t.Helper()
	fileStore, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	drafts := newMemDrafts()
	sender := &fakeSender{}
	flows, err := New(Deps{
		Store:    fileStore,
		Drafts:   drafts,
		Sender:   sender,
		BaseURL:  "http://localhost:8080",
		DraftTTL: time.Hour,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return &flowEnv{flows: flows, store: fileStore, drafts: drafts, sender: sender}
}

func TestParseAmount(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "50000", want: "50000"},
		{in: "50,000.25", want: "50000.25"},
		{in: " 120 ", want: "120"},
		{in: "", want: "0"},
		{in: "-5", wantErr: true},
		{in: "abc", wantErr: true},
	} {
		got, err := parseAmount(tc.in)
		if tc.wantErr {
			require.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got.String(), "input %q", tc.in)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := invalid("amount", "enter a valid amount")
	require.Contains(t, err.Error(), "amount: enter a valid amount")

	var verr *ValidationError
	require.True(t, errors.As(error(err), &verr))
}

func TestBillFlow_TwoStepsCreateBill(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	err := env.flows.Bill.SaveStep1(ctx, "sid-1", BillStep1{
		FirstName: "Aisha",
		Email:     "aisha@example.com",
		BillName:  "Rent",
		Amount:    "50,000",
		DueDate:   "2100-01-15",
	})
	require.NoError(t, err)

	rec, err := env.flows.Bill.CompleteStep2(ctx, "sid-1", "en", BillStep2{
		Frequency:    model.FrequencyMonthly,
		Category:     "rent",
		Status:       model.BillStatusUnpaid,
		SendEmail:    true,
		ReminderDays: 3,
	})
	require.NoError(t, err)

	bill := rec.Payload.(*model.Bill)
	require.Equal(t, "Rent", bill.BillName)
	require.Equal(t, "50000", bill.Amount.String())
	require.Equal(t, model.BillStatusUnpaid, bill.Status)
	require.Equal(t, "aisha@example.com", rec.ContactEmail)

	// Confirmation email with dashboard and opt-out links.
	require.Len(t, env.sender.requests, 1)
	req := env.sender.requests[0]
	require.Equal(t, model.TemplateBillReminder, req.TemplateKey)
	require.Equal(t, "http://localhost:8080/bills/dashboard", req.Data["cta_url"])
	require.Equal(t, "http://localhost:8080/bills/unsubscribe?email=aisha%40example.com", req.Data["unsubscribe_url"])

	// Draft is gone; a second completion has nothing to build from.
	_, err = env.flows.Bill.CompleteStep2(ctx, "sid-1", "en", BillStep2{
		Frequency: model.FrequencyMonthly,
		Category:  "rent",
		Status:    model.BillStatusUnpaid,
	})
	require.ErrorIs(t, err, ErrDraftMissing)
}

func TestBillFlow_Step2WithoutStep1(t *testing.T) {
	env := newFlowEnv(t)

	_, err := env.flows.Bill.CompleteStep2(context.Background(), "sid-none", "en", BillStep2{
		Frequency: model.FrequencyMonthly,
		Category:  "rent",
		Status:    model.BillStatusUnpaid,
	})
	require.ErrorIs(t, err, ErrDraftMissing)
}

func TestBillFlow_Validation(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	var verr *ValidationError

	err := env.flows.Bill.SaveStep1(ctx, "s", BillStep1{Amount: "10", DueDate: "2100-01-01"})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "bill_name")

	err = env.flows.Bill.SaveStep1(ctx, "s", BillStep1{BillName: "Rent", Amount: "10", DueDate: "2001-01-01"})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "due_date")

	require.NoError(t, env.flows.Bill.SaveStep1(ctx, "s", BillStep1{
		BillName: "Rent", Amount: "10", DueDate: "2100-01-01",
	}))
	_, err = env.flows.Bill.CompleteStep2(ctx, "s", "en", BillStep2{
		Frequency: model.FrequencyMonthly,
		Category:  "rent",
		SendEmail: true, // reminder days missing
	})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "reminder_days")
}

func TestBillFlow_ToggleAndRecurring(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	require.NoError(t, env.flows.Bill.SaveStep1(ctx, "sid-1", BillStep1{
		BillName: "Rent", Amount: "10", DueDate: "2100-01-31",
	}))
	rec, err := env.flows.Bill.CompleteStep2(ctx, "sid-1", "en", BillStep2{
		Frequency: model.FrequencyMonthly,
		Category:  "rent",
		Status:    model.BillStatusUnpaid,
	})
	require.NoError(t, err)

	toggled, err := env.flows.Bill.ToggleStatus(ctx, "sid-1", rec.ID)
	require.NoError(t, err)
	require.Equal(t, model.BillStatusPaid, toggled.Payload.(*model.Bill).Status)

	// Paying a recurring bill appends its next occurrence.
	records, err := env.flows.Bill.List(ctx, "sid-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	var next *model.Bill
	for _, r := range records {
		if r.ID != rec.ID {
			next = r.Payload.(*model.Bill)
		}
	}
	require.NotNil(t, next)
	require.Equal(t, model.BillStatusUnpaid, next.Status)
	require.Equal(t, "2100-03-02", next.DueDate.String())

	// Other sessions cannot touch the bill.
	_, err = env.flows.Bill.ToggleStatus(ctx, "sid-other", rec.ID)
	require.Error(t, err)
}

func TestBillFlow_Unsubscribe(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	for _, name := range []string{"Rent", "Power"} {
		require.NoError(t, env.flows.Bill.SaveStep1(ctx, "sid-1", BillStep1{
			BillName: name, Email: "aisha@example.com", Amount: "10", DueDate: "2100-01-01",
		}))
		_, err := env.flows.Bill.CompleteStep2(ctx, "sid-1", "en", BillStep2{
			Frequency: model.FrequencyMonthly, Category: "rent",
			Status: model.BillStatusUnpaid, SendEmail: true, ReminderDays: 3,
		})
		require.NoError(t, err)
	}

	updated, err := env.flows.Bill.Unsubscribe(ctx, "aisha@example.com")
	require.NoError(t, err)
	require.Equal(t, 2, updated)

	records, err := env.flows.Bill.List(ctx, "sid-1")
	require.NoError(t, err)
	for _, rec := range records {
		require.False(t, rec.Payload.(*model.Bill).SendEmail)
	}
}

func TestBudgetFlow_FourSteps(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	require.NoError(t, env.flows.Budget.SaveStep1(ctx, "sid-1", BudgetStep1{
		FirstName: "Bello", Email: "bello@example.com", SendEmail: true,
	}))
	require.NoError(t, env.flows.Budget.SaveStep2(ctx, "sid-1", "200000"))
	require.NoError(t, env.flows.Budget.SaveStep3(ctx, "sid-1", BudgetStep3{
		Housing: "60000", Food: "40000", Transport: "15000",
		Dependents: "20000", Miscellaneous: "5000", Others: "10000",
	}))

	rec, err := env.flows.Budget.CompleteStep4(ctx, "sid-1", "en", "30000")
	require.NoError(t, err)

	budget := rec.Payload.(*model.Budget)
	require.Equal(t, "150000", budget.FixedExpenses.String())
	require.Equal(t, "20000", budget.SurplusDeficit.String())

	require.Len(t, env.sender.requests, 1)
	require.Equal(t, model.TemplateBudget, env.sender.requests[0].TemplateKey)

	latest, err := env.flows.Budget.Latest(ctx, "sid-1")
	require.NoError(t, err)
	require.Equal(t, rec.ID, latest.ID)
}

func TestBudgetFlow_StepOrderEnforced(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	require.NoError(t, env.flows.Budget.SaveStep1(ctx, "sid-1", BudgetStep1{FirstName: "Bello"}))

	// Step 3 without step 2.
	err := env.flows.Budget.SaveStep3(ctx, "sid-1", BudgetStep3{
		Housing: "1", Food: "1", Transport: "1",
		Dependents: "1", Miscellaneous: "1", Others: "1",
	})
	require.ErrorIs(t, err, ErrDraftMissing)

	// Step 4 without step 3.
	require.NoError(t, env.flows.Budget.SaveStep2(ctx, "sid-1", "100"))
	_, err = env.flows.Budget.CompleteStep4(ctx, "sid-1", "en", "10")
	require.ErrorIs(t, err, ErrDraftMissing)
}

func TestNetWorthFlow_ThreeSteps(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	require.NoError(t, env.flows.NetWorth.SaveStep1(ctx, "sid-1", NetWorthStep1{
		FirstName: "Chidi", Email: "chidi@example.com", SendEmail: true,
	}))
	require.NoError(t, env.flows.NetWorth.SaveStep2(ctx, "sid-1", NetWorthStep2{
		CashSavings: "100000", Investments: "250000", Property: "1,000,000",
	}))

	rec, err := env.flows.NetWorth.CompleteStep3(ctx, "sid-1", "en", "150000")
	require.NoError(t, err)

	nw := rec.Payload.(*model.NetWorth)
	require.Equal(t, "1350000", nw.TotalAssets.String())
	require.Equal(t, "150000", nw.TotalLiabilities.String())
	require.Equal(t, "1200000", nw.NetWorth.String())
	require.NotEmpty(t, nw.Badges)

	require.Len(t, env.sender.requests, 1)
	require.Equal(t, model.TemplateNetWorth, env.sender.requests[0].TemplateKey)
}

func TestFlow_SenderFailureDoesNotFailCompletion(t *testing.T) {
	env := newFlowEnv(t)
	env.sender.err = errors.New("mail provider down")
	ctx := context.Background()

	require.NoError(t, env.flows.Bill.SaveStep1(ctx, "sid-1", BillStep1{
		BillName: "Rent", Email: "a@example.com", Amount: "10", DueDate: "2100-01-01",
	}))
	rec, err := env.flows.Bill.CompleteStep2(ctx, "sid-1", "en", BillStep2{
		Frequency: model.FrequencyMonthly, Category: "rent",
		Status: model.BillStatusUnpaid, SendEmail: true, ReminderDays: 3,
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
}
