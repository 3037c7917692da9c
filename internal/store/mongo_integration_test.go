package store

import (
	"context"
	"errors"
	"testing"

	"github.com/finwell/finwell/internal/model"
	"github.com/finwell/finwell/internal/testutil"
)

// setupMongo connects to a throwaway database and drops it afterwards.
// Skips unless TEST_MONGO_URL is set.
func setupMongo(t *testing.T) (*MongoStore, context.Context) {
	t.Helper()

	mongoURL := testutil.RequireEnv(t, "TEST_MONGO_URL")
	ctx := context.Background()

	s, err := NewMongoStore(ctx, mongoURL, "finwell_test")
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Drop(context.Background())
		_ = s.Close()
	})

	return s, ctx
}

func TestMongoStore_AppendGetRoundTrip(t *testing.T) {
	s, ctx := setupMongo(t)

	rec := model.NewRecord("s1", testBill("Rent"), "a@example.com", "en")
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	bill, ok := got.Payload.(*model.Bill)
	if !ok {
		t.Fatalf("payload type = %T", got.Payload)
	}
	if bill.BillName != "Rent" {
		t.Errorf("bill name = %s, want Rent", bill.BillName)
	}
}

func TestMongoStore_FilterByEmail(t *testing.T) {
	s, ctx := setupMongo(t)

	if err := s.Append(ctx, model.NewRecord("s1", testBill("Rent"), "a@example.com", "en")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, model.NewRecord("s2", testBill("Data"), "b@example.com", "en")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := s.FilterByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("FilterByEmail: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestMongoStore_UpdateAndDelete(t *testing.T) {
	s, ctx := setupMongo(t)

	rec := model.NewRecord("s1", testBill("Power"), "", "en")
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	updated := testBill("Power")
	updated.Status = model.BillStatusPaid
	if err := s.UpdateByID(ctx, rec.ID, updated); err != nil {
		t.Fatalf("UpdateByID: %v", err)
	}

	got, err := s.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Payload.(*model.Bill).Status != model.BillStatusPaid {
		t.Errorf("update did not stick")
	}

	if err := s.DeleteByID(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if _, err := s.GetByID(ctx, rec.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound after delete, got %v", err)
	}
}
