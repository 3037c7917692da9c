package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finwell/finwell/internal/model"
	"github.com/finwell/finwell/internal/testutil"
)

// setupPostgres connects, serializes against other DB tests and
// resets the records schema. Skips unless TEST_DATABASE_URL is set.
func setupPostgres(t *testing.T) (*PostgresStore, context.Context) {
	t.Helper()

	databaseURL := testutil.RequireEnv(t, "TEST_DATABASE_URL")
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() { _ = unlock() })

	if err := testutil.ResetRecordsSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	s, err := NewPostgresStore(ctx, databaseURL)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s, ctx
}

func TestPostgresStore_AppendGetRoundTrip(t *testing.T) {
	s, ctx := setupPostgres(t)

	rec := model.NewRecord("s1", testBill("Rent"), "a@example.com", "en")
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.OwnerKey != "s1" {
		t.Errorf("owner key = %s, want s1", got.OwnerKey)
	}
	bill, ok := got.Payload.(*model.Bill)
	if !ok {
		t.Fatalf("payload type = %T", got.Payload)
	}
	if bill.BillName != "Rent" {
		t.Errorf("bill name = %s, want Rent", bill.BillName)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt.Truncate(time.Microsecond)) {
		t.Errorf("created at drifted: %v vs %v", got.CreatedAt, rec.CreatedAt)
	}
}

// Contact email is optional on the envelope; a record without one
// must insert and round-trip as the empty string against the
// NOT NULL empty-string-default columns.
func TestPostgresStore_AppendWithoutContactEmail(t *testing.T) {
	s, ctx := setupPostgres(t)

	rec := model.NewRecord("s1", testBill("Water"), "", "")
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append without contact email: %v", err)
	}

	got, err := s.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ContactEmail != "" {
		t.Errorf("contact email = %q, want empty", got.ContactEmail)
	}
	if got.Lang != "" {
		t.Errorf("lang = %q, want empty", got.Lang)
	}

	// The partial contact_email index must not surface empty-address
	// records for an empty filter value in callers; the store itself
	// answers the literal query.
	matches, err := s.FilterByEmail(ctx, "")
	if err != nil {
		t.Fatalf("FilterByEmail: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected the record under the empty address, got %d", len(matches))
	}
}

func TestPostgresStore_FilterByOwnerAndKind(t *testing.T) {
	s, ctx := setupPostgres(t)

	for _, owner := range []string{"s1", "s1", "s2"} {
		if err := s.Append(ctx, model.NewRecord(owner, testBill("Bill"), "", "en")); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	mine, err := s.FilterByOwner(ctx, "s1")
	if err != nil {
		t.Fatalf("FilterByOwner: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 records for s1, got %d", len(mine))
	}

	bills, err := s.FilterByKind(ctx, model.KindBill)
	if err != nil {
		t.Fatalf("FilterByKind: %v", err)
	}
	if len(bills) != 3 {
		t.Errorf("expected 3 bills, got %d", len(bills))
	}
}

func TestPostgresStore_UpdateMissingNeverCreates(t *testing.T) {
	s, ctx := setupPostgres(t)

	err := s.UpdateByID(ctx, "01MISSING", testBill("Ghost"))
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}

	all, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("update on missing id created %d records", len(all))
	}
}

func TestPostgresStore_DeleteByID(t *testing.T) {
	s, ctx := setupPostgres(t)

	rec := model.NewRecord("s1", testBill("Power"), "", "en")
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := s.DeleteByID(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if err := s.DeleteByID(ctx, rec.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("second delete: expected ErrRecordNotFound, got %v", err)
	}
}
