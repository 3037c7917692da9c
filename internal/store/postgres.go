package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finwell/finwell/internal/model"
)

// PostgresStore persists records in a single jsonb-payload table with
// secondary indexes on owner_key, contact_email, and kind.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", errors.Join(ErrStoreUnwritable, err))
	}

	return &PostgresStore{pool: pool}, nil
}

const recordColumns = `id, owner_key, kind, contact_email, lang, created_at, payload`

// Append inserts a new record.
func (s *PostgresStore) Append(ctx context.Context, rec *model.Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	query := `
		INSERT INTO records (id, owner_key, kind, contact_email, lang, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.pool.Exec(ctx, query,
		rec.ID,
		rec.OwnerKey,
		string(rec.Kind),
		rec.ContactEmail,
		rec.Lang,
		rec.CreatedAt,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append record: %w", errors.Join(ErrStoreUnwritable, err))
	}
	return nil
}

// ReadAll returns every record ordered by creation time.
func (s *PostgresStore) ReadAll(ctx context.Context) ([]*model.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records ORDER BY created_at, id`
	return s.queryRecords(ctx, query)
}

// FilterByOwner uses the owner_key index.
func (s *PostgresStore) FilterByOwner(ctx context.Context, ownerKey string) ([]*model.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE owner_key = $1 ORDER BY created_at, id`
	return s.queryRecords(ctx, query, ownerKey)
}

// FilterByEmail uses the contact_email index.
func (s *PostgresStore) FilterByEmail(ctx context.Context, email string) ([]*model.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE contact_email = $1 ORDER BY created_at, id`
	return s.queryRecords(ctx, query, email)
}

// FilterByKind uses the kind index.
func (s *PostgresStore) FilterByKind(ctx context.Context, kind model.Kind) ([]*model.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE kind = $1 ORDER BY created_at, id`
	return s.queryRecords(ctx, query, string(kind))
}

// GetByID retrieves a single record.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*model.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record by ID: %w", err)
	}
	return rec, nil
}

// UpdateByID replaces the payload of an existing record. The kind
// predicate in the WHERE clause makes a kind change impossible.
func (s *PostgresStore) UpdateByID(ctx context.Context, id string, payload model.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	query := `UPDATE records SET payload = $2 WHERE id = $1 AND kind = $3`
	result, err := s.pool.Exec(ctx, query, id, data, string(payload.PayloadKind()))
	if err != nil {
		return fmt.Errorf("failed to update record: %w", errors.Join(ErrStoreUnwritable, err))
	}
	if result.RowsAffected() == 0 {
		// Distinguish a missing id from a kind mismatch.
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM records WHERE id = $1)`, id).Scan(&exists); err == nil && exists {
			return ErrKindMismatch
		}
		return ErrRecordNotFound
	}
	return nil
}

// DeleteByID removes the record.
func (s *PostgresStore) DeleteByID(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", errors.Join(ErrStoreUnwritable, err))
	}
	if result.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to PostgresStore.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresStore) queryRecords(ctx context.Context, query string, args ...any) ([]*model.Record, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

// scanRecord scans one row into a Record, decoding the payload by
// kind. contact_email and lang default to the empty string in the
// schema, so an absent contact address round-trips as such.
func scanRecord(row pgx.Row) (*model.Record, error) {
	var (
		rec     model.Record
		kind    string
		payload []byte
	)
	err := row.Scan(&rec.ID, &rec.OwnerKey, &kind, &rec.ContactEmail, &rec.Lang, &rec.CreatedAt, &payload)
	if err != nil {
		return nil, err
	}

	rec.Kind = model.Kind(kind)
	decoded, err := model.DecodePayload(rec.Kind, payload)
	if err != nil {
		return nil, err
	}
	rec.Payload = decoded
	return &rec, nil
}
