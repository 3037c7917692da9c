// Package store provides the record persistence layer.
//
// Three interchangeable backends exist: a flat-file JSON store, a
// PostgreSQL store, and a MongoDB store. All of them implement one
// contract: update and delete on a missing id return ErrRecordNotFound
// and never create a record as a side effect.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/finwell/finwell/internal/model"
)

// Common errors for record store operations.
var (
	// ErrRecordNotFound is returned by GetByID, UpdateByID, and
	// DeleteByID when no record has the given id.
	ErrRecordNotFound = errors.New("record not found")

	// ErrStoreUnwritable is returned when the backing medium rejects
	// writes (filesystem permissions, unreachable database).
	ErrStoreUnwritable = errors.New("store is not writable")

	// ErrKindMismatch is returned when an update would change a
	// record's kind.
	ErrKindMismatch = errors.New("payload kind does not match record kind")
)

// Store persists record envelopes. Implementations are safe for
// concurrent use by request handlers and the background scheduler.
type Store interface {
	// Append inserts a new record. The record id must be unique for
	// the store's lifetime.
	Append(ctx context.Context, rec *model.Record) error

	// ReadAll returns every record. Linear cost on the file backend.
	ReadAll(ctx context.Context) ([]*model.Record, error)

	// FilterByOwner returns the records created under ownerKey, and
	// no others.
	FilterByOwner(ctx context.Context, ownerKey string) ([]*model.Record, error)

	// FilterByEmail returns records whose denormalized contact email
	// matches. Used for cross-session lookup and unsubscribe.
	FilterByEmail(ctx context.Context, email string) ([]*model.Record, error)

	// FilterByKind returns all records of one kind, for sweeps and
	// reminder batches.
	FilterByKind(ctx context.Context, kind model.Kind) ([]*model.Record, error)

	// GetByID returns the record or ErrRecordNotFound.
	GetByID(ctx context.Context, id string) (*model.Record, error)

	// UpdateByID replaces the record's payload. The payload kind must
	// match the stored kind. Never upserts.
	UpdateByID(ctx context.Context, id string, payload model.Payload) error

	// DeleteByID removes the record or returns ErrRecordNotFound.
	DeleteByID(ctx context.Context, id string) error

	// Ping checks the backing medium's reachability.
	Ping(ctx context.Context) error

	// Close releases held resources.
	Close() error
}

// Open constructs the store selected by backend.
func Open(ctx context.Context, backend, dataDir, databaseURL, mongoURL, mongoDatabase string) (Store, error) {
	switch backend {
	case "file":
		return NewFileStore(dataDir)
	case "postgres":
		return NewPostgresStore(ctx, databaseURL)
	case "mongo":
		return NewMongoStore(ctx, mongoURL, mongoDatabase)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
