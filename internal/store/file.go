package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/finwell/finwell/internal/model"
)

// FileStore persists records as one JSON array file per record kind
// under a data directory. Writes go through a temp file and rename so
// a crash mid-write never leaves a torn array behind.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates a FileStore rooted at dir, creating the
// directory if needed and verifying it is writable.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", errors.Join(ErrStoreUnwritable, err))
	}

	// Probe writability up front rather than failing on first append.
	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return nil, fmt.Errorf("data dir not writable: %w", errors.Join(ErrStoreUnwritable, err))
	}
	os.Remove(probe)

	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(kind model.Kind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

// readKind loads one kind's array. A missing file is an empty store.
func (s *FileStore) readKind(kind model.Kind) ([]*model.Record, error) {
	data, err := os.ReadFile(s.path(kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path(kind), err)
	}

	var records []*model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path(kind), err)
	}
	return records, nil
}

// writeKind replaces one kind's array atomically: marshal to a temp
// file in the same directory, then rename over the target.
func (s *FileStore) writeKind(kind model.Kind, records []*model.Record) error {
	if records == nil {
		records = []*model.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s records: %w", kind, err)
	}

	tmp, err := os.CreateTemp(s.dir, string(kind)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", errors.Join(ErrStoreUnwritable, err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", errors.Join(ErrStoreUnwritable, err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", errors.Join(ErrStoreUnwritable, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", errors.Join(ErrStoreUnwritable, err))
	}

	if err := os.Rename(tmpName, s.path(kind)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path(kind), errors.Join(ErrStoreUnwritable, err))
	}
	return nil
}

// Append inserts a new record into its kind's file.
func (s *FileStore) Append(ctx context.Context, rec *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readKind(rec.Kind)
	if err != nil {
		return err
	}
	records = append(records, rec)
	return s.writeKind(rec.Kind, records)
}

// ReadAll returns every record across all kinds.
func (s *FileStore) ReadAll(ctx context.Context) ([]*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*model.Record
	for _, kind := range model.ValidKinds {
		records, err := s.readKind(kind)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// FilterByOwner returns the records created under ownerKey.
func (s *FileStore) FilterByOwner(ctx context.Context, ownerKey string) ([]*model.Record, error) {
	return s.filter(func(r *model.Record) bool { return r.OwnerKey == ownerKey })
}

// FilterByEmail returns records with a matching contact email.
func (s *FileStore) FilterByEmail(ctx context.Context, email string) ([]*model.Record, error) {
	return s.filter(func(r *model.Record) bool { return r.ContactEmail == email })
}

// FilterByKind returns all records of one kind.
func (s *FileStore) FilterByKind(ctx context.Context, kind model.Kind) ([]*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readKind(kind)
}

func (s *FileStore) filter(keep func(*model.Record) bool) ([]*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*model.Record
	for _, kind := range model.ValidKinds {
		records, err := s.readKind(kind)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if keep(r) {
				matched = append(matched, r)
			}
		}
	}
	return matched, nil
}

// GetByID scans all kinds for the record.
func (s *FileStore) GetByID(ctx context.Context, id string) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, kind := range model.ValidKinds {
		records, err := s.readKind(kind)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if r.ID == id {
				return r, nil
			}
		}
	}
	return nil, ErrRecordNotFound
}

// UpdateByID replaces the payload of an existing record.
func (s *FileStore) UpdateByID(ctx context.Context, id string, payload model.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, kind := range model.ValidKinds {
		records, err := s.readKind(kind)
		if err != nil {
			return err
		}
		for _, r := range records {
			if r.ID != id {
				continue
			}
			if payload.PayloadKind() != r.Kind {
				return ErrKindMismatch
			}
			r.Payload = payload
			return s.writeKind(kind, records)
		}
	}
	return ErrRecordNotFound
}

// DeleteByID removes the record from its kind's file.
func (s *FileStore) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, kind := range model.ValidKinds {
		records, err := s.readKind(kind)
		if err != nil {
			return err
		}
		for i, r := range records {
			if r.ID == id {
				records = append(records[:i], records[i+1:]...)
				return s.writeKind(kind, records)
			}
		}
	}
	return ErrRecordNotFound
}

// Ping checks the data directory is still reachable and writable.
// Readiness depends on it, so this writes a probe file rather than
// just statting the directory.
func (s *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	probe := filepath.Join(s.dir, ".write-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return fmt.Errorf("data dir not writable: %w", err)
	}
	os.Remove(probe)
	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }

// Dir returns the data directory, used by the backup command.
func (s *FileStore) Dir() string { return s.dir }
