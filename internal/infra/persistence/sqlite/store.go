// Package sqlite provides a SQLite-backed workspace store that mirrors the
// in-memory semantics and snapshots the full state after every successful
// transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"sessioncore/internal/infra/persistence/memory"
	"sessioncore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Store persists workspace state to a single SQLite table as JSON buckets.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store and
// hydrates the in-memory state from any existing snapshot at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "sessioncore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteBuckets = []string{"animals", "days", "configuration_snapshots"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := memory.Snapshot{}
	loaded := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		loaded = true
		switch bucket {
		case "animals":
			if err := json.Unmarshal(payload, &snapshot.Animals); err != nil {
				return fmt.Errorf("decode animals: %w", err)
			}
		case "days":
			if err := json.Unmarshal(payload, &snapshot.Days); err != nil {
				return fmt.Errorf("decode days: %w", err)
			}
		case "configuration_snapshots":
			if err := json.Unmarshal(payload, &snapshot.ConfigSnapshots); err != nil {
				return fmt.Errorf("decode configuration snapshots: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		s.ImportState(snapshot)
	}
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		var data []byte
		switch bucket {
		case "animals":
			data, err = json.Marshal(snapshot.Animals)
		case "days":
			data, err = json.Marshal(snapshot.Days)
		case "configuration_snapshots":
			data, err = json.Marshal(snapshot.ConfigSnapshots)
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// RunInTransaction applies fn within a transaction, then snapshots state to
// SQLite if the transaction committed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) error {
	if err := s.Store.RunInTransaction(ctx, fn); err != nil {
		return err
	}
	return s.persist()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
