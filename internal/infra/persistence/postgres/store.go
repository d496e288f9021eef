// Package postgres provides a Postgres-backed workspace store that mirrors
// the in-memory semantics, snapshotting state into a JSONB bucket table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"sessioncore/internal/infra/persistence/memory"
	"sessioncore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/sessioncore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory
// implementation for transactions.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates the
// in-memory store from any existing snapshot.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

var postgresBuckets = []string{"animals", "days", "configuration_snapshots"}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	targets := map[string]any{
		"animals":                 &snapshot.Animals,
		"days":                    &snapshot.Days,
		"configuration_snapshots": &snapshot.ConfigSnapshots,
	}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		if target, ok := targets[bucket]; ok {
			if err := json.Unmarshal(payload, target); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range postgresBuckets {
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
			return fmt.Errorf("encode %s: %w", bucket, err)
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// RunInTransaction applies fn within a transaction, then snapshots state to
// Postgres if the transaction committed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) error {
	if err := s.Store.RunInTransaction(ctx, fn); err != nil {
		return err
	}
	return s.persist(ctx)
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
