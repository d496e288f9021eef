package core

import (
	"sessioncore/internal/infra/persistence/memory"
	"sessioncore/internal/infra/persistence/postgres"
	"sessioncore/internal/infra/persistence/sqlite"
)

// NewMemoryStore constructs the in-memory workspace store.
func NewMemoryStore() *memory.Store {
	return memory.NewStore()
}

// NewSQLiteStore constructs a SQLite-backed persistent store using the
// provided file path (may be empty for default).
func NewSQLiteStore(path string) (*sqlite.Store, error) {
	return sqlite.NewStore(path)
}

// NewPostgresStore constructs a Postgres-backed store from the provided DSN.
func NewPostgresStore(dsn string) (*postgres.Store, error) {
	return postgres.NewStore(dsn)
}
