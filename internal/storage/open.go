package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/the-stock-must-flow/internal/service"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and locates a storage backend.
type Config struct {
	Driver string
	Path   string // sqlite file
	URL    string // postgres connection string
}

// Open creates the configured backend and runs its migrations.
func Open(ctx context.Context, cfg Config) (service.Storage, error) {
	var (
		store service.Storage
		err   error
	)

	switch strings.ToLower(cfg.Driver) {
	case DriverMemory, "":
		store = NewMemoryStorage()
	case DriverSQLite, "sqlite3":
		store, err = NewSQLiteStorage(cfg.Path)
	case DriverPostgres, "postgresql":
		store, err = NewPostgresStorage(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDatabase, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
