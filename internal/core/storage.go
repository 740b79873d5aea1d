package core

import (
	"context"
	"fmt"
	"io"

	"monkeycore/internal/infra/persistence/memory"
	"monkeycore/internal/infra/persistence/postgres"
	"monkeycore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and locates the persistent store.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// OpenPersistentStore opens the configured backend, defaulting to sqlite.
// Stores holding external resources implement io.Closer.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, engine *RulesEngine) (PersistentStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, engine)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// CloseStore releases store resources when the backend holds any.
func CloseStore(store PersistentStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
