package storage

import (
	"context"
	"fmt"

	"userbot/internal/core/port"
)

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open returns the store for driver. path is only used by SQLite.
func Open(ctx context.Context, driver, path string) (port.Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStore(ctx, path)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
