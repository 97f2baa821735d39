package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ViniDeiro/newalavancagem/internal/leverage"
)

// Supported store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds store configuration. DatabaseURL is only consulted for
// the postgres driver, SQLitePath only for sqlite.
type Config struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
}

// Store is the full persistence contract: user accounts plus the
// progression operations. Exactly one implementation is selected at
// startup; nothing else in the process knows which.
type Store interface {
	leverage.Store

	// CreateUser stores a new account. The user's ID and CreatedAt must be
	// populated by the caller.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID returns the user, or (nil, nil) when absent.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByName returns the user with the given login name, or
	// (nil, nil) when absent.
	GetUserByName(ctx context.Context, name string) (*User, error)

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Open connects the store selected by cfg.Driver and runs its
// migrations. The memory driver needs no configuration and loses all
// data on shutdown; it exists for development and tests.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL, logger)
	case DriverSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath, logger)
	case DriverMemory:
		logger.Warn().Msg("using in-memory store, data will not survive restarts")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
