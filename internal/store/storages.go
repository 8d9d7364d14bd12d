package store

import (
	"context"
	"fmt"

	"github.com/planory/draftguard/internal/config"
	"github.com/planory/draftguard/internal/logger"
)

// Storages groups the client-side durable repositories into a single value
// that can be passed around the service layer.
type Storages struct {
	// Backups is the SQLite-backed repository for emergency backup
	// envelopes written when the fast cache is degraded and as the
	// restore source after a crash.
	Backups BackupRepository

	// Outbox is the SQLite-backed ordered queue of pending mutations.
	Outbox OutboxRepository
}

// NewStorages initialises the durable storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Constructs and returns a [Storages] value wired to fresh
//     repositories.
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewStorages(cfg config.DB, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		Backups: NewBackupRepository(db, logger),
		Outbox:  NewOutboxRepository(db, logger),
	}, nil
}
