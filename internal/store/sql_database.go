package store

import (
	"database/sql"

	"github.com/planory/draftguard/internal/logger"
	"github.com/planory/draftguard/migrations"
)

type DB struct {
	*sql.DB
	logger *logger.Logger
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}
