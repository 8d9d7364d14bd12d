package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/planory/draftguard/internal/logger"
	"github.com/planory/draftguard/models"
)

type backupRepository struct {
	*DB
	logger *logger.Logger
}

func NewBackupRepository(db *DB, logger *logger.Logger) BackupRepository {
	return &backupRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *backupRepository) SaveBackup(ctx context.Context, key string, envelope models.BackupEnvelope) error {
	log := logger.FromContext(ctx)

	_, err := r.DB.ExecContext(ctx, upsertBackup,
		key,
		string(envelope.Data),
		envelope.Timestamp,
		envelope.Version,
	)
	if err != nil {
		log.Err(err).
			Str("func", "backupRepository.SaveBackup").
			Str("key", key).
			Msg("failed to execute upsert for backup envelope")
		return fmt.Errorf("failed to save backup (key=%s): %w", key, err)
	}

	return nil
}

func (r *backupRepository) GetBackup(ctx context.Context, key string) (models.BackupEnvelope, error) {
	log := logger.FromContext(ctx)

	var (
		data     string
		envelope models.BackupEnvelope
	)
	row := r.DB.QueryRowContext(ctx, getBackup, key)

	scanErr := row.Scan(&data, &envelope.Timestamp, &envelope.Version)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return models.BackupEnvelope{}, fmt.Errorf("no backup for key %s: %w", key, ErrBackupNotFound)
		}
		log.Err(scanErr).
			Str("func", "backupRepository.GetBackup").
			Str("key", key).
			Msg("failed to scan backup row")
		return models.BackupEnvelope{}, fmt.Errorf("failed to scan backup row: %w", scanErr)
	}

	envelope.Data = json.RawMessage(data)
	return envelope, nil
}

func (r *backupRepository) ClearBackup(ctx context.Context, key string) error {
	log := logger.FromContext(ctx)

	_, err := r.DB.ExecContext(ctx, clearBackup, key)
	if err != nil {
		log.Err(err).
			Str("func", "backupRepository.ClearBackup").
			Str("key", key).
			Msg("failed to execute delete for backup envelope")
		return fmt.Errorf("failed to clear backup (key=%s): %w", key, err)
	}

	return nil
}
