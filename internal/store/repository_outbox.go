package store

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/planory/draftguard/internal/logger"
	"github.com/planory/draftguard/models"
)

type outboxRepository struct {
	*DB
	logger *logger.Logger
}

func NewOutboxRepository(db *DB, logger *logger.Logger) OutboxRepository {
	return &outboxRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *outboxRepository) Enqueue(ctx context.Context, m models.Mutation) error {
	log := logger.FromContext(ctx)

	_, err := r.DB.ExecContext(ctx, enqueueMutation,
		m.ID,
		string(m.Op),
		m.Entity,
		string(m.Payload),
		string(m.Status),
		m.CreatedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.Enqueue").
			Str("mutation_id", m.ID).
			Str("entity", m.Entity).
			Msg("failed to execute insert for outbox mutation")
		return fmt.Errorf("failed to enqueue mutation (id=%s): %w", m.ID, err)
	}

	return nil
}

func (r *outboxRepository) Remove(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, removeMutation, id)
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.Remove").
			Str("mutation_id", id).
			Msg("failed to execute delete for outbox mutation")
		return fmt.Errorf("failed to remove mutation (id=%s): %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.Remove").
			Str("mutation_id", id).
			Msg("failed to get rows affected after remove")
		return fmt.Errorf("failed to get rows affected (id=%s): %w", id, err)
	}

	if rowsAffected == 0 {
		log.Warn().
			Str("func", "outboxRepository.Remove").
			Str("mutation_id", id).
			Msg("no rows affected during remove: mutation not found")
		return fmt.Errorf("failed to remove mutation (id=%s): %w", id, ErrMutationNotFound)
	}

	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, markMutationFailed, id)
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.MarkFailed").
			Str("mutation_id", id).
			Msg("failed to execute status update for outbox mutation")
		return fmt.Errorf("failed to mark mutation failed (id=%s): %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (id=%s): %w", id, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("failed to mark mutation failed (id=%s): %w", id, ErrMutationNotFound)
	}

	return nil
}

func (r *outboxRepository) ListReplayable(ctx context.Context) ([]models.Mutation, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.
		Select("id", "op", "entity", "payload", "status", "created_at").
		From("outbox").
		Where(sq.Eq{"status": []string{string(models.MutationPending), string(models.MutationFailed)}}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.ListReplayable").
			Msg("failed to build list query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.ListReplayable").
			Msg("failed to execute query for replayable mutations")
		return nil, fmt.Errorf("failed to query replayable mutations: %w", err)
	}
	defer rows.Close()

	var items []models.Mutation

	for rows.Next() {
		var (
			item    models.Mutation
			payload string
		)

		scanErr := rows.Scan(
			&item.ID,
			&item.Op,
			&item.Entity,
			&payload,
			&item.Status,
			&item.CreatedAt,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "outboxRepository.ListReplayable").
				Msg("failed to scan mutation row")
			return nil, fmt.Errorf("failed to scan mutation row: %w", scanErr)
		}

		item.Payload = json.RawMessage(payload)
		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "outboxRepository.ListReplayable").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating mutation rows: %w", rowsErr)
	}

	return items, nil
}

func (r *outboxRepository) Count(ctx context.Context, status models.MutationStatus) (int, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.
		Select("COUNT(*)").
		From("outbox").
		Where(sq.Eq{"status": string(status)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var count int
	row := r.DB.QueryRowContext(ctx, query, args...)
	if scanErr := row.Scan(&count); scanErr != nil {
		log.Err(scanErr).
			Str("func", "outboxRepository.Count").
			Str("status", string(status)).
			Msg("failed to scan mutation count")
		return 0, fmt.Errorf("failed to scan mutation count: %w", scanErr)
	}

	return count, nil
}
