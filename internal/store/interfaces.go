// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

// Package store implements the durable local store: an embedded SQLite
// database holding emergency backup envelopes and the mutation outbox. It
// is the backup of last resort when the fast cache is unavailable or
// capacity-limited, and the only storage that survives process restarts.
package store

import (
	"context"

	"github.com/planory/draftguard/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// BackupRepository persists backup envelopes keyed by a caller-supplied
// namespace string (one key per protected document).
type BackupRepository interface {
	// SaveBackup inserts or overwrites the envelope stored under key.
	// The stored envelope is always the most recent snapshot registered.
	SaveBackup(ctx context.Context, key string, envelope models.BackupEnvelope) error

	// GetBackup returns the envelope stored under key, or a wrapped
	// [ErrBackupNotFound] when no backup exists.
	GetBackup(ctx context.Context, key string) (models.BackupEnvelope, error)

	// ClearBackup removes the envelope stored under key. Clearing a key
	// that holds no backup is not an error.
	ClearBackup(ctx context.Context, key string) error
}

// OutboxRepository is the ordered durable queue of pending mutations.
// Enqueue order is preserved by a monotonic sequence column; replay must
// follow that order because a later update may depend on an earlier create.
type OutboxRepository interface {
	// Enqueue appends the mutation to the tail of the outbox.
	Enqueue(ctx context.Context, m models.Mutation) error

	// Remove deletes the mutation with the given id. Called only after
	// the backend confirmed the replay. Returns a wrapped
	// [ErrMutationNotFound] when the id is unknown.
	Remove(ctx context.Context, id string) error

	// MarkFailed transitions the mutation to [models.MutationFailed]
	// after an explicit backend rejection. Returns a wrapped
	// [ErrMutationNotFound] when the id is unknown.
	MarkFailed(ctx context.Context, id string) error

	// ListReplayable returns all pending and previously failed mutations
	// in enqueue order.
	ListReplayable(ctx context.Context) ([]models.Mutation, error)

	// Count returns the number of mutations currently in the given
	// status. Used for UI badges.
	Count(ctx context.Context, status models.MutationStatus) (int, error)
}
