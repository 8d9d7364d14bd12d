// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

package store

const (
	upsertBackup = `
		INSERT INTO backups (
			key,
			data,
			created_at,
			version
		) VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at,
			version = excluded.version;`

	getBackup = `
		SELECT
			data,
			created_at,
			version
		FROM backups
		WHERE key = $1;`

	clearBackup = `
		DELETE FROM backups
		WHERE key = $1;`

	enqueueMutation = `
		INSERT INTO outbox (
			id,
			op,
			entity,
			payload,
			status,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6);`

	removeMutation = `
		DELETE FROM outbox
		WHERE id = $1;`

	markMutationFailed = `
		UPDATE outbox
		SET status = 'failed'
		WHERE id = $1;`
)
