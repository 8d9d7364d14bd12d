package models

import (
	"encoding/json"
	"time"
)

// MutationOp defines the kind of write a queued mutation performs
// against the backend when it is replayed.
type MutationOp string

const (
	// MutationCreate inserts a new record. The payload carries a
	// client-generated id so replays are create-or-confirm rather than
	// blind duplicates.
	MutationCreate MutationOp = "create"

	// MutationUpdate modifies an existing record identified by the
	// payload's id field.
	MutationUpdate MutationOp = "update"

	// MutationDelete removes the record identified by the payload's
	// id field.
	MutationDelete MutationOp = "delete"
)

// MutationStatus describes where a queued mutation is in its lifecycle.
// Synced mutations are deleted from the outbox, not retained.
type MutationStatus string

const (
	// MutationPending marks a mutation awaiting replay.
	MutationPending MutationStatus = "pending"

	// MutationFailed marks a mutation the backend explicitly rejected.
	// Failed mutations are surfaced for manual inspection and retried
	// only on the next full sync pass, never in a tight loop.
	MutationFailed MutationStatus = "failed"
)

// Mutation is a durably stored description of one pending
// create/update/delete against the backend. It survives process restarts
// and is replayed in enqueue order by the sync engine.
type Mutation struct {
	// ID is assigned at enqueue time and is the sole handle for later
	// removal.
	ID string `json:"id"`

	// Op is the kind of write to replay.
	Op MutationOp `json:"op"`

	// Entity is the target entity name (e.g. "launches", "content_items").
	Entity string `json:"entity"`

	// Payload is the JSON body sent to the backend on replay.
	Payload json.RawMessage `json:"payload"`

	// Status is the current lifecycle state.
	Status MutationStatus `json:"status"`

	// CreatedAt records when the mutation was enqueued.
	CreatedAt time.Time `json:"created_at"`
}
