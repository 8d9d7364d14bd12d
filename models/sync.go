package models

// SyncStats aggregates the outcome of one outbox sync pass.
type SyncStats struct {
	// Synced is the number of mutations confirmed by the backend and
	// removed from the outbox during the pass.
	Synced int `json:"synced"`

	// Failed is the number of mutations the backend explicitly rejected
	// or that failed on a transient error during the pass.
	Failed int `json:"failed"`

	// Skipped is the number of mutations never attempted because a
	// transient error aborted the pass before their turn. They stay in
	// the outbox for the next pass.
	Skipped int `json:"skipped"`
}

// SyncEventKind enumerates the lifecycle events a sync pass emits.
type SyncEventKind string

const (
	// SyncStart is emitted once when a sync pass begins.
	SyncStart SyncEventKind = "sync-start"

	// MutationSynced is emitted per mutation after the backend confirms
	// it and it has been removed from the outbox.
	MutationSynced SyncEventKind = "mutation-synced"

	// SyncComplete is emitted once when a pass finishes, carrying the
	// aggregate totals.
	SyncComplete SyncEventKind = "sync-complete"

	// SyncError is emitted when a pass aborts on a transient error or a
	// mutation is explicitly rejected.
	SyncError SyncEventKind = "sync-error"
)

// SyncEvent is one lifecycle notification from the sync engine. Fields
// other than Kind are populated per kind: MutationID/Entity for
// MutationSynced and SyncError (when tied to one mutation), Stats for
// SyncComplete, Err for SyncError.
type SyncEvent struct {
	Kind       SyncEventKind `json:"kind"`
	MutationID string        `json:"mutation_id,omitempty"`
	Entity     string        `json:"entity,omitempty"`
	Stats      SyncStats     `json:"stats,omitzero"`
	Err        error         `json:"-"`
}
