package models

import "encoding/json"

// WriteResult is the outcome of an offline-safe discrete write. The outbox
// is always the durable record of intent: Queued reports whether the
// mutation is still sitting there awaiting replay.
type WriteResult struct {
	// Success is true when either the network call succeeded or the
	// mutation was durably queued while offline.
	Success bool `json:"success"`

	// Queued is true when the mutation remains in the outbox (offline,
	// or the immediate network attempt failed).
	Queued bool `json:"queued"`

	// MutationID is the outbox handle of the queued mutation, empty when
	// the write was confirmed immediately.
	MutationID string `json:"mutation_id,omitempty"`

	// Data is the backend response body for an immediate success, nil
	// otherwise.
	Data json.RawMessage `json:"data,omitempty"`

	// Err holds the network failure for an immediate attempt that did
	// not succeed. The mutation stays queued in that case.
	Err error `json:"-"`
}
