package models

import "time"

// SaveStatus describes the autosave lifecycle phase of a protected document.
type SaveStatus string

const (
	// SaveIdle means there is nothing to do: no unsaved edit, no attempt
	// in progress.
	SaveIdle SaveStatus = "idle"

	// SavePending means an edit has been registered and a save attempt is
	// scheduled (debounce or rate-limit cool-down).
	SavePending SaveStatus = "pending"

	// SaveSaving means exactly one save attempt is in flight.
	SaveSaving SaveStatus = "saving"

	// SaveSaved means the last attempt succeeded; relaxes back to
	// SaveIdle after a short display delay if nothing changes.
	SaveSaved SaveStatus = "saved"

	// SaveError means the last attempt failed; a retry may be scheduled
	// or the retry budget may be exhausted.
	SaveError SaveStatus = "error"

	// SaveOffline means the document has unsaved edits but the network
	// is unreachable; the local backup holds the latest snapshot.
	SaveOffline SaveStatus = "offline"
)

// SaveState is the externally observable autosave state of one registered
// document. The UI layer reads this instead of raw errors.
type SaveState struct {
	// Status is the current lifecycle phase.
	Status SaveStatus `json:"status"`

	// HasUnsavedChanges is false only when the last registered snapshot
	// matches the last successfully saved one.
	HasUnsavedChanges bool `json:"has_unsaved_changes"`

	// LastSaved is the time of the last confirmed server save, nil if
	// the document was never saved in this session.
	LastSaved *time.Time `json:"last_saved,omitempty"`

	// RetryCount is the number of generic retries consumed in the
	// current save cycle. Reset on success and on explicit save.
	RetryCount int `json:"retry_count"`

	// RateLimitedUntil is the end of the current rate-limit cool-down,
	// zero when the document is not rate-limited.
	RateLimitedUntil time.Time `json:"rate_limited_until,omitzero"`
}
