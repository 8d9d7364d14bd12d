package models

import (
	"encoding/json"
	"time"
)

// BackupEnvelope wraps a document snapshot destined for local storage.
// The envelope persisted locally must always be the most recent snapshot
// registered, even if the network save has not completed yet.
type BackupEnvelope struct {
	// Data is the full JSON-serialised document snapshot.
	Data json.RawMessage `json:"data"`

	// Timestamp records when the snapshot was registered.
	Timestamp time.Time `json:"timestamp"`

	// Version is the application version that produced the envelope,
	// used to detect stale backups after an upgrade.
	Version string `json:"version"`
}
