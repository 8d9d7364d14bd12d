package service

import "errors"

// Sentinel errors returned by the durability services. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrGuardClosed is returned when a document guard is used after
	// Close.
	ErrGuardClosed = errors.New("document guard is closed")

	// ErrOffline is returned when an operation requires connectivity
	// and the monitor reports offline.
	ErrOffline = errors.New("client is offline")

	// ErrSyncInProgress is returned when a sync pass is requested while
	// another is still running. Mutations are replayed strictly one at
	// a time, so overlapping passes are refused rather than queued.
	ErrSyncInProgress = errors.New("sync already in progress")
)
