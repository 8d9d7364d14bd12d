// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

// Package service implements the client-side data-durability core: the
// save orchestrator protecting one in-memory document, the mutation
// outbox with its sync engine, and the offline-safe write wrapper. All
// services are explicitly constructed and passed by reference; none of
// them talks to the network without consulting the connectivity monitor
// first.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/planory/draftguard/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// SaveFunc is the caller-supplied network save for one document. It must
// return [*adapter.RateLimitError] (wrapped is fine) when the backend
// rate-limits, so the orchestrator can branch into the cool-down path
// instead of the generic retry path.
type SaveFunc func(ctx context.Context, snapshot json.RawMessage) error

// OnlineFunc is the caller-supplied network write used by SafeWrite when
// the client is online. The returned body is handed back to the caller on
// immediate success.
type OnlineFunc func(ctx context.Context) (json.RawMessage, error)

// DocumentGuard owns the autosave lifecycle of a single in-memory
// document: debounce, save attempts, retry/backoff, rate-limit handling,
// status reporting, and the last-resort synchronous flush on teardown.
type DocumentGuard interface {
	// Register accepts a new full snapshot of the document. A snapshot
	// value-equal to the last registered one is a no-op. Otherwise the
	// snapshot is synchronously backed up locally and a debounced save
	// attempt is scheduled. Register never fails because of network or
	// storage trouble; the returned error only reports a snapshot that
	// cannot be serialised or a closed guard.
	Register(ctx context.Context, document any) error

	// SaveNow cancels any pending debounce/retry timer, resets the
	// retry budget, and immediately attempts a save.
	SaveNow(ctx context.Context)

	// Flush synchronously persists the current snapshot to local
	// storage and, when online with unsaved changes, fires one
	// unawaited best-effort network save. Meant for "process is going
	// away" signals; the local write is the only guaranteed step.
	Flush(ctx context.Context) error

	// Recover returns the most recent locally recoverable envelope for
	// this document, checking the fast cache first and the durable
	// store second. Returns a wrapped [store.ErrBackupNotFound] when
	// nothing is recoverable.
	Recover(ctx context.Context) (models.BackupEnvelope, error)

	// State returns a copy of the externally observable autosave state.
	State() models.SaveState

	// IsOnline reports the connectivity monitor's current view.
	IsOnline() bool

	// Close cancels all timers and the connectivity subscription, then
	// performs the final synchronous local-backup write. The guard
	// rejects further calls afterwards.
	Close()
}

// OutboxService manages the durable queue of discrete entity mutations
// and replays it against the backend.
type OutboxService interface {
	// QueueMutation appends a pending mutation to durable storage and
	// returns its id, the sole handle for later removal. For creates,
	// a client-generated record id is injected into the payload so
	// replays are create-or-confirm.
	QueueMutation(ctx context.Context, op models.MutationOp, entity string, payload json.RawMessage) (string, error)

	// RemoveMutation deletes the mutation; called only after confirmed
	// server-side success.
	RemoveMutation(ctx context.Context, id string) error

	// MutationCount reports how many mutations sit in the given status.
	MutationCount(ctx context.Context, status models.MutationStatus) (int, error)

	// SyncPendingMutations replays pending and previously failed
	// mutations in enqueue order. Each is removed on success; an
	// explicit backend rejection marks it failed; a transient error
	// aborts the pass, leaving the remainder pending for the next one.
	// Returns [ErrOffline] without touching the network when the
	// monitor reports offline, and [ErrSyncInProgress] when a pass is
	// already running.
	SyncPendingMutations(ctx context.Context) (models.SyncStats, error)

	// AddListener subscribes fn to sync lifecycle events and returns an
	// unsubscribe function.
	AddListener(fn func(models.SyncEvent)) func()

	// SafeWrite is the single decision point for discrete writes: the
	// mutation is always enqueued first, then executed immediately when
	// online. See [models.WriteResult] for the outcome contract.
	SafeWrite(ctx context.Context, op models.MutationOp, entity string, payload json.RawMessage, onlineFn OnlineFunc) models.WriteResult

	// Close cancels the engine's connectivity subscription.
	Close()
}

// SyncJob periodically drains the outbox in the background.
type SyncJob interface {
	// Start launches the background loop with the given interval. A
	// non-positive interval selects a default. Calling Start twice
	// restarts the job.
	Start(ctx context.Context, interval time.Duration)

	// Stop cancels the background loop and blocks until it has exited.
	// Safe to call when the job is not running.
	Stop()
}

// NoticeLevel grades user-facing notices emitted by the durability layer.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notifier surfaces user-facing banners and toasts. The UI layer supplies
// its own implementation; [NewLogNotifier] provides a logging default.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}
