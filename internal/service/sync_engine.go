// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planory/draftguard/internal/adapter"
	"github.com/planory/draftguard/internal/connectivity"
	"github.com/planory/draftguard/internal/logger"
	"github.com/planory/draftguard/internal/store"
	"github.com/planory/draftguard/models"
)

type syncEngine struct {
	outbox  store.OutboxRepository
	backend adapter.Backend
	monitor *connectivity.Monitor
	logger  *logger.Logger

	// syncMu serialises sync passes; TryLock turns an overlapping pass
	// into ErrSyncInProgress instead of a queue.
	syncMu sync.Mutex

	listenerMu   sync.Mutex
	listeners    map[int]func(models.SyncEvent)
	nextListener int

	unsubscribe func()
}

// NewOutboxService constructs the sync engine over the durable outbox.
// The engine subscribes to the connectivity monitor and starts a sync
// pass whenever the client transitions back online.
func NewOutboxService(outbox store.OutboxRepository, backend adapter.Backend, monitor *connectivity.Monitor, log *logger.Logger) OutboxService {
	e := &syncEngine{
		outbox:    outbox,
		backend:   backend,
		monitor:   monitor,
		logger:    log,
		listeners: make(map[int]func(models.SyncEvent)),
	}

	e.unsubscribe = monitor.Subscribe(func(online bool) {
		if !online {
			return
		}
		go func() {
			if _, err := e.SyncPendingMutations(context.Background()); err != nil {
				e.logger.Warn().Err(err).
					Str("func", "syncEngine.onReconnect").
					Msg("reconnect sync pass failed")
			}
		}()
	})

	return e
}

func (e *syncEngine) QueueMutation(ctx context.Context, op models.MutationOp, entity string, payload json.RawMessage) (string, error) {
	id := uuid.NewString()

	if op == models.MutationCreate {
		var err error
		if payload, err = injectRecordID(payload, id); err != nil {
			return "", fmt.Errorf("prepare create payload for %s: %w", entity, err)
		}
	}

	m := models.Mutation{
		ID:        id,
		Op:        op,
		Entity:    entity,
		Payload:   payload,
		Status:    models.MutationPending,
		CreatedAt: time.Now(),
	}
	if err := e.outbox.Enqueue(ctx, m); err != nil {
		return "", fmt.Errorf("enqueue %s mutation for %s: %w", op, entity, err)
	}

	e.logger.Debug().
		Str("func", "syncEngine.QueueMutation").
		Str("mutation", id).
		Str("entity", entity).
		Str("op", string(op)).
		Msg("mutation queued")
	return id, nil
}

func (e *syncEngine) RemoveMutation(ctx context.Context, id string) error {
	if err := e.outbox.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove mutation %s: %w", id, err)
	}
	return nil
}

func (e *syncEngine) MutationCount(ctx context.Context, status models.MutationStatus) (int, error) {
	return e.outbox.Count(ctx, status)
}

func (e *syncEngine) SyncPendingMutations(ctx context.Context) (models.SyncStats, error) {
	if !e.syncMu.TryLock() {
		return models.SyncStats{}, ErrSyncInProgress
	}
	defer e.syncMu.Unlock()

	if !e.monitor.IsOnline() {
		return models.SyncStats{}, ErrOffline
	}

	mutations, err := e.outbox.ListReplayable(ctx)
	if err != nil {
		return models.SyncStats{}, fmt.Errorf("list replayable mutations: %w", err)
	}
	if len(mutations) == 0 {
		return models.SyncStats{}, nil
	}

	e.logger.Debug().
		Str("func", "syncEngine.SyncPendingMutations").
		Int("count", len(mutations)).
		Msg("sync pass begins")
	e.emit(models.SyncEvent{Kind: models.SyncStart})

	var stats models.SyncStats
	for i, m := range mutations {
		if _, err = e.backend.ApplyMutation(ctx, m); err == nil {
			if removeErr := e.outbox.Remove(ctx, m.ID); removeErr != nil {
				e.logger.Error().Err(removeErr).
					Str("func", "syncEngine.SyncPendingMutations").
					Str("mutation", m.ID).
					Msg("confirmed mutation could not be removed from outbox")
			}
			stats.Synced++
			e.emit(models.SyncEvent{Kind: models.MutationSynced, MutationID: m.ID, Entity: m.Entity})
			continue
		}

		if adapter.IsRejected(err) {
			if markErr := e.outbox.MarkFailed(ctx, m.ID); markErr != nil {
				e.logger.Error().Err(markErr).
					Str("func", "syncEngine.SyncPendingMutations").
					Str("mutation", m.ID).
					Msg("rejected mutation could not be marked failed")
			}
			stats.Failed++
			e.logger.Warn().Err(err).
				Str("func", "syncEngine.SyncPendingMutations").
				Str("mutation", m.ID).
				Str("entity", m.Entity).
				Msg("mutation rejected by backend")
			e.emit(models.SyncEvent{Kind: models.SyncError, MutationID: m.ID, Entity: m.Entity, Err: err})
			continue
		}

		// transient failure: abort the pass so mutations touching the
		// same record are never replayed out of order
		stats.Failed++
		stats.Skipped = len(mutations) - i - 1
		e.logger.Warn().Err(err).
			Str("func", "syncEngine.SyncPendingMutations").
			Str("mutation", m.ID).
			Int("skipped", stats.Skipped).
			Msg("sync pass aborted on transient error")
		e.emit(models.SyncEvent{Kind: models.SyncError, MutationID: m.ID, Entity: m.Entity, Err: err})
		break
	}

	e.logger.Debug().
		Str("func", "syncEngine.SyncPendingMutations").
		Int("synced", stats.Synced).
		Int("failed", stats.Failed).
		Int("skipped", stats.Skipped).
		Msg("sync pass complete")
	e.emit(models.SyncEvent{Kind: models.SyncComplete, Stats: stats})
	return stats, nil
}

func (e *syncEngine) AddListener(fn func(models.SyncEvent)) func() {
	e.listenerMu.Lock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	e.listenerMu.Unlock()

	return func() {
		e.listenerMu.Lock()
		delete(e.listeners, id)
		e.listenerMu.Unlock()
	}
}

func (e *syncEngine) SafeWrite(ctx context.Context, op models.MutationOp, entity string, payload json.RawMessage, onlineFn OnlineFunc) models.WriteResult {
	id, err := e.QueueMutation(ctx, op, entity, payload)
	if err != nil {
		return models.WriteResult{Success: false, Err: fmt.Errorf("queue mutation: %w", err)}
	}

	if !e.monitor.IsOnline() {
		return models.WriteResult{Success: true, Queued: true, MutationID: id}
	}

	data, err := onlineFn(ctx)
	if err != nil {
		// the queued copy stays behind for the next sync pass
		e.logger.Warn().Err(err).
			Str("func", "syncEngine.SafeWrite").
			Str("mutation", id).
			Str("entity", entity).
			Msg("immediate write failed, mutation stays queued")
		return models.WriteResult{Success: false, Queued: true, MutationID: id, Err: err}
	}

	if err = e.RemoveMutation(ctx, id); err != nil {
		e.logger.Error().Err(err).
			Str("func", "syncEngine.SafeWrite").
			Str("mutation", id).
			Msg("confirmed write could not be removed from outbox")
	}
	return models.WriteResult{Success: true, Queued: false, Data: data}
}

func (e *syncEngine) Close() {
	e.unsubscribe()
}

// emit delivers ev to every subscribed listener. Listeners run inline on
// the sync goroutine and must be fast.
func (e *syncEngine) emit(ev models.SyncEvent) {
	e.listenerMu.Lock()
	fns := make([]func(models.SyncEvent), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.listenerMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// injectRecordID sets the id field of a create payload so replaying the
// same mutation cannot produce a duplicate record server-side. An id the
// caller already supplied wins.
func injectRecordID(payload json.RawMessage, id string) (json.RawMessage, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if _, exists := body["id"]; exists {
		return payload, nil
	}

	encoded, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	body["id"] = encoded
	return json.Marshal(body)
}
