package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/planory/draftguard/internal/adapter"
	"github.com/planory/draftguard/internal/cache"
	"github.com/planory/draftguard/internal/config"
	"github.com/planory/draftguard/internal/connectivity"
	"github.com/planory/draftguard/internal/logger"
	"github.com/planory/draftguard/internal/store"
	"github.com/planory/draftguard/models"
)

// defaultRateLimitCooldown applies when the backend rate-limits without a
// usable retry-after hint.
const defaultRateLimitCooldown = 30 * time.Second

// rateLimitSlack is added on top of the server's cool-down before the
// retry fires, so the retry never lands just inside the window.
const rateLimitSlack = 2 * time.Second

// GuardDeps bundles the collaborators a document guard needs. All fields
// are required except Notifier and the callbacks.
type GuardDeps struct {
	// Cache is the fast synchronous backup tier.
	Cache cache.Cache

	// Backups is the durable backup tier, used when the fast tier is
	// limited or failed, and as the restore source.
	Backups store.BackupRepository

	// Monitor gates all network attempts.
	Monitor *connectivity.Monitor

	// Notifier receives user-facing notices. Defaults to a log-backed
	// one when nil.
	Notifier Notifier

	// OnSaved is invoked after every confirmed server save.
	OnSaved func()

	// OnError is invoked when the retry budget is exhausted.
	OnError func(err error)

	Logger *logger.Logger
}

type saveOrchestrator struct {
	key     string
	version string
	cfg     config.Autosave
	save    SaveFunc

	cache    cache.Cache
	backups  store.BackupRepository
	monitor  *connectivity.Monitor
	notifier Notifier
	onSaved  func()
	onError  func(err error)
	logger   *logger.Logger

	mu           sync.Mutex
	state        models.SaveState
	snapshot     json.RawMessage
	snapshotHash [sha256.Size]byte
	inFlight     bool
	closed       bool
	debounce     *time.Timer
	retryTimer   *time.Timer
	displayTimer *time.Timer

	unsubscribe func()
}

// NewDocumentGuard constructs the save orchestrator for one logical
// document identified by key. version is stamped into every backup
// envelope. The guard subscribes to the connectivity monitor: regaining
// connectivity immediately retries unsaved work, losing it surfaces a
// persistent offline notice.
func NewDocumentGuard(key string, save SaveFunc, cfg config.Autosave, version string, deps GuardDeps) DocumentGuard {
	if deps.Notifier == nil {
		deps.Notifier = NewLogNotifier(deps.Logger)
	}

	g := &saveOrchestrator{
		key:      key,
		version:  version,
		cfg:      cfg,
		save:     save,
		cache:    deps.Cache,
		backups:  deps.Backups,
		monitor:  deps.Monitor,
		notifier: deps.Notifier,
		onSaved:  deps.OnSaved,
		onError:  deps.OnError,
		logger:   deps.Logger,
		state:    models.SaveState{Status: models.SaveIdle},
	}

	g.unsubscribe = deps.Monitor.Subscribe(g.onConnectivityChange)
	return g
}

func (g *saveOrchestrator) Register(ctx context.Context, document any) error {
	snap, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("serialize document snapshot: %w", err)
	}
	hash := sha256.Sum256(snap)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGuardClosed
	}
	if g.snapshot != nil && hash == g.snapshotHash {
		g.mu.Unlock()
		return nil
	}

	g.snapshot = snap
	g.snapshotHash = hash
	g.state.HasUnsavedChanges = true
	g.state.Status = models.SavePending
	g.stopDisplayTimerLocked()

	g.writeLocalBackupLocked(ctx)
	g.armDebounceLocked()
	g.mu.Unlock()

	return nil
}

func (g *saveOrchestrator) SaveNow(ctx context.Context) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.stopTimersLocked()
	g.state.RetryCount = 0
	g.mu.Unlock()

	g.attemptSave(ctx)
}

func (g *saveOrchestrator) attemptSave(ctx context.Context) {
	g.mu.Lock()
	if g.closed || g.snapshot == nil || g.inFlight {
		g.mu.Unlock()
		return
	}

	if !g.monitor.IsOnline() {
		g.state.Status = models.SaveOffline
		g.writeLocalBackupLocked(ctx)
		g.mu.Unlock()
		g.notifier.Notify(NoticeWarning, "You are offline. Changes are saved locally and will sync when you reconnect.")
		return
	}

	g.state.Status = models.SaveSaving
	g.inFlight = true
	snap := g.snapshot
	hash := g.snapshotHash
	g.mu.Unlock()

	err := g.save(ctx, snap)

	g.mu.Lock()
	g.inFlight = false
	if g.closed {
		g.mu.Unlock()
		return
	}
	if err == nil {
		g.handleSaveSuccessLocked(ctx, hash)
		return
	}
	g.handleSaveFailureLocked(ctx, err)
}

// handleSaveSuccessLocked finishes a confirmed save. Called with g.mu
// held; releases it.
func (g *saveOrchestrator) handleSaveSuccessLocked(ctx context.Context, savedHash [sha256.Size]byte) {
	g.state.RetryCount = 0
	g.state.RateLimitedUntil = time.Time{}
	now := time.Now()
	g.state.LastSaved = &now

	if savedHash != g.snapshotHash {
		// a newer edit arrived while the save was in flight; keep the
		// unsaved flag and let the debounce carry the latest snapshot
		g.state.Status = models.SavePending
		g.armDebounceLocked()
		g.mu.Unlock()
		return
	}

	g.state.HasUnsavedChanges = false
	g.state.Status = models.SaveSaved
	g.clearLocalBackupLocked(ctx)
	g.armDisplayTimerLocked()
	onSaved := g.onSaved
	g.mu.Unlock()

	g.logger.Debug().Str("func", "saveOrchestrator.attemptSave").Str("key", g.key).Msg("document saved")
	if onSaved != nil {
		onSaved()
	}
}

// handleSaveFailureLocked classifies a failed save and schedules the next
// step. Called with g.mu held; releases it. The local backup is always
// re-written before anything else: network failure must never become
// data loss.
func (g *saveOrchestrator) handleSaveFailureLocked(ctx context.Context, err error) {
	g.writeLocalBackupLocked(ctx)

	var rl *adapter.RateLimitError
	if errors.As(err, &rl) {
		cooldown := rl.RetryAfter
		if cooldown <= 0 {
			cooldown = defaultRateLimitCooldown
		}
		g.state.Status = models.SavePending
		g.state.RateLimitedUntil = time.Now().Add(cooldown)
		g.armRetryLocked(cooldown + rateLimitSlack)
		g.mu.Unlock()

		g.notifier.Notify(NoticeInfo, fmt.Sprintf("Saving is rate limited. Retrying in %s.", cooldown+rateLimitSlack))
		return
	}

	if g.state.RetryCount < g.cfg.MaxRetries {
		g.state.RetryCount++
		retryCount := g.state.RetryCount
		g.state.Status = models.SaveError
		g.armRetryLocked(g.cfg.RetryDelay)
		g.mu.Unlock()

		g.logger.Warn().Err(err).
			Str("func", "saveOrchestrator.attemptSave").
			Str("key", g.key).
			Int("retry", retryCount).
			Msg("save failed, retry scheduled")
		g.notifier.Notify(NoticeWarning, fmt.Sprintf("Save failed (attempt %d of %d). Retrying in %s.", retryCount, g.cfg.MaxRetries, g.cfg.RetryDelay))
		return
	}

	g.state.Status = models.SaveError
	onError := g.onError
	g.mu.Unlock()

	g.logger.Error().Err(err).
		Str("func", "saveOrchestrator.attemptSave").
		Str("key", g.key).
		Msg("save retries exhausted")
	g.notifier.Notify(NoticeError, "Saving keeps failing. Your work is backed up locally; it will not be lost. Save manually or check your connection.")
	if onError != nil {
		onError(err)
	}
}

func (g *saveOrchestrator) onConnectivityChange(online bool) {
	if online {
		g.mu.Lock()
		retry := !g.closed && g.state.HasUnsavedChanges
		g.mu.Unlock()
		if retry {
			g.attemptSave(context.Background())
		}
		return
	}

	g.mu.Lock()
	if !g.closed {
		g.state.Status = models.SaveOffline
	}
	g.mu.Unlock()
	g.notifier.Notify(NoticeWarning, "Connection lost. Your edits are kept safe on this device.")
}

func (g *saveOrchestrator) Flush(ctx context.Context) error {
	g.mu.Lock()
	if g.snapshot == nil {
		g.mu.Unlock()
		return nil
	}
	err := g.writeLocalBackupLocked(ctx)
	fireNetworkSave := g.state.HasUnsavedChanges && !g.closed
	snap := g.snapshot
	g.mu.Unlock()

	// best-effort, unawaited: the synchronous local write above is the
	// only step allowed to matter during teardown
	if fireNetworkSave && g.monitor.IsOnline() {
		go func() {
			_ = g.save(context.WithoutCancel(ctx), snap)
		}()
	}

	return err
}

func (g *saveOrchestrator) Recover(ctx context.Context) (models.BackupEnvelope, error) {
	return latestBackup(ctx, g.cache, g.backups, g.key, g.logger)
}

// latestBackup returns the most recent envelope recoverable for key. Both
// tiers are consulted: a degraded fast cache can hold a state file older
// than the durable store, so when both tiers answer the newer timestamp
// wins.
func latestBackup(ctx context.Context, fastCache cache.Cache, backups store.BackupRepository, key string, log *logger.Logger) (models.BackupEnvelope, error) {
	var cached *models.BackupEnvelope
	if raw, ok := fastCache.Get(key); ok {
		var env models.BackupEnvelope
		if err := json.Unmarshal([]byte(raw), &env); err == nil {
			cached = &env
		} else {
			log.Warn().Str("func", "latestBackup").Str("key", key).Msg("cached backup corrupt, falling back to durable store")
		}
	}

	durable, err := backups.GetBackup(ctx, key)
	if err != nil {
		if cached != nil {
			return *cached, nil
		}
		return models.BackupEnvelope{}, fmt.Errorf("recover document %s: %w", key, err)
	}
	if cached != nil && cached.Timestamp.After(durable.Timestamp) {
		return *cached, nil
	}
	return durable, nil
}

func (g *saveOrchestrator) State() models.SaveState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *saveOrchestrator) IsOnline() bool {
	return g.monitor.IsOnline()
}

func (g *saveOrchestrator) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.stopTimersLocked()
	g.stopDisplayTimerLocked()
	hasChanges := g.state.HasUnsavedChanges
	if hasChanges {
		// teardown cancels everything except this write
		g.writeLocalBackupLocked(context.Background())
	}
	g.mu.Unlock()

	g.unsubscribe()
}

// writeLocalBackupLocked persists the current snapshot to the fast cache
// and, when the fast tier is limited or the write failed, to the durable
// store. Both tiers failing is the one condition surfaced as a hard
// warning; it still never panics. Called with g.mu held.
func (g *saveOrchestrator) writeLocalBackupLocked(ctx context.Context) error {
	env := models.BackupEnvelope{
		Data:      g.snapshot,
		Timestamp: time.Now(),
		Version:   g.version,
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode backup envelope: %w", err)
	}

	fastOK := g.cache.Set(g.key, string(payload))
	if fastOK && !g.cache.IsLimited() {
		return nil
	}

	if err = g.backups.SaveBackup(ctx, g.key, env); err != nil {
		if !fastOK {
			g.logger.Error().Err(err).
				Str("func", "saveOrchestrator.writeLocalBackup").
				Str("key", g.key).
				Msg("both backup tiers failed, snapshot held in memory only")
			g.notifier.Notify(NoticeError, "Local backup is unavailable. Keep this window open until saving succeeds.")
			return fmt.Errorf("backup write failed on both tiers: %w", err)
		}
		g.logger.Warn().Err(err).
			Str("func", "saveOrchestrator.writeLocalBackup").
			Str("key", g.key).
			Msg("durable backup write failed, fast cache holds the snapshot")
	}

	return nil
}

// clearLocalBackupLocked removes the backup on both tiers after a
// confirmed save. Called with g.mu held.
func (g *saveOrchestrator) clearLocalBackupLocked(ctx context.Context) {
	g.cache.Remove(g.key)
	if err := g.backups.ClearBackup(ctx, g.key); err != nil {
		g.logger.Warn().Err(err).
			Str("func", "saveOrchestrator.clearLocalBackup").
			Str("key", g.key).
			Msg("failed to clear durable backup")
	}
}

// armDebounceLocked (re)starts the debounce timer. While rate-limited the
// timer fires at the cool-down expiry instead of the regular delay.
// Called with g.mu held.
func (g *saveOrchestrator) armDebounceLocked() {
	delay := g.cfg.Delay
	if until := g.state.RateLimitedUntil; !until.IsZero() {
		if d := time.Until(until) + rateLimitSlack; d > delay {
			delay = d
		}
	}

	if g.debounce != nil {
		g.debounce.Stop()
	}
	g.debounce = time.AfterFunc(delay, func() {
		g.attemptSave(context.Background())
	})
}

// armRetryLocked schedules one retry attempt. Called with g.mu held.
func (g *saveOrchestrator) armRetryLocked(delay time.Duration) {
	if g.retryTimer != nil {
		g.retryTimer.Stop()
	}
	g.retryTimer = time.AfterFunc(delay, func() {
		g.attemptSave(context.Background())
	})
}

// armDisplayTimerLocked relaxes the "saved" confirmation back to idle
// after the display delay, unless something changed in the meantime.
// Called with g.mu held.
func (g *saveOrchestrator) armDisplayTimerLocked() {
	delay := g.cfg.SavedDisplayDelay
	if delay <= 0 {
		delay = 3 * time.Second
	}

	g.stopDisplayTimerLocked()
	g.displayTimer = time.AfterFunc(delay, func() {
		g.mu.Lock()
		if !g.closed && g.state.Status == models.SaveSaved && !g.state.HasUnsavedChanges {
			g.state.Status = models.SaveIdle
		}
		g.mu.Unlock()
	})
}

// stopTimersLocked cancels the debounce and retry timers. Called with
// g.mu held.
func (g *saveOrchestrator) stopTimersLocked() {
	if g.debounce != nil {
		g.debounce.Stop()
		g.debounce = nil
	}
	if g.retryTimer != nil {
		g.retryTimer.Stop()
		g.retryTimer = nil
	}
}

func (g *saveOrchestrator) stopDisplayTimerLocked() {
	if g.displayTimer != nil {
		g.displayTimer.Stop()
		g.displayTimer = nil
	}
}
