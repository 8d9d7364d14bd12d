// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planory/draftguard/internal/adapter"
	"github.com/planory/draftguard/internal/cache"
	"github.com/planory/draftguard/internal/config"
	"github.com/planory/draftguard/internal/connectivity"
	"github.com/planory/draftguard/internal/logger"
	"github.com/planory/draftguard/internal/store"
	"github.com/planory/draftguard/models"
)

// memCache is an in-memory cache.Cache with controllable degradation.
type memCache struct {
	mu      sync.Mutex
	m       map[string]string
	limited bool
	setOK   bool
}

func newMemCache() *memCache {
	return &memCache{m: make(map[string]string), setOK: true}
}

func (c *memCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *memCache) Set(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return c.setOK
}

func (c *memCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}

func (c *memCache) IsLimited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limited
}

func (c *memCache) setLimited(v bool) {
	c.mu.Lock()
	c.limited = v
	c.mu.Unlock()
}

// memBackupRepo is an in-memory store.BackupRepository.
type memBackupRepo struct {
	mu      sync.Mutex
	m       map[string]models.BackupEnvelope
	saveErr error
}

func newMemBackupRepo() *memBackupRepo {
	return &memBackupRepo{m: make(map[string]models.BackupEnvelope)}
}

func (r *memBackupRepo) SaveBackup(_ context.Context, key string, env models.BackupEnvelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.m[key] = env
	return nil
}

func (r *memBackupRepo) GetBackup(_ context.Context, key string) (models.BackupEnvelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.m[key]
	if !ok {
		return models.BackupEnvelope{}, fmt.Errorf("backup %s: %w", key, store.ErrBackupNotFound)
	}
	return env, nil
}

func (r *memBackupRepo) ClearBackup(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, key)
	return nil
}

func (r *memBackupRepo) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.m[key]
	return ok
}

// recordingNotifier captures notices for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []NoticeLevel
}

func (n *recordingNotifier) Notify(level NoticeLevel, _ string) {
	n.mu.Lock()
	n.notices = append(n.notices, level)
	n.mu.Unlock()
}

func (n *recordingNotifier) has(level NoticeLevel) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, l := range n.notices {
		if l == level {
			return true
		}
	}
	return false
}

type guardFixture struct {
	cache    *memCache
	backups  *memBackupRepo
	monitor  *connectivity.Monitor
	notifier *recordingNotifier
	errCount atomic.Int64
}

func fastAutosave() config.Autosave {
	return config.Autosave{
		Delay:             20 * time.Millisecond,
		RetryDelay:        25 * time.Millisecond,
		MaxRetries:        2,
		SavedDisplayDelay: 40 * time.Millisecond,
	}
}

func newTestGuard(t *testing.T, cfg config.Autosave, online bool, save SaveFunc) (DocumentGuard, *guardFixture) {
	t.Helper()
	f := &guardFixture{
		cache:    newMemCache(),
		backups:  newMemBackupRepo(),
		monitor:  connectivity.NewMonitor(online, nil, logger.Nop()),
		notifier: &recordingNotifier{},
	}

	g := NewDocumentGuard("draft-1", save, cfg, "1.0.0", GuardDeps{
		Cache:    f.cache,
		Backups:  f.backups,
		Monitor:  f.monitor,
		Notifier: f.notifier,
		OnError:  func(error) { f.errCount.Add(1) },
		Logger:   logger.Nop(),
	})
	t.Cleanup(g.Close)

	return g, f
}

type draft struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ── Register / debounce ──────────────────────────────────────────────────────

func TestGuard_Register_DebouncesRapidEdits(t *testing.T) {
	var calls atomic.Int64
	var lastSnapshot atomic.Value

	g, _ := newTestGuard(t, fastAutosave(), true, func(_ context.Context, snap json.RawMessage) error {
		calls.Add(1)
		lastSnapshot.Store(string(snap))
		return nil
	})
	ctx := context.Background()

	// three edits inside one debounce window collapse to one save
	require.NoError(t, g.Register(ctx, draft{Title: "v1"}))
	require.NoError(t, g.Register(ctx, draft{Title: "v2"}))
	require.NoError(t, g.Register(ctx, draft{Title: "v3"}))

	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveSaved
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int64(1), calls.Load())
	assert.Contains(t, lastSnapshot.Load().(string), "v3")
}

func TestGuard_Register_IdenticalSnapshotIsNoOp(t *testing.T) {
	var calls atomic.Int64
	g, _ := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error {
		calls.Add(1)
		return nil
	})
	ctx := context.Background()

	doc := draft{Title: "same", Body: "content"}
	require.NoError(t, g.Register(ctx, doc))

	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveSaved
	}, time.Second, 5*time.Millisecond)

	// re-registering the identical document must not dirty the state
	require.NoError(t, g.Register(ctx, doc))
	st := g.State()
	assert.Contains(t, []models.SaveStatus{models.SaveSaved, models.SaveIdle}, st.Status)
	assert.False(t, st.HasUnsavedChanges)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
}

func TestGuard_Register_WritesLocalBackupSynchronously(t *testing.T) {
	cfg := fastAutosave()
	cfg.Delay = time.Hour // keep the save from firing

	g, f := newTestGuard(t, cfg, true, func(context.Context, json.RawMessage) error { return nil })

	require.NoError(t, g.Register(context.Background(), draft{Title: "unsynced"}))

	raw, ok := f.cache.Get("draft-1")
	require.True(t, ok, "backup must exist before any network save")

	var env models.BackupEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Contains(t, string(env.Data), "unsynced")
	assert.Equal(t, "1.0.0", env.Version)
	assert.False(t, env.Timestamp.IsZero())
}

func TestGuard_Register_LimitedCacheAlsoWritesDurableStore(t *testing.T) {
	cfg := fastAutosave()
	cfg.Delay = time.Hour

	g, f := newTestGuard(t, cfg, true, func(context.Context, json.RawMessage) error { return nil })
	f.cache.setLimited(true)

	require.NoError(t, g.Register(context.Background(), draft{Title: "x"}))

	assert.True(t, f.backups.has("draft-1"), "limited cache must trigger the durable tier")
}

func TestGuard_Register_BothTiersFailingNotifiesButKeepsWorking(t *testing.T) {
	cfg := fastAutosave()
	cfg.Delay = time.Hour

	g, f := newTestGuard(t, cfg, true, func(context.Context, json.RawMessage) error { return nil })
	f.cache.setOK = false
	f.backups.saveErr = assert.AnError

	require.NoError(t, g.Register(context.Background(), draft{Title: "x"}), "storage trouble never fails Register")
	assert.True(t, f.notifier.has(NoticeError))
}

func TestGuard_Register_AfterCloseReturnsError(t *testing.T) {
	g, _ := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error { return nil })
	g.Close()

	err := g.Register(context.Background(), draft{Title: "late"})
	assert.ErrorIs(t, err, ErrGuardClosed)
}

// ── Save success ─────────────────────────────────────────────────────────────

func TestGuard_SuccessfulSave_ClearsBackupAndRelaxesStatus(t *testing.T) {
	g, f := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error { return nil })
	ctx := context.Background()

	require.NoError(t, g.Register(ctx, draft{Title: "done"}))

	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveSaved
	}, time.Second, 5*time.Millisecond)

	st := g.State()
	require.NotNil(t, st.LastSaved)
	assert.False(t, st.HasUnsavedChanges)
	assert.Zero(t, st.RetryCount)

	_, ok := f.cache.Get("draft-1")
	assert.False(t, ok, "backup cleared after confirmed save")
	assert.False(t, f.backups.has("draft-1"))

	// the saved confirmation relaxes back to idle
	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveIdle
	}, time.Second, 5*time.Millisecond)
}

func TestGuard_EditDuringInFlightSave_KeepsUnsavedAndResaves(t *testing.T) {
	block := make(chan struct{})
	var calls atomic.Int64
	var mu sync.Mutex
	var snapshots []string

	g, _ := newTestGuard(t, fastAutosave(), true, func(_ context.Context, snap json.RawMessage) error {
		if calls.Add(1) == 1 {
			<-block
		}
		mu.Lock()
		snapshots = append(snapshots, string(snap))
		mu.Unlock()
		return nil
	})
	ctx := context.Background()

	require.NoError(t, g.Register(ctx, draft{Title: "v1"}))

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	// v2 arrives while v1 is still on the wire
	require.NoError(t, g.Register(ctx, draft{Title: "v2"}))

	// v2's debounce expires while v1 is in flight; at most one network
	// call may be running for the document
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
	close(block)

	require.Eventually(t, func() bool {
		st := g.State()
		return st.Status == models.SaveSaved || st.Status == models.SaveIdle
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snapshots, 2)
	assert.Contains(t, snapshots[0], "v1")
	assert.Contains(t, snapshots[1], "v2")
	assert.False(t, g.State().HasUnsavedChanges)
}

// ── Retry / backoff ──────────────────────────────────────────────────────────

func TestGuard_FailingSave_RetriesUpToBudgetThenSettles(t *testing.T) {
	var calls atomic.Int64
	g, f := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error {
		calls.Add(1)
		return assert.AnError
	})
	ctx := context.Background()

	require.NoError(t, g.Register(ctx, draft{Title: "doomed"}))

	// initial attempt + MaxRetries retries, then no more
	require.Eventually(t, func() bool { return calls.Load() == 3 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int64(3), calls.Load(), "retry budget must be respected")

	st := g.State()
	assert.Equal(t, models.SaveError, st.Status)
	assert.True(t, st.HasUnsavedChanges)
	assert.Equal(t, int64(1), f.errCount.Load(), "onError fires once when the budget is spent")

	_, ok := f.cache.Get("draft-1")
	assert.True(t, ok, "failed save leaves the backup in place")
}

func TestGuard_RejectTwiceThenSucceed_FullStatusSequence(t *testing.T) {
	var calls atomic.Int64
	statusDuringSave := make(chan models.SaveStatus, 8)

	var g DocumentGuard
	g, f := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error {
		statusDuringSave <- g.State().Status
		if calls.Add(1) <= 2 {
			return assert.AnError
		}
		return nil
	})
	ctx := context.Background()

	require.NoError(t, g.Register(ctx, draft{Title: "Draft A"}))
	assert.Equal(t, models.SavePending, g.State().Status)

	// attempt 1 fails
	require.Eventually(t, func() bool {
		st := g.State()
		return st.Status == models.SaveError && st.RetryCount == 1
	}, time.Second, time.Millisecond)

	// attempt 2 fails
	require.Eventually(t, func() bool {
		st := g.State()
		return st.Status == models.SaveError && st.RetryCount == 2
	}, time.Second, time.Millisecond)

	// attempt 3 succeeds
	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveSaved
	}, time.Second, time.Millisecond)

	st := g.State()
	assert.Zero(t, st.RetryCount)
	require.NotNil(t, st.LastSaved)
	_, ok := f.cache.Get("draft-1")
	assert.False(t, ok)

	// every attempt observed itself as the saving phase
	close(statusDuringSave)
	n := 0
	for s := range statusDuringSave {
		assert.Equal(t, models.SaveSaving, s)
		n++
	}
	assert.Equal(t, 3, n)
}

func TestGuard_RetrySucceeds_ResetsStateAndClearsBackup(t *testing.T) {
	var calls atomic.Int64
	g, f := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error {
		if calls.Add(1) <= 2 {
			return assert.AnError
		}
		return nil
	})
	ctx := context.Background()

	require.NoError(t, g.Register(ctx, draft{Title: "eventually"}))

	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveSaved || g.State().Status == models.SaveIdle
	}, 2*time.Second, 5*time.Millisecond)

	st := g.State()
	assert.Zero(t, st.RetryCount, "success resets the retry counter")
	assert.NotNil(t, st.LastSaved)
	assert.Equal(t, int64(3), calls.Load())

	_, ok := f.cache.Get("draft-1")
	assert.False(t, ok)
	assert.Zero(t, f.errCount.Load())
}

// ── Rate limiting ────────────────────────────────────────────────────────────

func TestGuard_RateLimit_DoesNotConsumeRetryBudget(t *testing.T) {
	var calls atomic.Int64
	g, f := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error {
		if calls.Add(1) == 1 {
			return &adapter.RateLimitError{RetryAfter: 30 * time.Millisecond}
		}
		return nil
	})
	ctx := context.Background()

	require.NoError(t, g.Register(ctx, draft{Title: "throttled"}))

	require.Eventually(t, func() bool {
		st := g.State()
		return st.Status == models.SavePending && !st.RateLimitedUntil.IsZero()
	}, time.Second, time.Millisecond, "rate limiting is not a failure")

	st := g.State()
	assert.Zero(t, st.RetryCount, "rate-limit retries never consume the budget")
	assert.True(t, st.RateLimitedUntil.After(time.Now().Add(-time.Second)))

	// the retry lands after the cool-down plus the scheduling slack
	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveSaved || g.State().Status == models.SaveIdle
	}, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, int64(2), calls.Load())
	assert.Zero(t, f.errCount.Load())
}

func TestGuard_RateLimit_RetryWaitsOutTheCooldown(t *testing.T) {
	cooldown := 60 * time.Millisecond
	var firstAttempt, secondAttempt atomic.Int64
	var calls atomic.Int64

	g, _ := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error {
		switch calls.Add(1) {
		case 1:
			firstAttempt.Store(time.Now().UnixNano())
			return &adapter.RateLimitError{RetryAfter: cooldown}
		default:
			secondAttempt.Store(time.Now().UnixNano())
			return nil
		}
	})

	require.NoError(t, g.Register(context.Background(), draft{Title: "x"}))

	require.Eventually(t, func() bool { return secondAttempt.Load() != 0 }, 5*time.Second, time.Millisecond)
	gap := time.Duration(secondAttempt.Load() - firstAttempt.Load())
	assert.GreaterOrEqual(t, gap, cooldown, "retry must not land inside the cool-down window")
}

// ── Offline handling ─────────────────────────────────────────────────────────

func TestGuard_Offline_NoNetworkCallsAndBackupKept(t *testing.T) {
	var calls atomic.Int64
	g, f := newTestGuard(t, fastAutosave(), false, func(context.Context, json.RawMessage) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, g.Register(context.Background(), draft{Title: "offline edit"}))

	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveOffline
	}, time.Second, 5*time.Millisecond)

	assert.Zero(t, calls.Load(), "no network attempts while offline")
	assert.False(t, g.IsOnline())

	raw, ok := f.cache.Get("draft-1")
	require.True(t, ok)
	var env models.BackupEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Contains(t, string(env.Data), "offline edit")
	assert.True(t, f.notifier.has(NoticeWarning))
}

func TestGuard_Reconnect_TriggersExactlyOneSave(t *testing.T) {
	var calls atomic.Int64
	var sent atomic.Value
	g, f := newTestGuard(t, fastAutosave(), false, func(_ context.Context, snap json.RawMessage) error {
		calls.Add(1)
		sent.Store(string(snap))
		return nil
	})

	require.NoError(t, g.Register(context.Background(), draft{Title: "pending offline"}))
	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveOffline
	}, time.Second, 5*time.Millisecond)

	f.monitor.SetOnline(true)

	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveSaved || g.State().Status == models.SaveIdle
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
	assert.Contains(t, sent.Load().(string), "pending offline")
}

func TestGuard_ConnectivityLost_SwitchesToOfflineStatus(t *testing.T) {
	g, f := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error { return nil })

	require.NoError(t, g.Register(context.Background(), draft{Title: "x"}))
	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveSaved || g.State().Status == models.SaveIdle
	}, time.Second, 5*time.Millisecond)

	f.monitor.SetOnline(false)

	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveOffline
	}, time.Second, 5*time.Millisecond)
}

// ── SaveNow / Flush ──────────────────────────────────────────────────────────

func TestGuard_SaveNow_BypassesDebounce(t *testing.T) {
	cfg := fastAutosave()
	cfg.Delay = time.Hour

	var calls atomic.Int64
	g, _ := newTestGuard(t, cfg, true, func(context.Context, json.RawMessage) error {
		calls.Add(1)
		return nil
	})
	ctx := context.Background()

	require.NoError(t, g.Register(ctx, draft{Title: "manual"}))
	assert.Zero(t, calls.Load())

	g.SaveNow(ctx)

	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, models.SaveSaved, g.State().Status)
}

func TestGuard_SaveNow_ResetsRetryBudget(t *testing.T) {
	var calls atomic.Int64
	fail := atomic.Bool{}
	fail.Store(true)

	cfg := fastAutosave()
	cfg.RetryDelay = time.Hour // park the automatic retry

	g, _ := newTestGuard(t, cfg, true, func(context.Context, json.RawMessage) error {
		calls.Add(1)
		if fail.Load() {
			return assert.AnError
		}
		return nil
	})
	ctx := context.Background()

	require.NoError(t, g.Register(ctx, draft{Title: "x"}))
	require.Eventually(t, func() bool {
		return g.State().Status == models.SaveError
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, g.State().RetryCount)

	fail.Store(false)
	g.SaveNow(ctx)

	st := g.State()
	assert.Equal(t, models.SaveSaved, st.Status)
	assert.Zero(t, st.RetryCount)
}

func TestGuard_Flush_PersistsLocallyEvenWhenOffline(t *testing.T) {
	cfg := fastAutosave()
	cfg.Delay = time.Hour

	g, f := newTestGuard(t, cfg, false, func(context.Context, json.RawMessage) error { return nil })
	ctx := context.Background()

	require.NoError(t, g.Register(ctx, draft{Title: "shutdown"}))
	f.cache.Remove("draft-1") // simulate the backup being gone at signal time

	require.NoError(t, g.Flush(ctx))

	_, ok := f.cache.Get("draft-1")
	assert.True(t, ok, "Flush re-writes the local backup synchronously")
}

func TestGuard_Flush_WithoutSnapshotIsNoOp(t *testing.T) {
	g, _ := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error { return nil })
	assert.NoError(t, g.Flush(context.Background()))
}

// ── Recover ──────────────────────────────────────────────────────────────────

func TestGuard_Recover_PrefersFastCache(t *testing.T) {
	cfg := fastAutosave()
	cfg.Delay = time.Hour

	g, _ := newTestGuard(t, cfg, true, func(context.Context, json.RawMessage) error { return nil })

	require.NoError(t, g.Register(context.Background(), draft{Title: "recoverable"}))

	env, err := g.Recover(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(env.Data), "recoverable")
	assert.Equal(t, "1.0.0", env.Version)
}

func TestGuard_Recover_FallsBackToDurableStoreOnCorruptCache(t *testing.T) {
	g, f := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error { return nil })
	ctx := context.Background()

	f.cache.Set("draft-1", "{not json")
	f.backups.m["draft-1"] = models.BackupEnvelope{
		Data:      json.RawMessage(`{"title":"from durable"}`),
		Timestamp: time.Now(),
		Version:   "1.0.0",
	}

	env, err := g.Recover(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(env.Data), "from durable")
}

func TestGuard_Recover_NewerTimestampWinsAcrossTiers(t *testing.T) {
	g, f := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error { return nil })
	ctx := context.Background()

	older := models.BackupEnvelope{
		Data:      json.RawMessage(`{"title":"older"}`),
		Timestamp: time.Now().Add(-time.Minute),
		Version:   "1.0.0",
	}
	newer := models.BackupEnvelope{
		Data:      json.RawMessage(`{"title":"newer"}`),
		Timestamp: time.Now(),
		Version:   "1.0.0",
	}

	// a degraded fast cache can lag behind the durable store
	cached, err := json.Marshal(older)
	require.NoError(t, err)
	f.cache.Set("draft-1", string(cached))
	f.backups.m["draft-1"] = newer

	env, err := g.Recover(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(env.Data), "newer")

	// and the cache wins again once it holds the fresher snapshot
	cached, err = json.Marshal(newer)
	require.NoError(t, err)
	f.cache.Set("draft-1", string(cached))
	f.backups.m["draft-1"] = older

	env, err = g.Recover(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(env.Data), "newer")
}

func TestGuard_Recover_AfterCacheDegradesOverCapacityAndReload(t *testing.T) {
	cfg := fastAutosave()
	cfg.Delay = time.Hour

	path := filepath.Join(t.TempDir(), "cache.json")
	fastCache := cache.NewFileCache(path, 512, logger.Nop())
	backups := newMemBackupRepo()

	newGuard := func(c cache.Cache) DocumentGuard {
		g := NewDocumentGuard("draft-1", func(context.Context, json.RawMessage) error { return nil }, cfg, "1.0.0", GuardDeps{
			Cache:   c,
			Backups: backups,
			Monitor: connectivity.NewMonitor(true, nil, logger.Nop()),
			Logger:  logger.Nop(),
		})
		t.Cleanup(g.Close)
		return g
	}

	ctx := context.Background()
	g := newGuard(fastCache)

	// the first snapshot fits the cache file, the second overflows it and
	// lands only in the durable store while the file keeps the first
	require.NoError(t, g.Register(ctx, draft{Title: "v1"}))
	require.NoError(t, g.Register(ctx, draft{Title: "v2", Body: strings.Repeat("x", 2048)}))
	require.True(t, fastCache.IsLimited())

	// simulate a crash/reload by constructing fresh tiers over the same file
	reloaded := newGuard(cache.NewFileCache(path, 512, logger.Nop()))

	env, err := reloaded.Recover(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(env.Data), "v2")
}

func TestGuard_Recover_NothingRecoverable(t *testing.T) {
	g, _ := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error { return nil })

	_, err := g.Recover(context.Background())
	assert.ErrorIs(t, err, store.ErrBackupNotFound)
}

// ── Close ────────────────────────────────────────────────────────────────────

func TestGuard_Close_WritesFinalBackupForUnsavedChanges(t *testing.T) {
	cfg := fastAutosave()
	cfg.Delay = time.Hour

	g, f := newTestGuard(t, cfg, true, func(context.Context, json.RawMessage) error { return nil })

	require.NoError(t, g.Register(context.Background(), draft{Title: "last words"}))
	f.cache.Remove("draft-1")

	g.Close()

	_, ok := f.cache.Get("draft-1")
	assert.True(t, ok, "Close persists unsaved work one last time")
}

func TestGuard_DoubleClose_NoPanic(t *testing.T) {
	g, _ := newTestGuard(t, fastAutosave(), true, func(context.Context, json.RawMessage) error { return nil })
	g.Close()
	assert.NotPanics(t, g.Close)
}
