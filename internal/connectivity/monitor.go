// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planory

// Package connectivity tracks online/offline transitions and notifies
// subscribers. The monitor is the single source of truth for "can we reach
// the server right now"; it never flushes anything itself, it only
// observes the environment and tells downstream components about edges.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/planory/draftguard/internal/logger"
)

// Probe checks backend reachability. A nil error means online.
type Probe func(ctx context.Context) error

// Monitor is a process-wide observable connectivity flag. It is created
// once at application start and passed by reference to every component
// that needs to gate network I/O.
type Monitor struct {
	probe  Probe
	logger *logger.Logger

	mu        sync.RWMutex
	online    bool
	nextID    int
	listeners map[int]func(online bool)

	jobMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor constructs a Monitor initialised from the environment's
// reported connectivity. probe may be nil when no active probing is
// wanted; SetOnline then remains the only signal source.
func NewMonitor(initialOnline bool, probe Probe, log *logger.Logger) *Monitor {
	return &Monitor{
		probe:     probe,
		logger:    log,
		online:    initialOnline,
		listeners: make(map[int]func(bool)),
	}
}

// IsOnline reports the last observed connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline records an environment-level online/offline signal. Listeners
// are notified only on an actual edge, outside the monitor's lock.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	notify := make([]func(bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		notify = append(notify, fn)
	}
	m.mu.Unlock()

	m.logger.Info().Str("func", "Monitor.SetOnline").Bool("online", online).Msg("connectivity changed")
	for _, fn := range notify {
		fn(online)
	}
}

// Subscribe registers fn for connectivity edges and returns an unsubscribe
// function. fn is invoked synchronously from SetOnline.
func (m *Monitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Start launches the background probe loop. Every interval the backend is
// probed (with a short fibonacci-backoff retry to ride out blips) and the
// observed state is fed back through SetOnline. The loop exits when ctx is
// cancelled or Stop is called. No-op when the monitor has no probe.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	if m.probe == nil {
		return
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	m.Stop()

	m.jobMu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.jobMu.Unlock()

	go func() {
		defer m.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				m.SetOnline(m.probeOnce(jobCtx))
			}
		}
	}()
}

// Stop cancels the probe loop and blocks until it has fully exited. Safe
// to call when the loop is not running.
func (m *Monitor) Stop() {
	m.jobMu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.jobMu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) probeOnce(ctx context.Context) bool {
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(m.probe(ctx))
	})
	if err != nil {
		m.logger.Debug().Err(err).Str("func", "Monitor.probeOnce").Msg("probe failed")
		return false
	}
	return true
}
