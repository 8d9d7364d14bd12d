package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/planory/draftguard/internal/logger"
)

type outboxSyncJob struct {
	outbox OutboxService
	logger *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a background job that drains the outbox on a ticker.
// The job is idle until Start is called.
func NewSyncJob(outbox OutboxService, log *logger.Logger) SyncJob {
	return &outboxSyncJob{outbox: outbox, logger: log}
}

// Start implements SyncJob. It stops any previously running job, then
// launches a background goroutine that replays pending mutations every
// interval. If interval is zero or negative it defaults to 1 minute. The
// goroutine exits when ctx is cancelled or Stop is called.
func (j *outboxSyncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.runPass(jobCtx)
			}
		}
	}()
}

// Stop implements SyncJob. It cancels the background goroutine's context
// and blocks until the goroutine has fully exited. Safe to call when the
// job is not running (no-op in that case).
func (j *outboxSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *outboxSyncJob) runPass(ctx context.Context) {
	_, err := j.outbox.SyncPendingMutations(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrOffline), errors.Is(err, ErrSyncInProgress):
		// both resolve themselves; the next tick tries again
		j.logger.Debug().Err(err).Str("func", "outboxSyncJob.runPass").Msg("sync pass skipped")
	default:
		j.logger.Warn().Err(err).Str("func", "outboxSyncJob.runPass").Msg("periodic sync pass failed")
	}
}
