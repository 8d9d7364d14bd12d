package workers

import (
	"context"
	"time"

	"github.com/planory/draftguard/internal/connectivity"
	"github.com/planory/draftguard/internal/service"
)

// Workers runs a set of background workers as one unit.
type Workers struct {
	workers []Worker
}

// New aggregates the given workers. Start order follows the argument
// order; Stop runs in reverse.
func New(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

// Start launches every worker.
func (w *Workers) Start(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Start(ctx)
	}
}

// Stop stops every worker in reverse start order, blocking until each has
// exited.
func (w *Workers) Stop() {
	for i := len(w.workers) - 1; i >= 0; i-- {
		w.workers[i].Stop()
	}
}

// syncWorker drives the outbox sync job on its configured interval.
type syncWorker struct {
	job      service.SyncJob
	interval time.Duration
}

// NewSyncWorker wraps the outbox sync job as a Worker.
func NewSyncWorker(job service.SyncJob, interval time.Duration) Worker {
	return &syncWorker{job: job, interval: interval}
}

func (w *syncWorker) Start(ctx context.Context) { w.job.Start(ctx, w.interval) }

func (w *syncWorker) Stop() { w.job.Stop() }

// probeWorker drives the connectivity monitor's probe loop.
type probeWorker struct {
	monitor  *connectivity.Monitor
	interval time.Duration
}

// NewProbeWorker wraps the connectivity probe loop as a Worker.
func NewProbeWorker(monitor *connectivity.Monitor, interval time.Duration) Worker {
	return &probeWorker{monitor: monitor, interval: interval}
}

func (w *probeWorker) Start(ctx context.Context) { w.monitor.Start(ctx, w.interval) }

func (w *probeWorker) Stop() { w.monitor.Stop() }
