package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/planory/draftguard/internal/adapter"
	"github.com/planory/draftguard/internal/cache"
	"github.com/planory/draftguard/internal/config"
	"github.com/planory/draftguard/internal/connectivity"
	"github.com/planory/draftguard/internal/logger"
	"github.com/planory/draftguard/internal/service"
	"github.com/planory/draftguard/internal/store"
	"github.com/planory/draftguard/internal/workers"
	"github.com/planory/draftguard/models"
)

// App owns the full durability runtime: storage tiers, backend adapter,
// connectivity monitor, services, and background workers.
type App struct {
	cfg      *config.ClientConfig
	logger   *logger.Logger
	storages *store.Storages
	cache    cache.Cache
	backend  adapter.Backend
	monitor  *connectivity.Monitor
	services *service.Services
	workers  *workers.Workers

	mu     sync.Mutex
	guards map[string]service.DocumentGuard
	closed bool
}

// NewApp wires the application from configuration. notifier may be nil;
// notices then go to the log.
func NewApp(cfg *config.ClientConfig, notifier service.Notifier, log *logger.Logger) (*App, error) {
	storages, err := store.NewStorages(cfg.Storage.DB, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	fastCache := cache.NewFileCache(cfg.Storage.Cache.Path, cfg.Storage.Cache.MaxBytes, log)
	backend := adapter.NewHTTPBackend(cfg.Adapter, log)

	// assume online until the first probe says otherwise
	monitor := connectivity.NewMonitor(true, backend.Ping, log)

	services := service.NewServices(storages, fastCache, backend, monitor, notifier, cfg, log)

	return &App{
		cfg:      cfg,
		logger:   log,
		storages: storages,
		cache:    fastCache,
		backend:  backend,
		monitor:  monitor,
		services: services,
		workers: workers.New(
			workers.NewProbeWorker(monitor, cfg.Workers.ProbeInterval),
			workers.NewSyncWorker(services.SyncJob, cfg.Workers.SyncInterval),
		),
		guards: make(map[string]service.DocumentGuard),
	}, nil
}

// Services exposes the durability services for embedding callers.
func (a *App) Services() *service.Services {
	return a.services
}

// Monitor exposes the connectivity monitor so hosts can feed it
// environment-level online/offline signals.
func (a *App) Monitor() *connectivity.Monitor {
	return a.monitor
}

// Guard returns the document guard for key, creating and tracking it on
// first use. Tracked guards are flushed on signals and closed on shutdown.
func (a *App) Guard(key string, save service.SaveFunc, onSaved func(), onError func(error)) service.DocumentGuard {
	a.mu.Lock()
	defer a.mu.Unlock()

	if g, ok := a.guards[key]; ok {
		return g
	}
	g := a.services.NewGuard(key, save, onSaved, onError)
	a.guards[key] = g
	return g
}

// Run starts the background workers and blocks until ctx is cancelled or a
// termination signal arrives. SIGHUP flushes all guards without exiting;
// SIGINT and SIGTERM flush and shut down.
func (a *App) Run(ctx context.Context) error {
	a.workers.Start(ctx)
	a.logger.Info().Str("func", "App.Run").Msg("draftguard runtime started")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			a.Shutdown(context.Background())
			return ctx.Err()
		case sig := <-sigs:
			if sig == syscall.SIGHUP {
				a.logger.Info().Str("func", "App.Run").Msg("SIGHUP received, flushing")
				a.FlushAll(ctx)
				continue
			}
			a.logger.Info().Str("func", "App.Run").Str("signal", sig.String()).Msg("termination signal, flushing and shutting down")
			a.Shutdown(ctx)
			return nil
		}
	}
}

// RestoreBackup returns the most recent recoverable envelope for key from
// either local tier. Useful right after startup, before any guard has
// been created for key.
func (a *App) RestoreBackup(ctx context.Context, key string) (models.BackupEnvelope, error) {
	return a.services.RestoreBackup(ctx, key)
}

// FlushAll flushes every tracked guard. Local persistence is synchronous;
// network saves are best-effort.
func (a *App) FlushAll(ctx context.Context) {
	a.mu.Lock()
	guards := make([]service.DocumentGuard, 0, len(a.guards))
	for _, g := range a.guards {
		guards = append(guards, g)
	}
	a.mu.Unlock()

	for _, g := range guards {
		if err := g.Flush(ctx); err != nil {
			a.logger.Warn().Err(err).Str("func", "App.FlushAll").Msg("guard flush failed")
		}
	}
}

// Shutdown flushes and closes all guards, stops the workers, and releases
// the services. Safe to call more than once.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	guards := make([]service.DocumentGuard, 0, len(a.guards))
	for _, g := range a.guards {
		guards = append(guards, g)
	}
	a.mu.Unlock()

	a.FlushAll(ctx)
	for _, g := range guards {
		g.Close()
	}

	a.workers.Stop()
	a.services.Close()
	a.logger.Info().Str("func", "App.Shutdown").Msg("draftguard runtime stopped")
}
