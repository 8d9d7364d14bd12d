package service

import (
	"context"

	"github.com/planory/draftguard/internal/adapter"
	"github.com/planory/draftguard/internal/cache"
	"github.com/planory/draftguard/internal/config"
	"github.com/planory/draftguard/internal/connectivity"
	"github.com/planory/draftguard/internal/logger"
	"github.com/planory/draftguard/internal/store"
	"github.com/planory/draftguard/models"
)

// Services aggregates the durability layer. Document guards are created
// per document via NewGuard because each one owns its own debounce state;
// the outbox service and sync job are shared.
type Services struct {
	Outbox  OutboxService
	SyncJob SyncJob

	storages *store.Storages
	cache    cache.Cache
	backend  adapter.Backend
	monitor  *connectivity.Monitor
	notifier Notifier
	cfg      *config.ClientConfig
	logger   *logger.Logger
}

// NewServices wires the shared services. notifier may be nil, in which
// case notices go to the log.
func NewServices(storages *store.Storages, fastCache cache.Cache, backend adapter.Backend, monitor *connectivity.Monitor, notifier Notifier, cfg *config.ClientConfig, log *logger.Logger) *Services {
	if notifier == nil {
		notifier = NewLogNotifier(log)
	}

	outbox := NewOutboxService(storages.Outbox, backend, monitor, log)

	return &Services{
		Outbox:   outbox,
		SyncJob:  NewSyncJob(outbox, log),
		storages: storages,
		cache:    fastCache,
		backend:  backend,
		monitor:  monitor,
		notifier: notifier,
		cfg:      cfg,
		logger:   log,
	}
}

// NewGuard creates a document guard for one logical document, sharing the
// aggregate's storage, connectivity, and notification plumbing. save is
// the network save for that document; the callbacks may be nil.
func (s *Services) NewGuard(key string, save SaveFunc, onSaved func(), onError func(error)) DocumentGuard {
	return NewDocumentGuard(key, save, s.cfg.Autosave, s.cfg.App.Version, GuardDeps{
		Cache:    s.cache,
		Backups:  s.storages.Backups,
		Monitor:  s.monitor,
		Notifier: s.notifier,
		OnSaved:  onSaved,
		OnError:  onError,
		Logger:   s.logger,
	})
}

// RestoreBackup returns the most recent envelope recoverable for key from
// either local tier. Useful right after startup, before any guard has
// been created for key.
func (s *Services) RestoreBackup(ctx context.Context, key string) (models.BackupEnvelope, error) {
	return latestBackup(ctx, s.cache, s.storages.Backups, key, s.logger)
}

// Close stops the sync job and releases the outbox service's
// connectivity subscription. Guards are closed by their owners.
func (s *Services) Close() {
	s.SyncJob.Stop()
	s.Outbox.Close()
}
