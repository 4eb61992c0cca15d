// Package app is the composition root: it builds the store, the credential
// store, the provider registry, the engine and the background workers from
// configuration, and owns their shutdown order.
package app

import (
	"context"
	"fmt"

	"github.com/cartable-app/cartable/internal/accounts"
	"github.com/cartable-app/cartable/internal/config"
	"github.com/cartable-app/cartable/internal/credstore"
	"github.com/cartable-app/cartable/internal/database"
	accountsdb "github.com/cartable-app/cartable/internal/database/accounts"
	"github.com/cartable-app/cartable/internal/engine"
	"github.com/cartable-app/cartable/internal/journal"
	"github.com/cartable-app/cartable/internal/logger"
	"github.com/cartable-app/cartable/internal/providers"
	"github.com/cartable-app/cartable/internal/scheduler"
	"github.com/cartable-app/cartable/internal/tasks"
)

// Options are the injection points the embedding application controls.
type Options struct {
	// Registry holds the provider plugins the app ships with. Required.
	Registry *providers.Registry

	// Connectivity reports device reachability; nil means always online.
	Connectivity accounts.ConnectivityChecker
}

// App is a fully wired engine instance plus its background workers.
type App struct {
	Config  *config.Config
	DB      *database.Database
	Engine  *engine.Engine
	Journal *journal.Journal

	scheduler *scheduler.RefreshScheduler
	queue     *tasks.Client
}

// New builds the object graph. Nothing is started yet; call Start.
func New(cfg *config.Config, opts Options) (*App, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("app: provider registry is required")
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)

	db, err := database.New(database.Options{
		Path:          cfg.Database.Path,
		WriteTimeout:  cfg.Store.WriteTimeout,
		BulkTimeout:   cfg.Store.BulkTimeout,
		BatchSize:     cfg.Store.BatchSize,
		BatchDelay:    cfg.Store.BatchDelay,
		QueueDepth:    cfg.Store.QueueDepth,
		HealthRetries: cfg.Store.HealthRetries,
		HealthTimeout: cfg.Store.HealthTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	creds, err := credstore.New(credstore.Config{
		Passphrase:  cfg.Credentials.Passphrase,
		KeyFilePath: cfg.Credentials.KeyFilePath,
	}, accountsdb.NewRepository(db))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("credential store: %w", err)
	}

	manager := accounts.NewManager(opts.Registry, creds, opts.Connectivity)
	jrnl := journal.New(cfg.Journal.Dir)
	eng := engine.New(db, manager, jrnl)

	a := &App{
		Config:  cfg,
		DB:      db,
		Engine:  eng,
		Journal: jrnl,
	}

	if cfg.Scheduler.RefreshEnabled {
		a.scheduler = scheduler.NewRefreshScheduler(eng, cfg.Scheduler.RefreshSchedule)
	}

	if cfg.Tasks.Enabled {
		queue, err := tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("task queue: %w", err)
		}
		queue.Register(
			tasks.NewRemoveDuplicatesQueue(db),
			tasks.NewSweepJournalQueue(jrnl),
		)
		a.queue = queue
	}

	return a, nil
}

// Start verifies store health and launches the background workers. A
// degraded store is reported but does not prevent startup.
func (a *App) Start(ctx context.Context) error {
	report := a.DB.VerifyHealth(ctx)
	if report.Degraded {
		logger.Get().Warn().Err(report.Err).Msg("store started degraded")
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("refresh scheduler: %w", err)
		}
	}

	if a.queue != nil {
		go a.queue.Start(ctx)
		a.enqueueMaintenance()
	}

	return nil
}

func (a *App) enqueueMaintenance() {
	if _, err := a.queue.Add(tasks.RemoveDuplicatesTask{}).Save(); err != nil {
		logger.Get().Warn().Err(err).Msg("failed to enqueue duplicate-removal task")
	}
	if _, err := a.queue.Add(tasks.SweepJournalTask{RetentionDays: a.Config.Journal.RetentionDays}).Save(); err != nil {
		logger.Get().Warn().Err(err).Msg("failed to enqueue journal sweep task")
	}
}

// Shutdown stops workers, drains the task queue and closes the store.
func (a *App) Shutdown(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.queue != nil {
		a.queue.Stop(ctx)
		if err := a.queue.Close(); err != nil {
			logger.Get().Warn().Err(err).Msg("failed to close task queue")
		}
	}
	if err := a.DB.Close(); err != nil {
		logger.Get().Warn().Err(err).Msg("failed to close store")
	}
}
