// Package control wires the application together: storage backends, the
// retry manager, the operation handler and the admin server.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/provenly/resilience/internal/admin"
	"github.com/provenly/resilience/internal/alert"
	"github.com/provenly/resilience/internal/core/config"
	redisclient "github.com/provenly/resilience/internal/infra/redis"
	"github.com/provenly/resilience/internal/infra/storage/postgres"
	"github.com/provenly/resilience/internal/resilience/breaker"
	"github.com/provenly/resilience/internal/resilience/dlq"
	"github.com/provenly/resilience/internal/resilience/handler"
	"github.com/provenly/resilience/internal/resilience/manager"
)

// App is the main application struct that manages component lifecycles.
type App struct {
	cfg         *config.AppConfig
	manager     *manager.Manager
	handler     *handler.Handler
	adminServer *admin.Server
	redisClient *redisclient.Client
	db          *postgres.DB
	log         *slog.Logger
}

// NewApp creates a new App instance with all dependencies initialized.
//
// The dead-letter store is Redis-backed when a Redis URL is configured and
// falls back to in-memory otherwise. Audit records go to PostgreSQL when a
// database URL is configured and to the log otherwise.
func NewApp(cfg *config.AppConfig, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	// 1. Dead-letter store
	var store dlq.Store
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		store = redisclient.NewDeadLetterRepo(redisClient)
		log.Info("Using Redis dead-letter store")
	} else {
		store = dlq.NewMemoryStore()
		log.Info("Using in-memory dead-letter store")
	}

	// 2. Audit persistence
	var recorder alert.Recorder
	var alertLister admin.AlertLister
	var db *postgres.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return nil, err
		}

		alertRepo := postgres.NewAlertRepo(db)
		recorder = alertRepo
		alertLister = alertRepo
		log.Info("Using PostgreSQL alert storage")
	} else {
		recorder = alert.NewLogRecorder(log)
		log.Info("Using log-only alert storage")
	}
	notifier := alert.NewLogNotifier(log)

	// 3. Retry manager and handler
	m := manager.New(manager.Config{
		Breaker: breaker.Config{
			FailureThreshold: cfg.Resilience.Breaker.FailureThreshold,
			ResetTimeout:     cfg.Resilience.Breaker.ResetTimeout,
			MonitoringWindow: cfg.Resilience.Breaker.MonitoringWindow,
		},
		DeadLetterDelay:       cfg.Resilience.DeadLetterDelay,
		SweepInterval:         cfg.Resilience.SweepInterval,
		SweepRetryDelay:       cfg.Resilience.SweepRetryDelay,
		MaxDeadLetterAttempts: cfg.Resilience.MaxDeadLetterAttempts,
	}, store, recorder, notifier, log)

	h := handler.New(m)

	// 4. Admin server
	adminServer := admin.NewServer(m, alertLister, cfg.Server.Port, log)

	return &App{
		cfg:         cfg,
		manager:     m,
		handler:     h,
		adminServer: adminServer,
		redisClient: redisClient,
		db:          db,
		log:         log,
	}, nil
}

// Manager returns the retry manager, for callers that need raw policies.
func (a *App) Manager() *manager.Manager { return a.manager }

// Handler returns the category-level operation handler.
func (a *App) Handler() *handler.Handler { return a.handler }

// Start starts the background sweeper and the admin server.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.adminServer.Start(); err != nil {
			a.log.Error("Admin server failed", "error", err)
		}
	}()

	go a.manager.Run(ctx)

	a.log.Info("Application started", "port", a.cfg.Server.Port)
	return nil
}

// Stop stops the app and releases its resources.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping application...")

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}

	return a.adminServer.Stop(ctx)
}
