package internal

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"linkdrop/internal/catalog"
	"linkdrop/internal/config"
	"linkdrop/internal/database"
	"linkdrop/internal/dispense"
	httphandlers "linkdrop/internal/http"
	"linkdrop/internal/integrations"
	"linkdrop/internal/ledger"
	"linkdrop/internal/pkg/jobs"
	"linkdrop/internal/pkg/server"
	"linkdrop/internal/policy"
	"linkdrop/internal/stats"
	"linkdrop/internal/storage"
)

// App wraps the server application with the quota engine and its sweeper.
type App struct {
	*server.Application
	dispatcher *jobs.Dispatcher

	Catalog *catalog.Catalog
	Ledger  *ledger.Ledger
	Stats   *stats.Stats
}

// NewApp boots the full application: config, logging, database, persisted
// state, domain services, routes, and the background sweeper.
func NewApp() (*App, error) {
	loadDotEnv()

	cfg := config.Get()

	application, err := server.NewApplication(cfg)
	if err != nil {
		return nil, err
	}

	db, err := application.DBManager.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	// Checkpoint WAL to ensure migrations are persisted
	if err := application.DBManager.CheckpointWAL("FULL"); err != nil {
		application.Logger.Warn("failed to checkpoint WAL after migration", zap.Error(err))
	}

	store := storage.New(db, application.Logger)

	checker := integrations.NewLinkChecker(cfg.CollaboratorTimeout, application.Logger)
	deliverer := integrations.NewWebhookDeliverer(cfg, application.Logger)

	cat, err := catalog.Load(store, checker, application.Logger)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	ldg, err := ledger.Load(store, application.Logger)
	if err != nil {
		return nil, fmt.Errorf("load usage ledger: %w", err)
	}

	st, err := stats.Load(store, application.Logger)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	limits := policy.New(cfg.GetRoleLimits())
	dispenser := dispense.New(limits, ldg, cat, st, deliverer, application.Logger)

	api := httphandlers.NewAPI(cfg, application.Logger, dispenser, cat, ldg, st)
	MountRoutes(application.Server.App(), api, cfg)

	sweeper := ledger.NewSweeper(ldg, cfg.UsageWindow)
	dispatcher := jobs.NewDispatcher(application.Logger, cfg.SweepInterval, sweeper)

	return &App{
		Application: application,
		dispatcher:  dispatcher,
		Catalog:     cat,
		Ledger:      ldg,
		Stats:       st,
	}, nil
}

func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// Start begins the HTTP server and the sweep dispatcher.
func (a *App) Start() error {
	if err := a.dispatcher.Start(); err != nil {
		return err
	}
	if err := a.Application.Start(); err != nil {
		a.dispatcher.Stop()
		return err
	}
	return nil
}

// StartAsync starts the components asynchronously.
func (a *App) StartAsync() error {
	if err := a.dispatcher.Start(); err != nil {
		return err
	}
	if err := a.Application.StartAsync(); err != nil {
		a.dispatcher.Stop()
		return err
	}
	return nil
}

// Shutdown gracefully stops the sweeper and the HTTP server.
func (a *App) Shutdown(ctx context.Context) error {
	a.dispatcher.Stop()
	return a.Application.Shutdown(ctx)
}

// RunWithTimeout starts both components and waits for termination signals.
func (a *App) RunWithTimeout(timeout time.Duration) error {
	if err := a.dispatcher.Start(); err != nil {
		return err
	}
	defer a.dispatcher.Stop()
	return a.Application.RunWithTimeout(timeout)
}

// GetConfig returns the application configuration.
func (a *App) GetConfig() *config.Config {
	return a.Application.Config
}

// GetDB returns the database instance.
func (a *App) GetDB() *gorm.DB {
	db, _ := a.Application.DBManager.Connect()
	return db
}
