package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/common"
	"github.com/ternarybob/custos/internal/handlers"
	"github.com/ternarybob/custos/internal/interfaces"
	"github.com/ternarybob/custos/internal/services/bot"
	"github.com/ternarybob/custos/internal/services/filters"
	"github.com/ternarybob/custos/internal/services/scheduler"
	"github.com/ternarybob/custos/internal/services/tracker"
	"github.com/ternarybob/custos/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	FilterService    *filters.Service
	TrackerService   interfaces.TrackerService
	Processor        *bot.Processor
	SchedulerService *scheduler.Service

	// HTTP handlers
	ChatHandler   *handlers.ChatHandler
	FilterHandler *handlers.FilterHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	filterService, err := filters.NewService(storageManager.FilterStorage(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved filters: %w", err)
	}
	app.FilterService = filterService

	app.TrackerService = tracker.NewClient(&cfg.Tracker, logger)

	processor, err := bot.NewProcessor(&cfg.Bot, app.TrackerService, filterService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize message processor: %w", err)
	}
	app.Processor = processor

	app.ChatHandler = handlers.NewChatHandler(processor, logger)
	app.FilterHandler = handlers.NewFilterHandler(filterService, logger)

	app.SchedulerService = scheduler.NewService(storageManager, logger)
	if err := app.SchedulerService.Start(cfg.Maintenance.GCSchedule); err != nil {
		return nil, fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}

	logger.Info().
		Str("tracker_url", cfg.Tracker.BaseURL).
		Bool("legacy_schema", cfg.Tracker.UseLegacySchema).
		Int("saved_filters", len(filterService.All())).
		Msg("Application initialization complete")

	return app, nil
}

// Close shuts down application components in reverse dependency order.
// In-flight issue lookups are drained before storage closes so a lookup
// never races a closed database.
func (a *App) Close() error {
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	if a.Processor != nil {
		a.Processor.Wait()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
