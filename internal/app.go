// Package internal contains core application functionality
package internal

import (
	"fmt"
	"log/slog"

	"github.com/karloscodes/cartridge"

	"leadpilot/internal/ai"
	"leadpilot/internal/config"
	"leadpilot/internal/database"
	"leadpilot/internal/email"
	"leadpilot/internal/jobs"
	"leadpilot/internal/tasks"
)

// Application wraps cartridge.Application with leadpilot-specific components
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager // Leadpilot-specific DB manager with migration methods
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewTaskProcessor builds the task processor from configuration. The AI
// client is optional; without an API key personalization tasks complete
// as no-ops and sends use the plain template.
func NewTaskProcessor(cfg *config.Config, logger *slog.Logger) *tasks.Processor {
	var aiClient ai.Client
	if c := ai.NewClient(cfg); c != nil {
		aiClient = c
	}

	return &tasks.Processor{
		Logger:      logger,
		AI:          aiClient,
		Sender:      &email.LogSender{Logger: logger},
		FromAddress: cfg.EmailFromAddress,
		MaxAttempts: cfg.TaskMaxAttempts,
		BatchSize:   100,
	}
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	// Create logger
	logger := cartridge.NewLogger(cfg, nil)

	// Initialize database manager (leadpilot-specific with migration methods)
	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize jobs system
	scheduler, err := jobs.NewScheduler(dbManager, logger, NewTaskProcessor(cfg, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	// Create the cartridge application using NewApplication
	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:            cfg,
		Logger:            logger,
		DBManager:         dbManager,
		RouteMountFunc:    MountAppRoutes,
		BackgroundWorkers: []cartridge.BackgroundWorker{scheduler},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
	}, nil
}
