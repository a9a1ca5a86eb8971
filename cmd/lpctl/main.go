// main.go - Admin control tool for Leadpilot
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"leadpilot/internal"
	"leadpilot/internal/campaigns"
	"leadpilot/internal/config"
	"leadpilot/internal/leads"
	"leadpilot/internal/messages"
	"leadpilot/internal/pkg/async"
	"leadpilot/internal/seeder"
	"leadpilot/internal/stats"
	"leadpilot/internal/tasks"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&SeedCommand{},
	&PersonalizeCommand{},
	&ProcessTasksCommand{},
	&RecomputeStatsCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	// Parse global flags
	flag.Parse()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Set up context with cancellation for cleanup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals in a separate goroutine
	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	// Parse command and arguments
	cmdName, args := parseArgs()

	// Find the requested command
	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	// Try to initialize the app
	app, err := internal.NewApp()
	if err != nil {
		log.Printf("Warning: Failed to initialize app: %v", err)
		log.Println("Proceeding with limited functionality...")
	}

	// Ensure app is cleaned up
	defer func() {
		if app != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
		}
	}()

	// Execute the command
	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot run migrations")
	}

	log.Println("Running database migrations...")

	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand populates the DB with demo data
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds the database with sample data" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	leadCount := fs.Int("leads", 50, "number of demo leads to generate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	se := seeder.NewSeeder(app.DBManager, slog.Default(), *leadCount)
	return se.Run(ctx)
}

// PersonalizeCommand fans out personalization over a campaign's
// assignments using a local worker pool instead of the task queue, for
// operators who want a campaign personalized right now.
type PersonalizeCommand struct{}

func (c *PersonalizeCommand) Name() string { return "personalize" }
func (c *PersonalizeCommand) Description() string {
	return "Personalizes message assignments for a campaign"
}

func (c *PersonalizeCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("personalize", flag.ContinueOnError)
	assignmentID := fs.Uint("id", 0, "single assignment to personalize")
	campaignID := fs.Uint("campaign", 0, "campaign whose assignments to personalize")
	all := fs.Bool("all", false, "personalize every assignment missing personalized text")
	force := fs.Bool("force", false, "re-personalize assignments that already have text")
	workers := fs.Int("workers", 4, "number of concurrent workers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}
	if *assignmentID == 0 && *campaignID == 0 && !*all {
		return fmt.Errorf("one of -id, -campaign or -all is required")
	}

	db := app.DBManager.GetConnection()
	logger := slog.Default()
	processor := internal.NewTaskProcessor(config.GetConfig(), logger)
	if processor.AI == nil {
		return fmt.Errorf("no AI API key configured")
	}

	if *assignmentID != 0 {
		if *force {
			if err := messages.SetPersonalizedMsg(logger, db, *assignmentID, ""); err != nil {
				return err
			}
		}
		if err := processor.PersonalizeAssignment(ctx, db, *assignmentID); err != nil {
			return err
		}
		log.Printf("Personalized assignment %d", *assignmentID)
		return nil
	}

	var (
		pending []messages.MessageAssignment
		err     error
	)
	if *all {
		pending, err = messages.GetAllAssignments(db, !*force)
	} else {
		pending, err = messages.GetAssignmentsForCampaign(db, *campaignID, !*force)
	}
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		log.Println("Nothing to personalize")
		return nil
	}

	if *force {
		for _, a := range pending {
			if err := messages.SetPersonalizedMsg(logger, db, a.ID, ""); err != nil {
				return err
			}
		}
	}

	poolTasks := make([]async.Task, 0, len(pending))
	for _, a := range pending {
		assignmentID := a.ID
		poolTasks = append(poolTasks, async.Task{
			Name: fmt.Sprintf("assignment-%d", assignmentID),
			Execute: func() (interface{}, error) {
				return nil, processor.PersonalizeAssignment(ctx, db, assignmentID)
			},
		})
	}

	pool := async.NewPool(*workers)
	results := pool.Execute(ctx, poolTasks)

	failed := 0
	for name, result := range results {
		if result.Err != nil {
			failed++
			log.Printf("Failed %s: %v", name, result.Err)
		}
	}

	log.Printf("Personalized %d assignments (%d failed)", len(results)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d assignments failed", failed)
	}
	return nil
}

// ProcessTasksCommand drains the pending task queue once
type ProcessTasksCommand struct{}

func (c *ProcessTasksCommand) Name() string        { return "process-tasks" }
func (c *ProcessTasksCommand) Description() string { return "Processes pending queue tasks once" }

func (c *ProcessTasksCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	db := app.DBManager.GetConnection()
	processor := internal.NewTaskProcessor(config.GetConfig(), slog.Default())

	processed, err := processor.ProcessPending(ctx, db)
	if err != nil {
		return err
	}

	log.Printf("Processed %d tasks", processed)
	return nil
}

// RecomputeStatsCommand recomputes stats for one or all active campaigns
type RecomputeStatsCommand struct{}

func (c *RecomputeStatsCommand) Name() string        { return "recompute-stats" }
func (c *RecomputeStatsCommand) Description() string { return "Recomputes campaign statistics" }

func (c *RecomputeStatsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("recompute-stats", flag.ContinueOnError)
	campaignID := fs.Uint("campaign", 0, "campaign to recompute (all active campaigns if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	db := app.DBManager.GetConnection()
	logger := slog.Default()

	if *campaignID != 0 {
		return stats.Recompute(logger, db, *campaignID)
	}

	campaignIDs, err := campaigns.GetActiveCampaignIDs(db)
	if err != nil {
		return err
	}
	for _, id := range campaignIDs {
		if err := stats.Recompute(logger, db, id); err != nil {
			return fmt.Errorf("campaign %d: %w", id, err)
		}
	}

	log.Printf("Recomputed stats for %d campaigns", len(campaignIDs))
	return nil
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot check status: app initialization failed")
	}

	// Get database connection
	db := app.DBManager.GetConnection()

	var leadCount int64
	if err := db.Model(&leads.Lead{}).Count(&leadCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	var campaignCount int64
	if err := db.Model(&campaigns.Campaign{}).Count(&campaignCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	pendingTasks, err := tasks.CountPending(db)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	log.Println("System Status:")
	log.Println("- Database: Connected")
	log.Printf("- Leads: %d", leadCount)
	log.Printf("- Campaigns: %d", campaignCount)
	log.Printf("- Pending tasks: %d", pendingTasks)

	// Check database statistics
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}

	log.Printf("- Max Open Connections: %d", sqlDB.Stats().MaxOpenConnections)
	log.Printf("- Open Connections: %d", sqlDB.Stats().OpenConnections)
	log.Printf("- In Use: %d", sqlDB.Stats().InUse)
	log.Printf("- Idle: %d", sqlDB.Stats().Idle)

	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fmt.Println("Usage: lpctl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}

	return nil
}

// Helper functions

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := os.Args[1:]
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

// showUsageAndExit shows usage information and exits
func showUsageAndExit() {
	fmt.Println("Usage: lpctl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}

	os.Exit(1)
}
