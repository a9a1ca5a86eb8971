package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"leadpilot/internal/config"
	"leadpilot/internal/database"
	"leadpilot/internal/tasks"
)

// Scheduler is responsible for running background jobs
type Scheduler struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	cfg       *config.Config

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	// Job instances
	taskJob      *TaskProcessorJob
	cleanupJob   *CleanupJob
	reconcileJob *StatsReconcilerJob

	// Tickers and cron schedule
	taskTicker    *time.Ticker
	cleanupTicker *time.Ticker
	cron          *cron.Cron
}

func NewScheduler(dbManager *database.DBManager, logger *slog.Logger, processor *tasks.Processor) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetConfig()

	s := &Scheduler{
		dbManager: dbManager,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		enabled:   true,
		isRunning: false,
		cfg:       cfg,
	}

	// Initialize job instances
	s.taskJob = NewTaskProcessorJob(dbManager, logger, processor)
	s.cleanupJob = NewCleanupJob(dbManager, logger, cfg)
	s.reconcileJob = NewStatsReconcilerJob(dbManager, logger)

	return s, nil
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")

	s.isRunning = true

	s.startTaskProcessingJob()
	s.startCleanupJob()

	if err := s.startStatsReconciler(); err != nil {
		return err
	}

	s.logger.Info("Background jobs started",
		slog.Bool("enabled", s.enabled),
		slog.Bool("isRunning", s.isRunning))

	return nil
}

func (s *Scheduler) startTaskProcessingJob() {
	interval := time.Duration(s.cfg.JobIntervalSeconds) * time.Second
	s.logger.Info("Starting task processing job", slog.Duration("interval", interval))
	s.taskTicker = time.NewTicker(interval)

	go func() {
		// Run initial execution
		s.logger.Info("Running initial task processing...")
		s.executeJobSafely("task_processor", s.taskJob.Run)

		for {
			select {
			case <-s.taskTicker.C:
				s.executeJobSafely("task_processor", s.taskJob.Run)
			case <-s.ctx.Done():
				s.logger.Info("Task processing job stopped")
				return
			}
		}
	}()
}

func (s *Scheduler) startCleanupJob() {
	interval := 24 * time.Hour
	s.logger.Info("Starting cleanup job", slog.Duration("interval", interval))
	s.cleanupTicker = time.NewTicker(interval)

	go func() {
		// Run initial cleanup
		s.logger.Info("Running initial cleanup...")
		if err := s.cleanupJob.Run(); err != nil {
			s.logger.Error("Error in initial cleanup job", slog.Any("error", err))
		}

		for {
			select {
			case <-s.cleanupTicker.C:
				if err := s.cleanupJob.Run(); err != nil {
					s.logger.Error("Error in cleanup job", slog.Any("error", err))
				}
			case <-s.ctx.Done():
				s.logger.Info("Cleanup job stopped")
				return
			}
		}
	}()
}

// startStatsReconciler schedules the nightly full recompute of campaign
// stats. Stats are maintained inline on every write; the nightly pass
// only repairs drift from crashed transactions or manual DB edits.
func (s *Scheduler) startStatsReconciler() error {
	s.cron = cron.New()
	spec := s.cfg.StatsReconcileCron

	_, err := s.cron.AddFunc(spec, func() {
		s.executeJobSafely("stats_reconciler", s.reconcileJob.Run)
	})
	if err != nil {
		s.logger.Error("Invalid stats reconcile schedule",
			slog.String("spec", spec), slog.Any("error", err))
		return err
	}

	s.logger.Info("Starting stats reconciler", slog.String("schedule", spec))
	s.cron.Start()
	return nil
}

// Stop halts all background jobs.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	if s.taskTicker != nil {
		s.taskTicker.Stop()
	}
	if s.cleanupTicker != nil {
		s.cleanupTicker.Stop()
	}
	if s.cron != nil {
		s.cron.Stop()
	}

	s.cancel()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// ProcessTasks allows manual triggering of task processing
func (s *Scheduler) ProcessTasks() error {
	if !s.enabled {
		return nil
	}
	return s.taskJob.Run()
}
