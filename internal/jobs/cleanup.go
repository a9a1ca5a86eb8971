package jobs

import (
	"log/slog"
	"time"

	"leadpilot/internal/config"
	"leadpilot/internal/database"
	"leadpilot/internal/tasks"
)

// CleanupJob handles cleanup of old processed tasks
type CleanupJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewCleanupJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run removes processed tasks older than the retention period. Processed
// rows are audit history, not live state, so keeping them forever only
// grows the database.
func (j *CleanupJob) Run() error {
	retentionDays := j.cfg.TasksRetentionDays
	db := j.dbManager.GetConnection()
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	j.logger.Info("Starting cleanup of old processed tasks",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff_date", cutoffDate))

	deleted, err := tasks.DeleteProcessedOlderThan(j.logger, db, cutoffDate)
	if err != nil {
		j.logger.Error("Failed to delete old tasks", slog.Any("error", err))
		return err
	}

	if deleted == 0 {
		j.logger.Debug("No old tasks to clean up")
		return nil
	}

	j.logger.Info("Cleaned up old tasks",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", retentionDays))

	return nil
}
