package jobs

import (
	"context"
	"log/slog"

	"leadpilot/internal/database"
	"leadpilot/internal/tasks"
)

// TaskProcessorJob drains the pending task queue
type TaskProcessorJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	processor *tasks.Processor
}

func NewTaskProcessorJob(dbManager *database.DBManager, logger *slog.Logger, processor *tasks.Processor) *TaskProcessorJob {
	return &TaskProcessorJob{
		dbManager: dbManager,
		logger:    logger,
		processor: processor,
	}
}

// Run processes pending tasks from the queue
func (j *TaskProcessorJob) Run() error {
	db := j.dbManager.GetConnection()

	pendingCount, err := tasks.CountPending(db)
	if err != nil {
		j.logger.Error("Failed to count pending tasks", slog.Any("error", err))
		return err
	}

	if pendingCount == 0 {
		j.logger.Debug("No pending tasks")
		return nil
	}

	j.logger.Info("Found pending tasks", slog.Int64("count", pendingCount))

	processed, err := j.processor.ProcessPending(context.Background(), db)
	if err != nil {
		j.logger.Error("Failed to process tasks",
			slog.Int("processed", processed),
			slog.Any("error", err))
		return err
	}

	j.logger.Info("Tasks processed",
		slog.Int("count", processed),
		slog.Int64("remaining", pendingCount-int64(processed)))

	return nil
}
