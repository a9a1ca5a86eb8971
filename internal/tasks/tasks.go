// Package tasks is a small database-backed work queue for deferred
// campaign work. Tasks are rows with a processed flag; the scheduler
// drains unprocessed rows in ID order, so work survives restarts and
// needs no external broker.
package tasks

import (
	"fmt"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"leadpilot/internal/models"
)

// Task kinds
const (
	KindPersonalize = "personalize"
	KindSend        = "send"
)

// Task is one unit of deferred work against a message assignment.
//
// Attempts counts processing failures; once it reaches the configured
// limit the task is marked processed with its last error retained, so a
// poison row cannot wedge the queue.
type Task struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind         string      `gorm:"not null;size:50;index" json:"kind"`
	AssignmentID uint        `gorm:"not null;index" json:"assignment_id"`
	Payload      models.JSON `gorm:"type:text" json:"payload"`

	Processed bool   `gorm:"default:false;index" json:"processed"`
	Attempts  int    `gorm:"default:0" json:"attempts"`
	LastError string `gorm:"type:text" json:"last_error"`

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
}

// TableName specifies the table name for GORM
func (Task) TableName() string {
	return "tasks"
}

// Enqueue persists a new task
func Enqueue(logger *slog.Logger, db *gorm.DB, kind string, assignmentID uint, payload models.JSON) error {
	if kind != KindPersonalize && kind != KindSend {
		return fmt.Errorf("unknown task kind: %s", kind)
	}
	if assignmentID == 0 {
		return fmt.Errorf("task assignment ID is required")
	}

	task := Task{
		Kind:         kind,
		AssignmentID: assignmentID,
		Payload:      payload,
		CreatedAt:    time.Now().UTC(),
	}
	return models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(&task).Error
	})
}

// GetPendingTasks returns unprocessed tasks oldest-first
func GetPendingTasks(db *gorm.DB, limit int) ([]Task, error) {
	var pending []Task
	query := db.Where("processed = ?", false).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to get pending tasks: %w", err)
	}
	return pending, nil
}

// CountPending returns the number of unprocessed tasks
func CountPending(db *gorm.DB) (int64, error) {
	var count int64
	if err := db.Model(&Task{}).Where("processed = ?", false).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count pending tasks: %w", err)
	}
	return count, nil
}

// markProcessed flags a task as done
func markProcessed(logger *slog.Logger, db *gorm.DB, taskID uint, lastError string) error {
	now := time.Now().UTC()
	return models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(&Task{}).
			Where("id = ?", taskID).
			Updates(map[string]interface{}{
				"processed":    true,
				"processed_at": now,
				"last_error":   lastError,
			}).Error
	})
}

// recordFailure increments a task's attempt counter and stores the error
func recordFailure(logger *slog.Logger, db *gorm.DB, taskID uint, procErr error) error {
	return models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(&Task{}).
			Where("id = ?", taskID).
			Updates(map[string]interface{}{
				"attempts":   gorm.Expr("attempts + 1"),
				"last_error": procErr.Error(),
			}).Error
	})
}

// DeleteProcessedOlderThan removes processed tasks past the retention
// window and returns the number deleted.
func DeleteProcessedOlderThan(logger *slog.Logger, db *gorm.DB, cutoff time.Time) (int64, error) {
	var deleted int64
	err := models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Where("processed = ? AND processed_at < ?", true, cutoff).Delete(&Task{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old tasks: %w", err)
	}
	return deleted, nil
}
