package http

import (
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"

	"leadpilot/internal/tasks"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	DBStatus     string    `json:"db_status"`
	PendingTasks int64     `json:"pending_tasks"`
}

// HealthIndexAction handles the health check endpoint
func HealthIndexAction(ctx *cartridge.Context) error {
	dbStatus := "ok"
	var pendingTasks int64

	// Check database connectivity
	db := ctx.DBManager.GetConnection()
	if db == nil {
		dbStatus = "error"
		ctx.Logger.Error("Database connection unavailable")
	} else {
		sqlDB, err := db.DB()
		if err != nil {
			dbStatus = "error"
			ctx.Logger.Error("Database connection error", slog.Any("error", err))
		} else if err := sqlDB.Ping(); err != nil {
			dbStatus = "error"
			ctx.Logger.Error("Database ping failed", slog.Any("error", err))
		} else if pendingTasks, err = tasks.CountPending(db); err != nil {
			ctx.Logger.Error("Failed to count pending tasks", slog.Any("error", err))
		}
	}

	health := HealthStatus{
		Status:       "ok",
		Timestamp:    time.Now(),
		DBStatus:     dbStatus,
		PendingTasks: pendingTasks,
	}

	if dbStatus != "ok" {
		health.Status = "degraded"
	}

	return ctx.JSON(health)
}
