package jobs

import (
	"log/slog"

	"leadpilot/internal/campaigns"
	"leadpilot/internal/database"
	"leadpilot/internal/stats"
)

// StatsReconcilerJob recomputes stats for every active campaign
type StatsReconcilerJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
}

func NewStatsReconcilerJob(dbManager *database.DBManager, logger *slog.Logger) *StatsReconcilerJob {
	return &StatsReconcilerJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Run recomputes campaign stats for all active campaigns. One failing
// campaign does not stop the pass.
func (j *StatsReconcilerJob) Run() error {
	db := j.dbManager.GetConnection()

	campaignIDs, err := campaigns.GetActiveCampaignIDs(db)
	if err != nil {
		j.logger.Error("Failed to list active campaigns", slog.Any("error", err))
		return err
	}

	if len(campaignIDs) == 0 {
		j.logger.Debug("No active campaigns to reconcile")
		return nil
	}

	reconciled := 0
	for _, campaignID := range campaignIDs {
		if err := stats.Recompute(j.logger, db, campaignID); err != nil {
			j.logger.Error("Failed to reconcile campaign stats",
				slog.Uint64("campaign_id", uint64(campaignID)),
				slog.Any("error", err))
			continue
		}
		reconciled++
	}

	j.logger.Info("Campaign stats reconciled",
		slog.Int("count", reconciled),
		slog.Int("total", len(campaignIDs)))

	return nil
}
