package links

import (
	"fmt"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"leadpilot/internal/models"
	"leadpilot/internal/stats"
)

// TrackVisit records one visit against the link identified by ref and
// recomputes the owning campaign's stats, all in a single write
// transaction.
//
// The increment is a single SQL UPDATE so concurrent visits to the same
// link serialize at the storage layer instead of racing through a stale
// read-modify-write. External callers recording a click must go through
// here, never mutate visit_count directly, or the stats cache drifts.
//
// Returns the link with its updated counter, or LinkNotFoundError for an
// unknown ref.
func TrackVisit(logger *slog.Logger, db *gorm.DB, ref string) (*Link, error) {
	var link *Link
	err := models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		found, err := GetLinkByRef(tx, ref)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		result := tx.Model(&Link{}).
			Where("id = ?", found.ID).
			Updates(map[string]interface{}{
				"visit_count": gorm.Expr("visit_count + 1"),
				"visited_at":  now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to record visit: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return NewLinkNotFoundError(ref)
		}

		found.VisitCount++
		found.VisitedAt = &now
		link = found

		return stats.RecomputeForCampaign(tx, found.CampaignID)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Visit tracked",
		slog.String("ref", ref),
		slog.Uint64("link_id", uint64(link.ID)),
		slog.Int("visit_count", link.VisitCount))

	return link, nil
}
