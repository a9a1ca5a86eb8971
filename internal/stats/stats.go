// Package stats maintains the derived per-campaign statistics cache.
//
// CampaignStats is a read-side cache: every recompute overwrites all derived
// fields from current database state, so there is no incremental drift. The
// queries run against the links, campaign_leads and message_assignments
// tables directly, which keeps this package free of dependencies on the
// domain packages that trigger recomputes.
package stats

import (
	"fmt"
	"math"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"leadpilot/internal/models"
)

// CampaignStats holds derived counters for a campaign. One row per campaign,
// rebuilt wholesale by Recompute, never hand-edited.
//
// TotalOpens has no internal producer: it is supplied externally (e.g. a
// future open-pixel integration) via SetTotalOpens and preserved across
// recomputes.
type CampaignStats struct {
	ID         uint `gorm:"primaryKey;autoIncrement" json:"id"`
	CampaignID uint `gorm:"uniqueIndex;not null" json:"campaign_id"`

	TotalLeads        int `gorm:"default:0" json:"total_leads"`
	TotalMessagesSent int `gorm:"default:0" json:"total_messages_sent"`
	TotalOpens        int `gorm:"default:0" json:"total_opens"`
	TotalClicks       int `gorm:"default:0" json:"total_clicks"`
	TotalConversions  int `gorm:"default:0" json:"total_conversions"`

	BestCTALinkID *uint `gorm:"column:best_cta_link_id" json:"best_cta_link_id"`
	BestMessageID *uint `gorm:"column:best_message_id" json:"best_message_id"`

	OpenRate              float64 `gorm:"default:0" json:"open_rate"`
	ClickRate             float64 `gorm:"default:0" json:"click_rate"`
	ConversionRate        float64 `gorm:"default:0" json:"conversion_rate"`
	ClickToConversionRate float64 `gorm:"default:0" json:"click_to_conversion_rate"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (CampaignStats) TableName() string {
	return "campaign_stats"
}

// round2 rounds to 2 decimal places, half away from zero. Applied uniformly
// to all rate fields.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// rate returns 100*numerator/denominator rounded to 2 decimals, or 0 when
// the denominator is 0.
func rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return round2(100 * float64(numerator) / float64(denominator))
}

// GetForCampaign returns the stats row for a campaign
func GetForCampaign(db *gorm.DB, campaignID uint) (*CampaignStats, error) {
	var cs CampaignStats
	if err := db.Where("campaign_id = ?", campaignID).First(&cs).Error; err != nil {
		return nil, err
	}
	return &cs, nil
}

// RecomputeForCampaign rebuilds the stats row for a campaign inside the
// given transaction, creating the row if absent. Best-link and best-message
// ties break on the lowest id, which keeps recomputes deterministic.
func RecomputeForCampaign(tx *gorm.DB, campaignID uint) error {
	var cs CampaignStats
	err := tx.Where(CampaignStats{CampaignID: campaignID}).FirstOrCreate(&cs).Error
	if err != nil {
		return fmt.Errorf("failed to find or create campaign stats: %w", err)
	}

	var totalLeads int64
	if err := tx.Table("campaign_leads").
		Where("campaign_id = ?", campaignID).
		Count(&totalLeads).Error; err != nil {
		return fmt.Errorf("failed to count campaign leads: %w", err)
	}

	var totalConversions int64
	if err := tx.Table("campaign_leads").
		Where("campaign_id = ? AND is_converted = ?", campaignID, true).
		Count(&totalConversions).Error; err != nil {
		return fmt.Errorf("failed to count conversions: %w", err)
	}

	var totalMessagesSent int64
	if err := tx.Table("message_assignments").
		Joins("JOIN campaign_leads ON campaign_leads.id = message_assignments.campaign_lead_id").
		Where("campaign_leads.campaign_id = ? AND message_assignments.sent_at IS NOT NULL", campaignID).
		Count(&totalMessagesSent).Error; err != nil {
		return fmt.Errorf("failed to count sent messages: %w", err)
	}

	var totalClicks int64
	if err := tx.Table("links").
		Where("campaign_id = ?", campaignID).
		Select("COALESCE(SUM(visit_count), 0)").
		Scan(&totalClicks).Error; err != nil {
		return fmt.Errorf("failed to sum link visits: %w", err)
	}

	bestCTA, err := bestCTALink(tx, campaignID)
	if err != nil {
		return err
	}

	bestMessage, err := bestMessage(tx, campaignID)
	if err != nil {
		return err
	}

	cs.TotalLeads = int(totalLeads)
	cs.TotalMessagesSent = int(totalMessagesSent)
	cs.TotalClicks = int(totalClicks)
	cs.TotalConversions = int(totalConversions)
	cs.BestCTALinkID = bestCTA
	cs.BestMessageID = bestMessage
	cs.OpenRate = rate(cs.TotalOpens, cs.TotalMessagesSent)
	cs.ClickRate = rate(cs.TotalClicks, cs.TotalOpens)
	cs.ConversionRate = rate(cs.TotalConversions, cs.TotalLeads)
	cs.ClickToConversionRate = rate(cs.TotalConversions, cs.TotalClicks)
	cs.UpdatedAt = time.Now().UTC()

	if err := tx.Model(&cs).
		Select("total_leads", "total_messages_sent", "total_clicks", "total_conversions",
			"best_cta_link_id", "best_message_id",
			"open_rate", "click_rate", "conversion_rate", "click_to_conversion_rate",
			"updated_at").
		Updates(&cs).Error; err != nil {
		return fmt.Errorf("failed to update campaign stats: %w", err)
	}

	return nil
}

// bestCTALink returns the id of the campaign's link with the highest visit
// count, or nil when the campaign has no links.
func bestCTALink(tx *gorm.DB, campaignID uint) (*uint, error) {
	var linkIDs []uint
	err := tx.Table("links").
		Where("campaign_id = ?", campaignID).
		Order("visit_count DESC, id ASC").
		Limit(1).
		Pluck("id", &linkIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find best link: %w", err)
	}
	if len(linkIDs) == 0 {
		return nil, nil
	}
	return &linkIDs[0], nil
}

// bestMessage returns the id of the message whose sent assignments
// accumulated the most link visits, or nil when no sent assignment has an
// associated link with visits.
func bestMessage(tx *gorm.DB, campaignID uint) (*uint, error) {
	var messageIDs []uint
	err := tx.Table("message_assignments").
		Joins("JOIN campaign_leads ON campaign_leads.id = message_assignments.campaign_lead_id").
		Joins("JOIN links ON links.id = message_assignments.link_id").
		Where("campaign_leads.campaign_id = ? AND message_assignments.sent_at IS NOT NULL", campaignID).
		Group("message_assignments.message_id").
		Having("SUM(links.visit_count) > 0").
		Order("SUM(links.visit_count) DESC, message_assignments.message_id ASC").
		Limit(1).
		Pluck("message_assignments.message_id", &messageIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find best message: %w", err)
	}
	if len(messageIDs) == 0 {
		return nil, nil
	}
	return &messageIDs[0], nil
}

// Recompute rebuilds a campaign's stats in its own write transaction.
// Used by callers outside an existing transaction (admin API, jobs).
func Recompute(logger *slog.Logger, db *gorm.DB, campaignID uint) error {
	return models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return RecomputeForCampaign(tx, campaignID)
	})
}

// SetTotalOpens records an externally supplied open count for a campaign and
// recomputes the dependent rates.
func SetTotalOpens(logger *slog.Logger, db *gorm.DB, campaignID uint, opens int) error {
	if opens < 0 {
		return fmt.Errorf("total opens cannot be negative: %d", opens)
	}

	return models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		var cs CampaignStats
		if err := tx.Where(CampaignStats{CampaignID: campaignID}).FirstOrCreate(&cs).Error; err != nil {
			return fmt.Errorf("failed to find or create campaign stats: %w", err)
		}
		if err := tx.Model(&cs).Update("total_opens", opens).Error; err != nil {
			return fmt.Errorf("failed to set total opens: %w", err)
		}
		return RecomputeForCampaign(tx, campaignID)
	})
}
