package campaigns

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"leadpilot/internal/leads"
	"leadpilot/internal/models"
	"leadpilot/internal/stats"
)

// AlreadyEnrolledError signals that a lead is already enrolled in a
// campaign. Batch enrollment treats it as a skip, not a failure.
type AlreadyEnrolledError struct {
	CampaignID uint
	LeadID     uint
}

func (e *AlreadyEnrolledError) Error() string {
	return fmt.Sprintf("lead %d already enrolled in campaign %d", e.LeadID, e.CampaignID)
}

// CampaignLead joins a lead to a campaign and carries its conversion state.
// Unique per (campaign, lead); created on enrollment, mutated on conversion,
// removed only by cascade from campaign or lead deletion.
type CampaignLead struct {
	ID         uint `gorm:"primaryKey;autoIncrement" json:"id"`
	CampaignID uint `gorm:"not null;uniqueIndex:idx_campaign_lead" json:"campaign_id"`
	LeadID     uint `gorm:"not null;uniqueIndex:idx_campaign_lead" json:"lead_id"`

	IsConverted bool       `gorm:"default:false;index" json:"is_converted"`
	ConvertedAt *time.Time `json:"converted_at"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (CampaignLead) TableName() string {
	return "campaign_leads"
}

// EnrollLead enrolls a lead into a campaign. Returns AlreadyEnrolledError
// when the (campaign, lead) pair already exists.
func EnrollLead(db *gorm.DB, campaignID, leadID uint) (*CampaignLead, error) {
	var existing CampaignLead
	err := db.Where("campaign_id = ? AND lead_id = ?", campaignID, leadID).First(&existing).Error
	if err == nil {
		return nil, &AlreadyEnrolledError{CampaignID: campaignID, LeadID: leadID}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("unexpected error querying enrollment: %w", err)
	}

	cl := &CampaignLead{
		CampaignID: campaignID,
		LeadID:     leadID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.Create(cl).Error; err != nil {
		// The unique index catches the race where two enrollments of the
		// same pair run concurrently.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, &AlreadyEnrolledError{CampaignID: campaignID, LeadID: leadID}
		}
		return nil, fmt.Errorf("failed to enroll lead: %w", err)
	}
	return cl, nil
}

// EnrollmentResult reports the outcome of a batch enrollment
type EnrollmentResult struct {
	Added          int `json:"added"`
	AlreadyEntered int `json:"already_enrolled"`
	Failed         int `json:"failed"`
}

// EnrollBatch enrolls many leads into a campaign, continuing past
// duplicates and individual failures.
func EnrollBatch(logger *slog.Logger, db *gorm.DB, campaignID uint, leadIDs []uint) (*EnrollmentResult, error) {
	if _, err := GetCampaignByID(db, campaignID); err != nil {
		return nil, err
	}

	result := &EnrollmentResult{}
	for _, leadID := range leadIDs {
		_, err := EnrollLead(db, campaignID, leadID)
		if err != nil {
			var already *AlreadyEnrolledError
			if errors.As(err, &already) {
				result.AlreadyEntered++
				continue
			}
			logger.Error("Failed to enroll lead",
				slog.Uint64("campaign_id", uint64(campaignID)),
				slog.Uint64("lead_id", uint64(leadID)),
				slog.Any("error", err))
			result.Failed++
			continue
		}
		result.Added++
	}

	logger.Info("Batch enrollment completed",
		slog.Uint64("campaign_id", uint64(campaignID)),
		slog.Int("added", result.Added),
		slog.Int("already_enrolled", result.AlreadyEntered),
		slog.Int("failed", result.Failed))

	return result, nil
}

// EnrollByFilter enrolls every lead matching the classification filter,
// mirroring the "add matching leads to campaign" admin flow.
func EnrollByFilter(logger *slog.Logger, db *gorm.DB, campaignID uint, filter leads.Filter) (*EnrollmentResult, error) {
	matching, err := leads.GetLeads(db, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(matching))
	for i, lead := range matching {
		ids[i] = lead.ID
	}
	return EnrollBatch(logger, db, campaignID, ids)
}

// GetCampaignLeadByID retrieves a campaign lead by its ID
func GetCampaignLeadByID(db *gorm.DB, id uint) (*CampaignLead, error) {
	var cl CampaignLead
	if err := db.First(&cl, id).Error; err != nil {
		return nil, err
	}
	return &cl, nil
}

// GetCampaignLeads retrieves all enrollments for a campaign
func GetCampaignLeads(db *gorm.DB, campaignID uint) ([]CampaignLead, error) {
	var cls []CampaignLead
	if err := db.Where("campaign_id = ?", campaignID).Order("id ASC").Find(&cls).Error; err != nil {
		return nil, fmt.Errorf("failed to get campaign leads: %w", err)
	}
	return cls, nil
}

// Convert marks a campaign lead converted and recomputes the campaign's
// stats in the same transaction. Returns false without touching the row
// when the lead is already converted, so a double conversion never moves
// the timestamp or double-counts.
func Convert(logger *slog.Logger, db *gorm.DB, campaignLeadID uint) (bool, error) {
	converted := false
	err := models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		var cl CampaignLead
		if err := tx.First(&cl, campaignLeadID).Error; err != nil {
			return err
		}

		if cl.IsConverted {
			return nil
		}

		now := time.Now().UTC()
		if err := tx.Model(&cl).
			Select("is_converted", "converted_at").
			Updates(CampaignLead{IsConverted: true, ConvertedAt: &now}).Error; err != nil {
			return fmt.Errorf("failed to mark conversion: %w", err)
		}
		converted = true

		return stats.RecomputeForCampaign(tx, cl.CampaignID)
	})
	if err != nil {
		return false, err
	}

	if converted {
		logger.Info("Campaign lead converted", slog.Uint64("campaign_lead_id", uint64(campaignLeadID)))
	}
	return converted, nil
}
