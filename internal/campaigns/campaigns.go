// Package campaigns manages outreach campaigns, lead enrollment and the
// conversion workflow.
package campaigns

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// CampaignNotFoundError represents an error when a campaign is not found
type CampaignNotFoundError struct {
	ID uint
}

func (e *CampaignNotFoundError) Error() string {
	return fmt.Sprintf("campaign not found: %d", e.ID)
}

// NewCampaignNotFoundError creates a new CampaignNotFoundError
func NewCampaignNotFoundError(id uint) *CampaignNotFoundError {
	return &CampaignNotFoundError{ID: id}
}

// Campaign represents an outbound campaign promoting a product
type Campaign struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"not null;size:255" json:"name"`
	ShortName string     `gorm:"uniqueIndex;size:100" json:"short_name"` // Slug, defaults utm_campaign on links
	ProductID uint       `gorm:"not null;index" json:"product_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Campaign) TableName() string {
	return "campaigns"
}

// CreateCampaign creates a campaign. When ShortName is empty it is derived
// from the name plus the numeric id, which requires the insert to happen
// first to know the id.
func CreateCampaign(db *gorm.DB, campaign *Campaign) error {
	if campaign.Name == "" {
		return fmt.Errorf("campaign name is required")
	}
	if campaign.ProductID == 0 {
		return fmt.Errorf("campaign product ID is required")
	}

	if campaign.StartDate.IsZero() {
		campaign.StartDate = time.Now().UTC()
	}
	campaign.CreatedAt = time.Now().UTC()

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(campaign).Error; err != nil {
			return err
		}
		if campaign.ShortName == "" {
			campaign.ShortName = fmt.Sprintf("%s-%d", slug.Make(campaign.Name), campaign.ID)
			if err := tx.Model(campaign).Update("short_name", campaign.ShortName).Error; err != nil {
				return fmt.Errorf("failed to set campaign short name: %w", err)
			}
		}
		return nil
	})
}

// GetCampaignByID retrieves a campaign by its ID
func GetCampaignByID(db *gorm.DB, id uint) (*Campaign, error) {
	var campaign Campaign
	if err := db.First(&campaign, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewCampaignNotFoundError(id)
		}
		return nil, fmt.Errorf("unexpected error querying campaign: %w", err)
	}
	return &campaign, nil
}

// GetCampaignByShortName retrieves a campaign by its slug
func GetCampaignByShortName(db *gorm.DB, shortName string) (*Campaign, error) {
	var campaign Campaign
	if err := db.Where("short_name = ?", shortName).First(&campaign).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetAllCampaigns retrieves all campaigns
func GetAllCampaigns(db *gorm.DB) ([]Campaign, error) {
	var campaigns []Campaign
	if err := db.Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}
	return campaigns, nil
}

// GetActiveCampaignIDs returns the ids of all active campaigns
func GetActiveCampaignIDs(db *gorm.DB) ([]uint, error) {
	var ids []uint
	if err := db.Model(&Campaign{}).Where("is_active = ?", true).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get active campaigns: %w", err)
	}
	return ids, nil
}

// UpdateCampaign updates an existing campaign
func UpdateCampaign(db *gorm.DB, campaign *Campaign) error {
	if campaign.ID == 0 {
		return fmt.Errorf("campaign ID is required")
	}
	return db.Model(campaign).
		Select("name", "short_name", "start_date", "end_date", "is_active").
		Updates(campaign).Error
}

// DeleteCampaign deletes a campaign together with its campaign leads,
// message assignments, links and stats row. The campaign owns all of them,
// so the delete cascades in a single transaction.
func DeleteCampaign(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM message_assignments WHERE campaign_lead_id IN
			(SELECT id FROM campaign_leads WHERE campaign_id = ?)`, id).Error; err != nil {
			return fmt.Errorf("failed to delete campaign assignments: %w", err)
		}
		if err := tx.Exec("DELETE FROM links WHERE campaign_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete campaign links: %w", err)
		}
		if err := tx.Exec("DELETE FROM campaign_leads WHERE campaign_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete campaign leads: %w", err)
		}
		if err := tx.Exec("DELETE FROM campaign_stats WHERE campaign_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete campaign stats: %w", err)
		}

		result := tx.Delete(&Campaign{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
