// Package links manages tracked outbound links: tracking reference
// generation, UTM URL construction and visit counting.
package links

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"leadpilot/internal/campaigns"
	"leadpilot/internal/config"
	"leadpilot/internal/models"
	"leadpilot/internal/pkg/urls"
	"leadpilot/internal/products"
)

// LinkNotFoundError represents an error when a link is not found by ref
type LinkNotFoundError struct {
	Ref string
}

func (e *LinkNotFoundError) Error() string {
	return fmt.Sprintf("link not found for ref: %s", e.Ref)
}

// NewLinkNotFoundError creates a new LinkNotFoundError
func NewLinkNotFoundError(ref string) *LinkNotFoundError {
	return &LinkNotFoundError{Ref: ref}
}

// DuplicateRefError signals that a generated tracking ref collided with an
// existing one at write time. Callers regenerate and retry a bounded number
// of times; CreateLink does this itself.
type DuplicateRefError struct {
	Ref string
}

func (e *DuplicateRefError) Error() string {
	return fmt.Sprintf("duplicate tracking ref: %s", e.Ref)
}

// Link is a tracked outbound URL belonging to a campaign and optionally to
// a single enrolled lead.
//
// Ref is globally unique and immutable once set. URL and UTMCampaign are
// auto-filled from the campaign's product landing page and short name, so
// they are never persisted empty while a campaign is attached.
type Link struct {
	ID             uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	CampaignID     uint  `gorm:"not null;index" json:"campaign_id"`
	CampaignLeadID *uint `gorm:"index" json:"campaign_lead_id"`

	URL         string `gorm:"not null" json:"url"`
	UTMSource   string `gorm:"size:100" json:"utm_source"`
	UTMMedium   string `gorm:"size:100" json:"utm_medium"`
	UTMCampaign string `gorm:"size:100" json:"utm_campaign"`
	UTMTerm     string `gorm:"size:100" json:"utm_term"`
	UTMContent  string `gorm:"size:100" json:"utm_content"`

	Ref string `gorm:"uniqueIndex;size:50;not null" json:"ref"`

	VisitCount int        `gorm:"default:0" json:"visit_count"`
	VisitedAt  *time.Time `json:"visited_at"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Link) TableName() string {
	return "links"
}

// randomHex returns n lowercase hex characters from crypto/rand
func randomHex(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; if it does the
		// process has bigger problems than link creation.
		panic(fmt.Sprintf("links: failed to read random bytes: %v", err))
	}
	return hex.EncodeToString(buf)[:n]
}

// generateRef produces the public tracking token for a link.
//
// Personalized links encode the lead, enrollment and campaign identity plus
// a 6-hex random suffix; the suffix exists because one enrollment can
// receive multiple links, so the deterministic prefix alone is not unique.
// Generic links get a plain 10-hex token.
func generateRef(link *Link, leadID uint) string {
	if link.CampaignLeadID != nil {
		return fmt.Sprintf("L%d-CL%d-C%d-%s", leadID, *link.CampaignLeadID, link.CampaignID, randomHex(6))
	}
	return fmt.Sprintf("R-%s", randomHex(10))
}

// CreateLink persists a new link. URL and UTMCampaign are auto-filled from
// the owning campaign when empty, the URL is normalized, and a unique ref is
// generated when unset. A ref collision at write time is retried with a
// fresh suffix up to the configured attempt limit, then surfaces as
// DuplicateRefError.
func CreateLink(logger *slog.Logger, db *gorm.DB, link *Link) error {
	if link.CampaignID == 0 {
		return fmt.Errorf("link campaign ID is required")
	}

	campaign, err := campaigns.GetCampaignByID(db, link.CampaignID)
	if err != nil {
		return err
	}

	if link.URL == "" {
		product, err := products.GetProductByID(db, campaign.ProductID)
		if err != nil {
			return fmt.Errorf("failed to load campaign product: %w", err)
		}
		link.URL = product.LandingPageURL
	}
	link.URL = urls.Normalize(link.URL)
	if link.URL == "" {
		return fmt.Errorf("link URL is required and campaign %d has no landing page", link.CampaignID)
	}

	if link.UTMCampaign == "" {
		link.UTMCampaign = campaign.ShortName
	}

	var leadID uint
	if link.CampaignLeadID != nil {
		cl, err := campaigns.GetCampaignLeadByID(db, *link.CampaignLeadID)
		if err != nil {
			return fmt.Errorf("failed to load campaign lead: %w", err)
		}
		if cl.CampaignID != link.CampaignID {
			return fmt.Errorf("campaign lead %d belongs to campaign %d, not %d",
				cl.ID, cl.CampaignID, link.CampaignID)
		}
		leadID = cl.LeadID
	}

	link.CreatedAt = time.Now().UTC()

	maxAttempts := config.GetConfig().LinkCreateMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	// Ref is generated exactly once, at first persistence of a link whose
	// ref is unset; a caller-provided ref is used as-is and never retried.
	callerProvidedRef := link.Ref != ""

	for attempt := 1; ; attempt++ {
		if !callerProvidedRef {
			link.Ref = generateRef(link, leadID)
		}

		err := models.PerformWrite(logger, db, func(tx *gorm.DB) error {
			return tx.Create(link).Error
		})
		if err == nil {
			return nil
		}

		if !isDuplicateRef(err) {
			return fmt.Errorf("failed to create link: %w", err)
		}

		dup := &DuplicateRefError{Ref: link.Ref}
		if callerProvidedRef || attempt >= maxAttempts {
			return dup
		}

		logger.Warn("Tracking ref collision, regenerating",
			slog.String("ref", link.Ref),
			slog.Int("attempt", attempt))
		link.ID = 0
	}
}

// isDuplicateRef reports whether a write failed on the links.ref unique index
func isDuplicateRef(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: links.ref")
}

// GetLinkByRef retrieves a link by its public tracking ref
func GetLinkByRef(db *gorm.DB, ref string) (*Link, error) {
	var link Link
	if err := db.Where("ref = ?", ref).First(&link).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewLinkNotFoundError(ref)
		}
		return nil, fmt.Errorf("unexpected error querying link: %w", err)
	}
	return &link, nil
}

// GetLinkByID retrieves a link by its ID
func GetLinkByID(db *gorm.DB, id uint) (*Link, error) {
	var link Link
	if err := db.First(&link, id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// GetLinksForCampaign retrieves all links of a campaign
func GetLinksForCampaign(db *gorm.DB, campaignID uint) ([]Link, error) {
	var result []Link
	if err := db.Where("campaign_id = ?", campaignID).Order("id ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to get campaign links: %w", err)
	}
	return result, nil
}

// UpdateLink updates a link's URL and UTM fields. Ref, visit_count and
// visited_at are never touched here: ref is immutable and counters only
// move through TrackVisit.
func UpdateLink(db *gorm.DB, link *Link) error {
	if link.ID == 0 {
		return fmt.Errorf("link ID is required")
	}

	link.URL = urls.Normalize(link.URL)

	return db.Model(link).
		Select("url", "utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content").
		Updates(link).Error
}
