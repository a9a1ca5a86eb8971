package messages

import (
	"fmt"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"leadpilot/internal/campaigns"
	"leadpilot/internal/leads"
	"leadpilot/internal/links"
	"leadpilot/internal/models"
	"leadpilot/internal/stats"
)

// MessageAssignment pairs an enrolled lead with a message template and,
// once one exists, the tracked link embedded in the outgoing email.
//
// PersonalizedMsg is filled by the personalization task; when it is empty
// the plain template is used as fallback, so a personalization failure
// never blocks sending.
type MessageAssignment struct {
	ID             uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	CampaignLeadID uint  `gorm:"not null;index" json:"campaign_lead_id"`
	MessageID      uint  `gorm:"not null;index" json:"message_id"`
	LinkID         *uint `gorm:"index" json:"link_id"`

	PersonalizedMsg string `gorm:"type:text" json:"personalized_msg"`

	ScheduledAt *time.Time `json:"scheduled_at"`
	SentAt      *time.Time `gorm:"index" json:"sent_at"`

	Responded        bool   `gorm:"default:false" json:"responded"`
	RespondedContent string `gorm:"type:text" json:"responded_content"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (MessageAssignment) TableName() string {
	return "message_assignments"
}

// CreateAssignment creates a new message assignment
func CreateAssignment(db *gorm.DB, assignment *MessageAssignment) error {
	if assignment.CampaignLeadID == 0 {
		return fmt.Errorf("assignment campaign lead ID is required")
	}
	if assignment.MessageID == 0 {
		return fmt.Errorf("assignment message ID is required")
	}

	assignment.CreatedAt = time.Now().UTC()
	return db.Create(assignment).Error
}

// GetAssignmentByID retrieves an assignment by its ID
func GetAssignmentByID(db *gorm.DB, id uint) (*MessageAssignment, error) {
	var assignment MessageAssignment
	if err := db.First(&assignment, id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// GetAssignmentsForCampaign retrieves all assignments across a campaign's
// enrollments. When unpersonalizedOnly is set, assignments that already
// carry personalized text are skipped.
func GetAssignmentsForCampaign(db *gorm.DB, campaignID uint, unpersonalizedOnly bool) ([]MessageAssignment, error) {
	query := db.Model(&MessageAssignment{}).
		Joins("JOIN campaign_leads ON campaign_leads.id = message_assignments.campaign_lead_id").
		Where("campaign_leads.campaign_id = ?", campaignID)
	if unpersonalizedOnly {
		query = query.Where("message_assignments.personalized_msg = ''")
	}

	var result []MessageAssignment
	if err := query.Order("message_assignments.id ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to get campaign assignments: %w", err)
	}
	return result, nil
}

// GetAllAssignments retrieves all assignments, optionally only those
// without personalized text.
func GetAllAssignments(db *gorm.DB, unpersonalizedOnly bool) ([]MessageAssignment, error) {
	query := db.Model(&MessageAssignment{})
	if unpersonalizedOnly {
		query = query.Where("personalized_msg = ''")
	}

	var result []MessageAssignment
	if err := query.Order("id ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	return result, nil
}

// SetPersonalizedMsg stores personalized text for an assignment
func SetPersonalizedMsg(logger *slog.Logger, db *gorm.DB, assignmentID uint, text string) error {
	return models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(&MessageAssignment{}).
			Where("id = ?", assignmentID).
			Update("personalized_msg", text).Error
	})
}

// MarkSent stamps an assignment as sent and recomputes the owning
// campaign's stats in the same transaction, since total_messages_sent
// feeds the open rate. Already-sent assignments keep their original
// timestamp.
func MarkSent(logger *slog.Logger, db *gorm.DB, assignmentID uint) error {
	return models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		var assignment MessageAssignment
		if err := tx.First(&assignment, assignmentID).Error; err != nil {
			return err
		}
		if assignment.SentAt != nil {
			return nil
		}

		now := time.Now().UTC()
		if err := tx.Model(&assignment).Update("sent_at", now).Error; err != nil {
			return fmt.Errorf("failed to mark assignment sent: %w", err)
		}

		cl, err := campaigns.GetCampaignLeadByID(tx, assignment.CampaignLeadID)
		if err != nil {
			return fmt.Errorf("failed to load campaign lead: %w", err)
		}
		return stats.RecomputeForCampaign(tx, cl.CampaignID)
	})
}

// MarkResponded records a reply to an assignment
func MarkResponded(logger *slog.Logger, db *gorm.DB, assignmentID uint, content string) error {
	return models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(&MessageAssignment{}).
			Where("id = ?", assignmentID).
			Updates(map[string]interface{}{
				"responded":         true,
				"responded_content": content,
			}).Error
	})
}

// GetPersonalizedContent returns the outgoing body for an assignment:
// the personalized text when present, otherwise the plain template, with
// the {first_name}, {last_name}, {company} and {cta_url} variables
// substituted from the lead and the tracked link.
func GetPersonalizedContent(db *gorm.DB, assignment *MessageAssignment) (string, error) {
	message, err := GetMessageByID(db, assignment.MessageID)
	if err != nil {
		return "", fmt.Errorf("failed to load message: %w", err)
	}

	cl, err := campaigns.GetCampaignLeadByID(db, assignment.CampaignLeadID)
	if err != nil {
		return "", fmt.Errorf("failed to load campaign lead: %w", err)
	}

	lead, err := leads.GetLeadByID(db, cl.LeadID)
	if err != nil {
		return "", fmt.Errorf("failed to load lead: %w", err)
	}

	ctaURL := ""
	if assignment.LinkID != nil {
		link, err := links.GetLinkByID(db, *assignment.LinkID)
		if err != nil {
			return "", fmt.Errorf("failed to load link: %w", err)
		}
		ctaURL = links.FullURL(link)
	}

	body := assignment.PersonalizedMsg
	if body == "" {
		body = message.Template()
	}

	return RenderTemplate(body, map[string]string{
		"first_name": lead.FirstName,
		"last_name":  lead.LastName,
		"company":    lead.CompanyName,
		"cta_url":    ctaURL,
	}), nil
}
