// Package email dispatches assignment messages to leads. The actual
// delivery transport sits behind the Sender interface; the default
// implementation only logs, which is what development and test
// environments use.
package email

import (
	"fmt"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leadpilot/internal/campaigns"
	"leadpilot/internal/leads"
	"leadpilot/internal/links"
	"leadpilot/internal/messages"
)

// Outgoing is a fully rendered email ready for delivery
type Outgoing struct {
	MessageID string
	From      string
	To        string
	Subject   string
	Body      string
}

// Sender delivers a rendered email
type Sender interface {
	Send(out Outgoing) error
}

// LogSender writes outgoing emails to the log instead of delivering them
type LogSender struct {
	Logger *slog.Logger
}

// Send logs the email and succeeds
func (s *LogSender) Send(out Outgoing) error {
	s.Logger.Info("Outgoing email",
		slog.String("message_id", out.MessageID),
		slog.String("from", out.From),
		slog.String("to", out.To),
		slog.String("subject", out.Subject),
		slog.Int("body_bytes", len(out.Body)))
	return nil
}

// Dispatch sends the email for one assignment: it ensures the assignment
// carries a tracked link, renders the personalized body, hands the result
// to the sender and stamps the assignment as sent. Safe to call twice;
// an already-sent assignment is left untouched after a redundant send.
func Dispatch(logger *slog.Logger, db *gorm.DB, sender Sender, from string, assignmentID uint) error {
	assignment, err := messages.GetAssignmentByID(db, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to load assignment: %w", err)
	}

	cl, err := campaigns.GetCampaignLeadByID(db, assignment.CampaignLeadID)
	if err != nil {
		return fmt.Errorf("failed to load campaign lead: %w", err)
	}

	lead, err := leads.GetLeadByID(db, cl.LeadID)
	if err != nil {
		return fmt.Errorf("failed to load lead: %w", err)
	}

	if assignment.LinkID == nil {
		if err := ensureLink(logger, db, assignment, cl); err != nil {
			return err
		}
	}

	body, err := messages.GetPersonalizedContent(db, assignment)
	if err != nil {
		return fmt.Errorf("failed to render message: %w", err)
	}

	message, err := messages.GetMessageByID(db, assignment.MessageID)
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}

	out := Outgoing{
		MessageID: fmt.Sprintf("<%s@leadpilot>", uuid.NewString()),
		From:      from,
		To:        lead.Email,
		Subject:   message.Subject,
		Body:      body,
	}
	if err := sender.Send(out); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return messages.MarkSent(logger, db, assignment.ID)
}

// ensureLink creates the per-assignment tracked link and attaches it.
// utm_content identifies the exact email that produced a click.
func ensureLink(logger *slog.Logger, db *gorm.DB, assignment *messages.MessageAssignment, cl *campaigns.CampaignLead) error {
	link := &links.Link{
		CampaignID:     cl.CampaignID,
		CampaignLeadID: &cl.ID,
		UTMSource:      "email",
		UTMMedium:      "email",
		UTMContent:     fmt.Sprintf("email_%d", assignment.ID),
	}
	if err := links.CreateLink(logger, db, link); err != nil {
		return fmt.Errorf("failed to create tracking link: %w", err)
	}

	if err := db.Model(assignment).Update("link_id", link.ID).Error; err != nil {
		return fmt.Errorf("failed to attach link: %w", err)
	}
	assignment.LinkID = &link.ID
	return nil
}
