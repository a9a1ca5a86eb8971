package email_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"leadpilot/internal/email"
	"leadpilot/internal/links"
	"leadpilot/internal/messages"
	"leadpilot/internal/testsupport"
)

type captureSender struct {
	sent []email.Outgoing
	fail bool
}

func (s *captureSender) Send(out email.Outgoing) error {
	if s.fail {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, out)
	return nil
}

func newAssignment(t *testing.T, db *gorm.DB, emailAddr string) *messages.MessageAssignment {
	t.Helper()

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Dispatch", product.ID)
	lead := testsupport.CreateTestLead(t, db, emailAddr)
	cl := testsupport.EnrollTestLead(t, db, campaign.ID, lead.ID)
	msg := testsupport.CreateTestMessage(t, db, product.ID)

	assignment := &messages.MessageAssignment{CampaignLeadID: cl.ID, MessageID: msg.ID}
	require.NoError(t, messages.CreateAssignment(db, assignment))
	return assignment
}

func TestDispatchSendsAndMarksSent(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	assignment := newAssignment(t, db, "dispatch@example.com")
	sender := &captureSender{}

	require.NoError(t, email.Dispatch(logger, db, sender, "hello@leadpilot.test", assignment.ID))
	require.Len(t, sender.sent, 1)

	out := sender.sent[0]
	assert.Equal(t, "dispatch@example.com", out.To)
	assert.Equal(t, "hello@leadpilot.test", out.From)
	assert.True(t, strings.HasPrefix(out.MessageID, "<"))
	assert.True(t, strings.HasSuffix(out.MessageID, "@leadpilot>"))

	reloaded, err := messages.GetAssignmentByID(db, assignment.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.SentAt)

	// A tracked link was minted for this assignment and embedded in the body
	require.NotNil(t, reloaded.LinkID)
	link, err := links.GetLinkByID(db, *reloaded.LinkID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("email_%d", assignment.ID), link.UTMContent)
	assert.Equal(t, "email", link.UTMSource)
	assert.Contains(t, out.Body, links.FullURL(link))
}

func TestDispatchReusesExistingLink(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	assignment := newAssignment(t, db, "redispatch@example.com")
	sender := &captureSender{}

	require.NoError(t, email.Dispatch(logger, db, sender, "hello@leadpilot.test", assignment.ID))

	first, err := messages.GetAssignmentByID(db, assignment.ID)
	require.NoError(t, err)
	require.NotNil(t, first.LinkID)
	require.NotNil(t, first.SentAt)

	require.NoError(t, email.Dispatch(logger, db, sender, "hello@leadpilot.test", assignment.ID))

	second, err := messages.GetAssignmentByID(db, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.LinkID, *second.LinkID)
	assert.Equal(t, *first.SentAt, *second.SentAt)
}

func TestDispatchSenderFailureLeavesAssignmentUnsent(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	assignment := newAssignment(t, db, "bounce@example.com")
	sender := &captureSender{fail: true}

	err := email.Dispatch(logger, db, sender, "hello@leadpilot.test", assignment.ID)
	require.Error(t, err)

	reloaded, err := messages.GetAssignmentByID(db, assignment.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.SentAt)
}
