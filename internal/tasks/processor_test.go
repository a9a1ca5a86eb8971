package tasks_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"leadpilot/internal/ai"
	"leadpilot/internal/email"
	"leadpilot/internal/links"
	"leadpilot/internal/messages"
	"leadpilot/internal/tasks"
	"leadpilot/internal/testsupport"
)

type fakeAI struct {
	calls int
	fail  bool
}

func (f *fakeAI) Personalize(_ context.Context, template string, profile ai.LeadProfile) (string, error) {
	f.calls++
	if f.fail {
		return "", errors.New("model unavailable")
	}
	return "Dear " + profile.FirstName + ", " + template, nil
}

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
	campaign := testsupport.CreateTestCampaign(t, db, "Queue", product.ID)
	lead := testsupport.CreateTestLead(t, db, emailAddr)
	cl := testsupport.EnrollTestLead(t, db, campaign.ID, lead.ID)
	msg := testsupport.CreateTestMessage(t, db, product.ID)

	assignment := &messages.MessageAssignment{CampaignLeadID: cl.ID, MessageID: msg.ID}
	require.NoError(t, messages.CreateAssignment(db, assignment))
	return assignment
}

func newProcessor(aiClient ai.Client, sender email.Sender) *tasks.Processor {
	return &tasks.Processor{
		Logger:      testsupport.GetLogger(),
		AI:          aiClient,
		Sender:      sender,
		FromAddress: "hello@leadpilot.test",
		MaxAttempts: 3,
		BatchSize:   100,
	}
}

func TestEnqueueValidation(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	require.Error(t, tasks.Enqueue(logger, db, "reticulate", 1, nil))
	require.Error(t, tasks.Enqueue(logger, db, tasks.KindSend, 0, nil))
}

func TestProcessPendingPersonalizes(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	assignment := newAssignment(t, db, "queue-personalize@example.com")
	require.NoError(t, tasks.Enqueue(logger, db, tasks.KindPersonalize, assignment.ID, nil))

	client := &fakeAI{}
	processor := newProcessor(client, &captureSender{})

	processed, err := processor.ProcessPending(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, client.calls)

	reloaded, err := messages.GetAssignmentByID(db, assignment.ID)
	require.NoError(t, err)
	assert.Contains(t, reloaded.PersonalizedMsg, "Dear Test,")

	count, err := tasks.CountPending(db)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessPendingSkipsAlreadyPersonalized(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	assignment := newAssignment(t, db, "queue-skip@example.com")
	require.NoError(t, messages.SetPersonalizedMsg(logger, db, assignment.ID, "Already done"))
	require.NoError(t, tasks.Enqueue(logger, db, tasks.KindPersonalize, assignment.ID, nil))

	client := &fakeAI{}
	processor := newProcessor(client, &captureSender{})

	processed, err := processor.ProcessPending(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Zero(t, client.calls)
}

func TestProcessPendingSendsEmail(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	assignment := newAssignment(t, db, "queue-send@example.com")
	require.NoError(t, tasks.Enqueue(logger, db, tasks.KindSend, assignment.ID, nil))

	sender := &captureSender{}
	processor := newProcessor(nil, sender)

	processed, err := processor.ProcessPending(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	require.Len(t, sender.sent, 1)

	out := sender.sent[0]
	assert.Equal(t, "hello@leadpilot.test", out.From)
	assert.Equal(t, "queue-send@example.com", out.To)
	assert.NotEmpty(t, out.Body)

	reloaded, err := messages.GetAssignmentByID(db, assignment.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.SentAt)

	// Dispatch created the per-assignment tracked link
	require.NotNil(t, reloaded.LinkID)
	link, err := links.GetLinkByID(db, *reloaded.LinkID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("email_%d", assignment.ID), link.UTMContent)
	assert.Contains(t, out.Body, links.FullURL(link))
}

func TestFailingTaskRetriesThenRetires(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	assignment := newAssignment(t, db, "queue-fail@example.com")
	require.NoError(t, tasks.Enqueue(logger, db, tasks.KindPersonalize, assignment.ID, nil))

	processor := newProcessor(&fakeAI{fail: true}, &captureSender{})
	processor.MaxAttempts = 2

	// First run fails and leaves the task pending with a bumped counter
	processed, err := processor.ProcessPending(context.Background(), db)
	require.NoError(t, err)
	assert.Zero(t, processed)

	pending, err := tasks.GetPendingTasks(db, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Contains(t, pending[0].LastError, "model unavailable")

	// Second run exhausts MaxAttempts and retires the task
	processed, err = processor.ProcessPending(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	count, err := tasks.CountPending(db)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The assignment never got personalized text; sends fall back to the
	// plain template.
	reloaded, err := messages.GetAssignmentByID(db, assignment.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.PersonalizedMsg)
}

func TestDeleteProcessedOlderThan(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	assignment := newAssignment(t, db, "queue-cleanup@example.com")
	require.NoError(t, tasks.Enqueue(logger, db, tasks.KindPersonalize, assignment.ID, nil))

	processor := newProcessor(&fakeAI{}, &captureSender{})
	_, err := processor.ProcessPending(context.Background(), db)
	require.NoError(t, err)

	// Cutoff in the past keeps the freshly processed row
	deleted, err := tasks.DeleteProcessedOlderThan(logger, db, timeAgo(24))
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// Cutoff in the future sweeps it
	deleted, err = tasks.DeleteProcessedOlderThan(logger, db, timeAgo(-1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func timeAgo(hours int) time.Time {
	return time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
}
