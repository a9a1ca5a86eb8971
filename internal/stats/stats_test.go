package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpilot/internal/campaigns"
	"leadpilot/internal/links"
	"leadpilot/internal/messages"
	"leadpilot/internal/stats"
	"leadpilot/internal/testsupport"
)

func TestRecomputeEmptyCampaign(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Empty", product.ID)

	require.NoError(t, stats.Recompute(logger, db, campaign.ID))

	cs, err := stats.GetForCampaign(db, campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, cs.TotalLeads)
	assert.Equal(t, 0, cs.TotalMessagesSent)
	assert.Equal(t, 0, cs.TotalClicks)
	assert.Equal(t, 0, cs.TotalConversions)
	assert.Nil(t, cs.BestCTALinkID)
	assert.Nil(t, cs.BestMessageID)
	assert.Equal(t, 0.0, cs.OpenRate)
	assert.Equal(t, 0.0, cs.ClickRate)
	assert.Equal(t, 0.0, cs.ConversionRate)
	assert.Equal(t, 0.0, cs.ClickToConversionRate)
}

func TestConversionRateRounding(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Conversions", product.ID)

	// 10 leads, 3 converted: conversion rate lands exactly on 30.00
	for i := 0; i < 10; i++ {
		lead := testsupport.CreateTestLead(t, db, emailFor("conv", i))
		cl := testsupport.EnrollTestLead(t, db, campaign.ID, lead.ID)
		if i < 3 {
			converted, err := campaigns.Convert(logger, db, cl.ID)
			require.NoError(t, err)
			assert.True(t, converted)
		}
	}

	cs, err := stats.GetForCampaign(db, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, cs.TotalLeads)
	assert.Equal(t, 3, cs.TotalConversions)
	assert.Equal(t, 30.0, cs.ConversionRate)
}

func TestThirdsRounding(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Thirds", product.ID)

	// 3 leads, 1 converted: 33.333... rounds to 33.33
	for i := 0; i < 3; i++ {
		lead := testsupport.CreateTestLead(t, db, emailFor("thirds", i))
		cl := testsupport.EnrollTestLead(t, db, campaign.ID, lead.ID)
		if i == 0 {
			_, err := campaigns.Convert(logger, db, cl.ID)
			require.NoError(t, err)
		}
	}

	cs, err := stats.GetForCampaign(db, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 33.33, cs.ConversionRate)
}

func TestBestCTALinkTieBreaksOnLowestID(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Best Link", product.ID)

	var linkIDs []uint
	for i := 0; i < 3; i++ {
		link := &links.Link{CampaignID: campaign.ID}
		require.NoError(t, links.CreateLink(logger, db, link))
		linkIDs = append(linkIDs, link.ID)
	}

	// Give the second and third links two visits each; the tie breaks to
	// the second link because it has the lower id.
	for _, idx := range []int{1, 2} {
		link, err := links.GetLinkByID(db, linkIDs[idx])
		require.NoError(t, err)
		for v := 0; v < 2; v++ {
			_, err := links.TrackVisit(logger, db, link.Ref)
			require.NoError(t, err)
		}
	}

	cs, err := stats.GetForCampaign(db, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, cs.BestCTALinkID)
	assert.Equal(t, linkIDs[1], *cs.BestCTALinkID)
	assert.Equal(t, 4, cs.TotalClicks)
}

func TestBestMessageFollowsVisits(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Best Message", product.ID)

	msgA := testsupport.CreateTestMessage(t, db, product.ID)
	msgB := testsupport.CreateTestMessage(t, db, product.ID)

	setup := func(i int, messageID uint, visits int) {
		lead := testsupport.CreateTestLead(t, db, emailFor("bestmsg", i))
		cl := testsupport.EnrollTestLead(t, db, campaign.ID, lead.ID)

		assignment := &messages.MessageAssignment{CampaignLeadID: cl.ID, MessageID: messageID}
		require.NoError(t, messages.CreateAssignment(db, assignment))

		link := &links.Link{CampaignID: campaign.ID, CampaignLeadID: &cl.ID}
		require.NoError(t, links.CreateLink(logger, db, link))
		require.NoError(t, db.Model(assignment).Update("link_id", link.ID).Error)
		require.NoError(t, messages.MarkSent(logger, db, assignment.ID))

		for v := 0; v < visits; v++ {
			_, err := links.TrackVisit(logger, db, link.Ref)
			require.NoError(t, err)
		}
	}

	setup(0, msgA.ID, 1)
	setup(1, msgB.ID, 3)

	require.NoError(t, stats.Recompute(logger, db, campaign.ID))

	cs, err := stats.GetForCampaign(db, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, cs.BestMessageID)
	assert.Equal(t, msgB.ID, *cs.BestMessageID)
	assert.Equal(t, 2, cs.TotalMessagesSent)
}

func TestTotalOpensSurvivesRecompute(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Opens", product.ID)

	msg := testsupport.CreateTestMessage(t, db, product.ID)
	for i := 0; i < 4; i++ {
		lead := testsupport.CreateTestLead(t, db, emailFor("opens", i))
		cl := testsupport.EnrollTestLead(t, db, campaign.ID, lead.ID)
		assignment := &messages.MessageAssignment{CampaignLeadID: cl.ID, MessageID: msg.ID}
		require.NoError(t, messages.CreateAssignment(db, assignment))
		require.NoError(t, messages.MarkSent(logger, db, assignment.ID))
	}

	require.NoError(t, stats.SetTotalOpens(logger, db, campaign.ID, 2))

	// A later recompute keeps the externally supplied opens and the rate
	require.NoError(t, stats.Recompute(logger, db, campaign.ID))

	cs, err := stats.GetForCampaign(db, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cs.TotalOpens)
	assert.Equal(t, 4, cs.TotalMessagesSent)
	assert.Equal(t, 50.0, cs.OpenRate)
}

func TestSetTotalOpensRejectsNegative(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	err := stats.SetTotalOpens(logger, db, 1, -1)
	require.Error(t, err)
}

func emailFor(prefix string, i int) string {
	return prefix + string(rune('a'+i)) + "@example.com"
}
