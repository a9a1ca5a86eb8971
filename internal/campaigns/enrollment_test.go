package campaigns_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpilot/internal/campaigns"
	"leadpilot/internal/leads"
	"leadpilot/internal/stats"
	"leadpilot/internal/testsupport"
)

func TestEnrollLeadDuplicate(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Dupes", product.ID)
	lead := testsupport.CreateTestLead(t, db, "dupe@example.com")

	first, err := campaigns.EnrollLead(db, campaign.ID, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	_, err = campaigns.EnrollLead(db, campaign.ID, lead.ID)
	require.Error(t, err)

	var already *campaigns.AlreadyEnrolledError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, campaign.ID, already.CampaignID)
	assert.Equal(t, lead.ID, already.LeadID)
}

func TestEnrollBatchContinuesPastDuplicates(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Batch", product.ID)

	var ids []uint
	for i := 0; i < 5; i++ {
		lead := testsupport.CreateTestLead(t, db, emailFor("batch", i))
		ids = append(ids, lead.ID)
	}

	// Pre-enroll two of them
	testsupport.EnrollTestLead(t, db, campaign.ID, ids[0])
	testsupport.EnrollTestLead(t, db, campaign.ID, ids[3])

	result, err := campaigns.EnrollBatch(logger, db, campaign.ID, ids)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Added)
	assert.Equal(t, 2, result.AlreadyEntered)
	assert.Equal(t, 0, result.Failed)

	cls, err := campaigns.GetCampaignLeads(db, campaign.ID)
	require.NoError(t, err)
	assert.Len(t, cls, 5)
}

func TestEnrollBatchUnknownCampaign(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	_, err := campaigns.EnrollBatch(logger, db, 9999, []uint{1})
	require.Error(t, err)

	var notFound *campaigns.CampaignNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestEnrollByFilter(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Filtered", product.ID)

	warm := &leads.Lead{
		FullName: "Warm Lead", Email: "warm@example.com", CompanyName: "Acme",
		Source: leads.SourceNewsletter, LeadType: leads.TypeWarm,
	}
	require.NoError(t, leads.CreateLead(db, warm))

	cold := &leads.Lead{
		FullName: "Cold Lead", Email: "cold@example.com", CompanyName: "Acme",
		Source: leads.SourceForm, LeadType: leads.TypeCold,
	}
	require.NoError(t, leads.CreateLead(db, cold))

	result, err := campaigns.EnrollByFilter(logger, db, campaign.ID, leads.Filter{LeadType: leads.TypeWarm})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	cls, err := campaigns.GetCampaignLeads(db, campaign.ID)
	require.NoError(t, err)
	require.Len(t, cls, 1)
	assert.Equal(t, warm.ID, cls[0].LeadID)
}

func TestConvertIsIdempotent(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Converts", product.ID)
	lead := testsupport.CreateTestLead(t, db, "convert@example.com")
	cl := testsupport.EnrollTestLead(t, db, campaign.ID, lead.ID)

	converted, err := campaigns.Convert(logger, db, cl.ID)
	require.NoError(t, err)
	assert.True(t, converted)

	after, err := campaigns.GetCampaignLeadByID(db, cl.ID)
	require.NoError(t, err)
	require.True(t, after.IsConverted)
	require.NotNil(t, after.ConvertedAt)
	firstConvertedAt := *after.ConvertedAt

	// A second conversion reports false and leaves the timestamp alone
	converted, err = campaigns.Convert(logger, db, cl.ID)
	require.NoError(t, err)
	assert.False(t, converted)

	again, err := campaigns.GetCampaignLeadByID(db, cl.ID)
	require.NoError(t, err)
	assert.Equal(t, firstConvertedAt, *again.ConvertedAt)

	cs, err := stats.GetForCampaign(db, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cs.TotalConversions)
}

func emailFor(prefix string, i int) string {
	return prefix + string(rune('a'+i)) + "@example.com"
}
