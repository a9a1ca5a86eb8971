package http_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpilot/internal/links"
	"leadpilot/internal/testsupport"
)

func TestRedirectTracksVisitAndRedirects(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	app := testsupport.CreateMinimalTestApp(t, db)

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")
	campaign := testsupport.CreateTestCampaign(t, db, "Redirects", product.ID)

	link := &links.Link{CampaignID: campaign.ID}
	require.NoError(t, links.CreateLink(logger, db, link))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/r/"+link.Ref, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, links.FullURL(link), resp.Header.Get("Location"))

	reloaded, err := links.GetLinkByID(db, link.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.VisitCount)
}

func TestRedirectUnknownRefReturns404(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/r/R-doesnotexist", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
