package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"log/slog"

	"github.com/karloscodes/cartridge"

	"leadpilot/internal/campaigns"
	"leadpilot/internal/leads"
	"leadpilot/internal/stats"
)

// CampaignsListAction returns all campaigns
func CampaignsListAction(ctx *cartridge.Context) error {
	result, err := campaigns.GetAllCampaigns(ctx.DB())
	if err != nil {
		ctx.Logger.Error("Failed to get campaigns", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaigns",
		})
	}

	return ctx.JSON(fiber.Map{
		"campaigns": result,
	})
}

// CampaignShowAction returns a single campaign
func CampaignShowAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign ID",
		})
	}

	campaign, err := campaigns.GetCampaignByID(ctx.DB(), uint(id))
	if err != nil {
		var notFound *campaigns.CampaignNotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		ctx.Logger.Error("Failed to get campaign", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaign",
		})
	}

	return ctx.JSON(campaign)
}

// CampaignCreateAction creates a new campaign
func CampaignCreateAction(ctx *cartridge.Context) error {
	var campaign campaigns.Campaign
	if err := ctx.BodyParser(&campaign); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := campaigns.CreateCampaign(ctx.DB(), &campaign); err != nil {
		ctx.Logger.Error("Failed to create campaign",
			slog.String("name", campaign.Name), slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ctx.Logger.Info("Campaign created",
		slog.Uint64("id", uint64(campaign.ID)),
		slog.String("short_name", campaign.ShortName))

	return ctx.Status(fiber.StatusCreated).JSON(campaign)
}

// CampaignUpdateAction updates a campaign
func CampaignUpdateAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign ID",
		})
	}

	existing, err := campaigns.GetCampaignByID(ctx.DB(), uint(id))
	if err != nil {
		var notFound *campaigns.CampaignNotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaign",
		})
	}

	if err := ctx.BodyParser(existing); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	existing.ID = uint(id)

	if err := campaigns.UpdateCampaign(ctx.DB(), existing); err != nil {
		ctx.Logger.Error("Failed to update campaign", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return ctx.JSON(existing)
}

// CampaignDeleteAction deletes a campaign and its dependent records
func CampaignDeleteAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign ID",
		})
	}

	if err := campaigns.DeleteCampaign(ctx.DB(), uint(id)); err != nil {
		var notFound *campaigns.CampaignNotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		ctx.Logger.Error("Failed to delete campaign", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete campaign",
		})
	}

	return ctx.JSON(fiber.Map{
		"deleted": true,
	})
}

// enrollRequest is the body for campaign enrollment: either explicit lead
// IDs or a source/lead_type filter.
type enrollRequest struct {
	LeadIDs  []uint `json:"lead_ids"`
	Source   string `json:"source"`
	LeadType string `json:"lead_type"`
}

// CampaignEnrollAction enrolls leads into a campaign. Already-enrolled
// leads are counted and skipped, never treated as a failure.
func CampaignEnrollAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign ID",
		})
	}

	var req enrollRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var result *campaigns.EnrollmentResult
	if len(req.LeadIDs) > 0 {
		result, err = campaigns.EnrollBatch(ctx.Logger, ctx.DB(), uint(id), req.LeadIDs)
	} else {
		result, err = campaigns.EnrollByFilter(ctx.Logger, ctx.DB(), uint(id), leads.Filter{
			Source:   leads.LeadSource(req.Source),
			LeadType: leads.LeadType(req.LeadType),
		})
	}
	if err != nil {
		var notFound *campaigns.CampaignNotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		ctx.Logger.Error("Failed to enroll leads", slog.Int("campaign_id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to enroll leads",
		})
	}

	return ctx.JSON(fiber.Map{
		"added":           result.Added,
		"already_entered": result.AlreadyEntered,
		"failed":          result.Failed,
	})
}

// CampaignLeadsListAction returns a campaign's enrollments
func CampaignLeadsListAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign ID",
		})
	}

	result, err := campaigns.GetCampaignLeads(ctx.DB(), uint(id))
	if err != nil {
		ctx.Logger.Error("Failed to get campaign leads", slog.Int("campaign_id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaign leads",
		})
	}

	return ctx.JSON(fiber.Map{
		"campaign_leads": result,
	})
}

// ConvertAction marks an enrollment as converted. Converting twice is a
// no-op reported as converted=false.
func ConvertAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign lead ID",
		})
	}

	converted, err := campaigns.Convert(ctx.Logger, ctx.DB(), uint(id))
	if err != nil {
		ctx.Logger.Error("Failed to convert campaign lead", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to convert",
		})
	}

	return ctx.JSON(fiber.Map{
		"converted": converted,
	})
}

// CampaignStatsAction returns the stats row for a campaign, recomputing
// it first so reads always reflect current data.
func CampaignStatsAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign ID",
		})
	}

	if _, err := campaigns.GetCampaignByID(ctx.DB(), uint(id)); err != nil {
		var notFound *campaigns.CampaignNotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaign",
		})
	}

	if err := stats.Recompute(ctx.Logger, ctx.DB(), uint(id)); err != nil {
		ctx.Logger.Error("Failed to recompute stats", slog.Int("campaign_id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}

	result, err := stats.GetForCampaign(ctx.DB(), uint(id))
	if err != nil {
		ctx.Logger.Error("Failed to get stats", slog.Int("campaign_id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch stats",
		})
	}

	return ctx.JSON(result)
}

// CampaignOpensUpdateAction sets the externally measured open count for a
// campaign. Opens come from the email provider, not from link tracking,
// so they are written rather than derived.
func CampaignOpensUpdateAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign ID",
		})
	}

	var req struct {
		TotalOpens int `json:"total_opens"`
	}
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := stats.SetTotalOpens(ctx.Logger, ctx.DB(), uint(id), req.TotalOpens); err != nil {
		ctx.Logger.Error("Failed to set total opens", slog.Int("campaign_id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result, err := stats.GetForCampaign(ctx.DB(), uint(id))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch stats",
		})
	}

	return ctx.JSON(result)
}
