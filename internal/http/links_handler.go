package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"log/slog"
	"gorm.io/gorm"

	"github.com/karloscodes/cartridge"

	"leadpilot/internal/campaigns"
	"leadpilot/internal/links"
)

// linkResponse augments a link with its derived URLs
type linkResponse struct {
	links.Link
	FullURL      string `json:"full_url"`
	RedirectPath string `json:"redirect_path"`
}

func newLinkResponse(link *links.Link) linkResponse {
	return linkResponse{
		Link:         *link,
		FullURL:      links.FullURL(link),
		RedirectPath: links.RedirectPath(link),
	}
}

// CampaignLinksListAction returns a campaign's links
func CampaignLinksListAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign ID",
		})
	}

	result, err := links.GetLinksForCampaign(ctx.DB(), uint(id))
	if err != nil {
		ctx.Logger.Error("Failed to get campaign links", slog.Int("campaign_id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch links",
		})
	}

	responses := make([]linkResponse, 0, len(result))
	for i := range result {
		responses = append(responses, newLinkResponse(&result[i]))
	}

	return ctx.JSON(fiber.Map{
		"links": responses,
	})
}

// LinkCreateAction creates a tracked link for a campaign
func LinkCreateAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign ID",
		})
	}

	var link links.Link
	if err := ctx.BodyParser(&link); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	link.CampaignID = uint(id)

	if err := links.CreateLink(ctx.Logger, ctx.DB(), &link); err != nil {
		var notFound *campaigns.CampaignNotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		var dup *links.DuplicateRefError
		if errors.As(err, &dup) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Tracking ref already in use",
			})
		}
		ctx.Logger.Error("Failed to create link", slog.Int("campaign_id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ctx.Logger.Info("Link created",
		slog.Uint64("id", uint64(link.ID)),
		slog.String("ref", link.Ref))

	return ctx.Status(fiber.StatusCreated).JSON(newLinkResponse(&link))
}

// LinkShowAction returns a single link with its derived URLs
func LinkShowAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid link ID",
		})
	}

	link, err := links.GetLinkByID(ctx.DB(), uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Link not found",
			})
		}
		ctx.Logger.Error("Failed to get link", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch link",
		})
	}

	return ctx.JSON(newLinkResponse(link))
}

// LinkUpdateAction updates a link's URL and UTM fields
func LinkUpdateAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid link ID",
		})
	}

	existing, err := links.GetLinkByID(ctx.DB(), uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Link not found",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch link",
		})
	}

	if err := ctx.BodyParser(existing); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	existing.ID = uint(id)

	if err := links.UpdateLink(ctx.DB(), existing); err != nil {
		ctx.Logger.Error("Failed to update link", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	updated, err := links.GetLinkByID(ctx.DB(), uint(id))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch link",
		})
	}

	return ctx.JSON(newLinkResponse(updated))
}
