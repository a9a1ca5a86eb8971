package http

import (
	"github.com/gofiber/fiber/v2"
	"log/slog"
	"gorm.io/gorm"

	"github.com/karloscodes/cartridge"

	"leadpilot/internal/leads"
)

// LeadsListAction returns leads, optionally filtered by source and type
func LeadsListAction(ctx *cartridge.Context) error {
	filter := leads.Filter{
		Source:   leads.LeadSource(ctx.Query("source")),
		LeadType: leads.LeadType(ctx.Query("lead_type")),
	}

	result, err := leads.GetLeads(ctx.DB(), filter)
	if err != nil {
		ctx.Logger.Error("Failed to get leads", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch leads",
		})
	}

	return ctx.JSON(fiber.Map{
		"leads": result,
	})
}

// LeadShowAction returns a single lead
func LeadShowAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lead ID",
		})
	}

	lead, err := leads.GetLeadByID(ctx.DB(), uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lead not found",
			})
		}
		ctx.Logger.Error("Failed to get lead", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch lead",
		})
	}

	return ctx.JSON(lead)
}

// LeadCreateAction creates a new lead
func LeadCreateAction(ctx *cartridge.Context) error {
	var lead leads.Lead
	if err := ctx.BodyParser(&lead); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := leads.CreateLead(ctx.DB(), &lead); err != nil {
		ctx.Logger.Error("Failed to create lead",
			slog.String("email", lead.Email), slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ctx.Logger.Info("Lead created",
		slog.Uint64("id", uint64(lead.ID)),
		slog.String("email", lead.Email))

	return ctx.Status(fiber.StatusCreated).JSON(lead)
}

// LeadDeleteAction deletes a lead
func LeadDeleteAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lead ID",
		})
	}

	if err := leads.DeleteLead(ctx.DB(), uint(id)); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lead not found",
			})
		}
		ctx.Logger.Error("Failed to delete lead", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete lead",
		})
	}

	return ctx.JSON(fiber.Map{
		"deleted": true,
	})
}
