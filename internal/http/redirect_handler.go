package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"log/slog"

	"github.com/karloscodes/cartridge"

	"leadpilot/internal/links"
)

// RedirectAction resolves a tracking ref, records the visit and redirects
// the visitor to the destination URL with UTM parameters attached.
// Unknown refs get a plain 404 so probing for valid refs stays cheap to
// serve and reveals nothing.
func RedirectAction(ctx *cartridge.Context) error {
	ref := ctx.Params("ref")
	if ref == "" {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	}

	link, err := links.TrackVisit(ctx.Logger, ctx.DB(), ref)
	if err != nil {
		var notFound *links.LinkNotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Not found",
			})
		}
		ctx.Logger.Error("Failed to track visit",
			slog.String("ref", ref), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve link",
		})
	}

	return ctx.Redirect(links.FullURL(link), fiber.StatusFound)
}
