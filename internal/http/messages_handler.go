package http

import (
	"github.com/gofiber/fiber/v2"
	"log/slog"
	"gorm.io/gorm"

	"github.com/karloscodes/cartridge"

	"leadpilot/internal/messages"
	"leadpilot/internal/tasks"
)

// MessagesListAction returns a product's message templates
func MessagesListAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product ID",
		})
	}

	result, err := messages.GetMessagesForProduct(ctx.DB(), uint(id))
	if err != nil {
		ctx.Logger.Error("Failed to get messages", slog.Int("product_id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch messages",
		})
	}

	return ctx.JSON(fiber.Map{
		"messages": result,
	})
}

// MessageCreateAction creates a message template for a product
func MessageCreateAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product ID",
		})
	}

	var message messages.Message
	if err := ctx.BodyParser(&message); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	message.ProductID = uint(id)

	if err := messages.CreateMessage(ctx.DB(), &message); err != nil {
		ctx.Logger.Error("Failed to create message",
			slog.Int("product_id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return ctx.Status(fiber.StatusCreated).JSON(message)
}

// AssignmentCreateAction assigns a message to an enrollment and queues its
// personalization.
func AssignmentCreateAction(ctx *cartridge.Context) error {
	var assignment messages.MessageAssignment
	if err := ctx.BodyParser(&assignment); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	db := ctx.DB()
	if err := messages.CreateAssignment(db, &assignment); err != nil {
		ctx.Logger.Error("Failed to create assignment", slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := tasks.Enqueue(ctx.Logger, db, tasks.KindPersonalize, assignment.ID, nil); err != nil {
		ctx.Logger.Error("Failed to enqueue personalization",
			slog.Uint64("assignment_id", uint64(assignment.ID)), slog.Any("error", err))
	}

	return ctx.Status(fiber.StatusCreated).JSON(assignment)
}

// AssignmentShowAction returns an assignment with its rendered content
func AssignmentShowAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}

	db := ctx.DB()
	assignment, err := messages.GetAssignmentByID(db, uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Assignment not found",
			})
		}
		ctx.Logger.Error("Failed to get assignment", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch assignment",
		})
	}

	content, err := messages.GetPersonalizedContent(db, assignment)
	if err != nil {
		ctx.Logger.Error("Failed to render assignment", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to render assignment",
		})
	}

	return ctx.JSON(fiber.Map{
		"assignment": assignment,
		"content":    content,
	})
}

// AssignmentSendAction queues the send task for an assignment
func AssignmentSendAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}

	db := ctx.DB()
	if _, err := messages.GetAssignmentByID(db, uint(id)); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Assignment not found",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch assignment",
		})
	}

	if err := tasks.Enqueue(ctx.Logger, db, tasks.KindSend, uint(id), nil); err != nil {
		ctx.Logger.Error("Failed to enqueue send",
			slog.Int("assignment_id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to queue send",
		})
	}

	return ctx.JSON(fiber.Map{
		"queued": true,
	})
}

// AssignmentRespondAction records a reply to an assignment
func AssignmentRespondAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := messages.MarkResponded(ctx.Logger, ctx.DB(), uint(id), req.Content); err != nil {
		ctx.Logger.Error("Failed to record response", slog.Int("assignment_id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record response",
		})
	}

	return ctx.JSON(fiber.Map{
		"responded": true,
	})
}
