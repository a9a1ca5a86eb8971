package http

import (
	"github.com/gofiber/fiber/v2"
	"log/slog"
	"gorm.io/gorm"

	"github.com/karloscodes/cartridge"

	"leadpilot/internal/products"
)

// ProductsListAction returns all products
func ProductsListAction(ctx *cartridge.Context) error {
	result, err := products.GetAllProducts(ctx.DB())
	if err != nil {
		ctx.Logger.Error("Failed to get products", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch products",
		})
	}

	return ctx.JSON(fiber.Map{
		"products": result,
	})
}

// ProductShowAction returns a single product
func ProductShowAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product ID",
		})
	}

	product, err := products.GetProductByID(ctx.DB(), uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		ctx.Logger.Error("Failed to get product", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch product",
		})
	}

	return ctx.JSON(product)
}

// ProductCreateAction creates a new product
func ProductCreateAction(ctx *cartridge.Context) error {
	var product products.Product
	if err := ctx.BodyParser(&product); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := products.CreateProduct(ctx.DB(), &product); err != nil {
		ctx.Logger.Error("Failed to create product",
			slog.String("name", product.Name), slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ctx.Logger.Info("Product created",
		slog.Uint64("id", uint64(product.ID)),
		slog.String("name", product.Name))

	return ctx.Status(fiber.StatusCreated).JSON(product)
}

// ProductUpdateAction updates a product
func ProductUpdateAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product ID",
		})
	}

	existing, err := products.GetProductByID(ctx.DB(), uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch product",
		})
	}

	if err := ctx.BodyParser(existing); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	existing.ID = uint(id)

	if err := products.UpdateProduct(ctx.DB(), existing); err != nil {
		ctx.Logger.Error("Failed to update product", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return ctx.JSON(existing)
}

// ProductDeleteAction deletes a product
func ProductDeleteAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product ID",
		})
	}

	if err := products.DeleteProduct(ctx.DB(), uint(id)); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		ctx.Logger.Error("Failed to delete product", slog.Int("id", id), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete product",
		})
	}

	return ctx.JSON(fiber.Map{
		"deleted": true,
	})
}
