package stock

import (
	"strings"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type StockItemResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	MinQuantity float64 `json:"min_quantity"`
	Active      bool    `json:"active"`
	Low         bool    `json:"low"` // at or below the minimum
}

type CreateStockItemRequest struct {
	Name        string  `json:"name"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	MinQuantity float64 `json:"min_quantity"`
}

type UpdateStockItemRequest struct {
	Name        *string  `json:"name"`
	Unit        *string  `json:"unit"`
	MinQuantity *float64 `json:"min_quantity"`
	Active      *bool    `json:"active"`
	// Quantity is deliberately absent, it only changes through movements.
}

func toItemResponse(i *models.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:          i.ID,
		Name:        i.Name,
		Unit:        i.Unit,
		Quantity:    i.Quantity,
		MinQuantity: i.MinQuantity,
		Active:      i.Active,
		Low:         i.MinQuantity > 0 && i.Quantity <= i.MinQuantity,
	}
}

func CreateStockItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStockItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Item name cannot be empty")
		}
		if body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Unit is required (kg|l|pcs|...)")
		}
		if body.Quantity < 0 || body.MinQuantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Quantities cannot be negative")
		}

		item := models.StockItem{
			Name:        body.Name,
			Unit:        body.Unit,
			Quantity:    body.Quantity,
			MinQuantity: body.MinQuantity,
			Active:      true,
		}

		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Could not create item, name may already exist")
		}

		return c.Status(fiber.StatusCreated).JSON(toItemResponse(&item))
	}
}

// GET /api/stock-items?active=true&low=true
func ListStockItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.StockItem{})

		if c.Query("active") == "true" {
			dbq = dbq.Where("active = ?", true)
		}

		var items []models.StockItem
		if err := dbq.Order("name asc").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list stock items")
		}

		lowOnly := c.Query("low") == "true"

		resp := make([]StockItemResponse, 0, len(items))
		for i := range items {
			r := toItemResponse(&items[i])
			if lowOnly && !r.Low {
				continue
			}
			resp = append(resp, r)
		}
		return c.JSON(resp)
	}
}

func GetStockItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var item models.StockItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stock item not found")
		}

		return c.JSON(toItemResponse(&item))
	}
}

func UpdateStockItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var item models.StockItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stock item not found")
		}

		var body UpdateStockItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Item name cannot be empty")
			}
			item.Name = name
		}
		if body.Unit != nil {
			if *body.Unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Unit cannot be empty")
			}
			item.Unit = *body.Unit
		}
		if body.MinQuantity != nil {
			if *body.MinQuantity < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Minimum cannot be negative")
			}
			item.MinQuantity = *body.MinQuantity
		}
		if body.Active != nil {
			item.Active = *body.Active
		}

		if err := database.DB.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update item")
		}

		return c.JSON(toItemResponse(&item))
	}
}

// DELETE /api/admin/stock-items/:id
// Items referenced by movements or recipes are deactivated instead.
func DeleteStockItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var item models.StockItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stock item not found")
		}

		var movements, ingredients int64
		database.DB.Model(&models.StockMovement{}).Where("stock_item_id = ?", item.ID).Count(&movements)
		database.DB.Model(&models.RecipeIngredient{}).Where("stock_item_id = ?", item.ID).Count(&ingredients)

		if movements > 0 || ingredients > 0 {
			item.Active = false
			if err := database.DB.Save(&item).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate item")
			}
			return c.JSON(fiber.Map{
				"id":          item.ID,
				"deactivated": true,
			})
		}

		if err := database.DB.Delete(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete item")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
