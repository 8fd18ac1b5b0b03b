package cashbox

import (
	"strings"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CategoryResponse struct {
	ID   uint                    `json:"id"`
	Name string                  `json:"name"`
	Kind models.CashboxDirection `json:"kind"`
}

type CreateCategoryRequest struct {
	Name string                  `json:"name"`
	Kind models.CashboxDirection `json:"kind"`
}

type UpdateCategoryRequest struct {
	Name *string `json:"name"`
}

func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Category name cannot be empty")
		}
		if body.Kind != models.CashboxIncome && body.Kind != models.CashboxExpense {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid kind (income|expense)")
		}

		category := models.CashboxCategory{
			Name: body.Name,
			Kind: body.Kind,
		}

		if err := database.DB.Create(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create category")
		}

		return c.Status(fiber.StatusCreated).JSON(CategoryResponse{
			ID:   category.ID,
			Name: category.Name,
			Kind: category.Kind,
		})
	}
}

func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.CashboxCategory{})

		if kind := c.Query("kind"); kind != "" {
			dbq = dbq.Where("kind = ?", kind)
		}

		var categories []models.CashboxCategory
		if err := dbq.Order("name asc").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list categories")
		}

		res := make([]CategoryResponse, 0, len(categories))
		for _, cat := range categories {
			res = append(res, CategoryResponse{ID: cat.ID, Name: cat.Name, Kind: cat.Kind})
		}
		return c.JSON(res)
	}
}

func UpdateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var category models.CashboxCategory
		if err := database.DB.First(&category, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Category not found")
		}

		var body UpdateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Category name cannot be empty")
			}
			category.Name = name
		}

		if err := database.DB.Save(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update category")
		}

		return c.JSON(CategoryResponse{ID: category.ID, Name: category.Name, Kind: category.Kind})
	}
}

// DELETE /api/admin/cashbox-categories/:id
// Entries keep their category reference, so used categories stay.
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var count int64
		database.DB.Model(&models.CashboxEntry{}).Where("category_id = ?", id).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Category is used by cashbox entries")
		}

		if err := database.DB.Delete(&models.CashboxCategory{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete category")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
