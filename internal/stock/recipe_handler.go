package stock

import (
	"fmt"
	"strings"
	"time"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type IngredientRequest struct {
	StockItemID uint    `json:"stock_item_id"`
	Amount      float64 `json:"amount"` // per batch
}

type CreateRecipeRequest struct {
	Name        string              `json:"name"`
	Portions    int                 `json:"portions"`
	Ingredients []IngredientRequest `json:"ingredients"`
}

type UpdateRecipeRequest struct {
	Name        *string              `json:"name"`
	Portions    *int                 `json:"portions"`
	Ingredients *[]IngredientRequest `json:"ingredients"` // replaces all
}

type ConsumeRecipeRequest struct {
	Batches int     `json:"batches"`
	Date    *string `json:"date"`
	Note    string  `json:"note"`
}

type IngredientResponse struct {
	ID          uint    `json:"id"`
	StockItemID uint    `json:"stock_item_id"`
	ItemName    string  `json:"item_name"`
	Unit        string  `json:"unit"`
	Amount      float64 `json:"amount"`
}

type RecipeResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Portions    int                  `json:"portions"`
	Ingredients []IngredientResponse `json:"ingredients"`
}

func toRecipeResponse(r *models.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Portions:    r.Portions,
		Ingredients: make([]IngredientResponse, 0, len(r.Ingredients)),
	}
	for _, ing := range r.Ingredients {
		resp.Ingredients = append(resp.Ingredients, IngredientResponse{
			ID:          ing.ID,
			StockItemID: ing.StockItemID,
			ItemName:    ing.StockItem.Name,
			Unit:        ing.StockItem.Unit,
			Amount:      ing.Amount,
		})
	}
	return resp
}

func buildIngredients(reqs []IngredientRequest) ([]models.RecipeIngredient, error) {
	if len(reqs) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "At least one ingredient is required")
	}

	ingredients := make([]models.RecipeIngredient, 0, len(reqs))
	for _, ir := range reqs {
		if ir.Amount <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Ingredient amount must be greater than 0")
		}
		var item models.StockItem
		if err := database.DB.First(&item, "id = ?", ir.StockItemID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Stock item %d not found", ir.StockItemID))
		}
		ingredients = append(ingredients, models.RecipeIngredient{
			StockItemID: item.ID,
			Amount:      ir.Amount,
		})
	}
	return ingredients, nil
}

func CreateRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Recipe name cannot be empty")
		}
		if body.Portions <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Portions must be greater than 0")
		}

		ingredients, err := buildIngredients(body.Ingredients)
		if err != nil {
			return err
		}

		recipe := models.Recipe{
			Name:        body.Name,
			Portions:    body.Portions,
			Ingredients: ingredients,
		}

		if err := database.DB.Create(&recipe).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create recipe")
		}

		if err := database.DB.Preload("Ingredients.StockItem").
			First(&recipe, recipe.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load recipe")
		}

		return c.Status(fiber.StatusCreated).JSON(toRecipeResponse(&recipe))
	}
}

func ListRecipesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var recipes []models.Recipe
		if err := database.DB.Preload("Ingredients.StockItem").
			Order("name asc").Find(&recipes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list recipes")
		}

		resp := make([]RecipeResponse, 0, len(recipes))
		for i := range recipes {
			resp = append(resp, toRecipeResponse(&recipes[i]))
		}
		return c.JSON(resp)
	}
}

func GetRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var recipe models.Recipe
		if err := database.DB.Preload("Ingredients.StockItem").
			First(&recipe, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Recipe not found")
		}

		return c.JSON(toRecipeResponse(&recipe))
	}
}

func UpdateRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var recipe models.Recipe
		if err := database.DB.First(&recipe, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Recipe not found")
		}

		var body UpdateRecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Recipe name cannot be empty")
			}
			recipe.Name = name
		}
		if body.Portions != nil {
			if *body.Portions <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Portions must be greater than 0")
			}
			recipe.Portions = *body.Portions
		}

		var newIngredients []models.RecipeIngredient
		if body.Ingredients != nil {
			built, err := buildIngredients(*body.Ingredients)
			if err != nil {
				return err
			}
			newIngredients = built
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if newIngredients != nil {
				if err := tx.Where("recipe_id = ?", recipe.ID).
					Delete(&models.RecipeIngredient{}).Error; err != nil {
					return err
				}
				for i := range newIngredients {
					newIngredients[i].RecipeID = recipe.ID
				}
				if err := tx.Create(&newIngredients).Error; err != nil {
					return err
				}
			}
			return tx.Omit("Ingredients").Save(&recipe).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update recipe")
		}

		if err := database.DB.Preload("Ingredients.StockItem").
			First(&recipe, recipe.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load recipe")
		}

		return c.JSON(toRecipeResponse(&recipe))
	}
}

func DeleteRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var recipe models.Recipe
		if err := database.DB.First(&recipe, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Recipe not found")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("recipe_id = ?", recipe.ID).
				Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			return tx.Delete(&recipe).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete recipe")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------------------------------
// POST /api/recipes/:id/consume
// One OUT movement per ingredient, all or nothing.
// -------------------------------------------------
func ConsumeRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var recipe models.Recipe
		if err := database.DB.Preload("Ingredients.StockItem").
			First(&recipe, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Recipe not found")
		}

		var body ConsumeRecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Batches <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Batches must be greater than 0")
		}

		var date time.Time
		if body.Date == nil || *body.Date == "" {
			now := time.Now()
			date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			d, err := time.Parse("2006-01-02", *body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid date, expected 'YYYY-MM-DD'")
			}
			date = d
		}

		note := body.Note
		if note == "" {
			note = fmt.Sprintf("Recipe: %s x%d", recipe.Name, body.Batches)
		}

		movements := make([]MovementResponse, 0, len(recipe.Ingredients))

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			for _, ing := range recipe.Ingredients {
				var item models.StockItem
				if err := tx.First(&item, "id = ?", ing.StockItemID).Error; err != nil {
					return fiber.NewError(fiber.StatusNotFound,
						fmt.Sprintf("Stock item %d not found", ing.StockItemID))
				}

				needed := ing.Amount * float64(body.Batches)
				mov, err := applyMovement(tx, &item, models.MovementOut, needed, date, note)
				if err != nil {
					return err
				}

				movements = append(movements, MovementResponse{
					ID:          mov.ID,
					StockItemID: mov.StockItemID,
					ItemName:    item.Name,
					Type:        mov.Type,
					Quantity:    mov.Quantity,
					Delta:       mov.Delta,
					Date:        mov.Date.Format("2006-01-02"),
					Note:        mov.Note,
					NewQuantity: item.Quantity,
				})
			}
			return nil
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not consume recipe")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"recipe_id": recipe.ID,
			"batches":   body.Batches,
			"portions":  recipe.Portions * body.Batches,
			"movements": movements,
		})
	}
}
