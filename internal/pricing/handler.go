package pricing

import (
	"errors"
	"fmt"
	"time"

	"folklore-backend/internal/audit"
	"folklore-backend/internal/auth"
	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UpsertDefaultRequest struct {
	PersonType models.PersonType `json:"person_type"`
	MenuCode   string            `json:"menu_code"`
	Price      float64           `json:"price"`
}

type UpsertOverrideRequest struct {
	Date       string            `json:"date"` // "2026-12-24"
	PersonType models.PersonType `json:"person_type"`
	MenuCode   string            `json:"menu_code"`
	Price      float64           `json:"price"`
}

type PriceResponse struct {
	ID         uint              `json:"id"`
	PersonType models.PersonType `json:"person_type"`
	MenuCode   string            `json:"menu_code"`
	Price      float64           `json:"price"`
}

type OverrideResponse struct {
	ID         uint              `json:"id"`
	Date       string            `json:"date"`
	PersonType models.PersonType `json:"person_type"`
	MenuCode   string            `json:"menu_code"`
	Price      float64           `json:"price"`
}

type EffectivePriceItem struct {
	PersonType models.PersonType `json:"person_type"`
	MenuCode   string            `json:"menu_code"`
	Price      float64           `json:"price"`
	Overridden bool              `json:"overridden"`
}

func validPersonType(t models.PersonType) bool {
	switch t {
	case models.PersonAdult, models.PersonChild, models.PersonInfant:
		return true
	}
	return false
}

// -------------------------------------------------
// POST /api/admin/pricing/defaults (upsert by person_type+menu_code)
// -------------------------------------------------
func UpsertDefaultHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpsertDefaultRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if !validPersonType(body.PersonType) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid person_type (adult|child|infant)")
		}
		if body.MenuCode == "" {
			return fiber.NewError(fiber.StatusBadRequest, "menu_code is required")
		}
		if body.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Price cannot be negative")
		}

		var def models.PricingDefault
		err := database.DB.
			Where("person_type = ? AND menu_code = ?", body.PersonType, body.MenuCode).
			First(&def).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not read price")
		}

		def.PersonType = body.PersonType
		def.MenuCode = body.MenuCode
		def.Price = body.Price

		if err := database.DB.Save(&def).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save price")
		}

		return c.Status(fiber.StatusCreated).JSON(PriceResponse{
			ID:         def.ID,
			PersonType: def.PersonType,
			MenuCode:   def.MenuCode,
			Price:      def.Price,
		})
	}
}

// GET /api/pricing/defaults
func ListDefaultsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var defs []models.PricingDefault
		if err := database.DB.Order("menu_code asc, person_type asc").Find(&defs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list prices")
		}

		resp := make([]PriceResponse, 0, len(defs))
		for _, d := range defs {
			resp = append(resp, PriceResponse{
				ID:         d.ID,
				PersonType: d.PersonType,
				MenuCode:   d.MenuCode,
				Price:      d.Price,
			})
		}
		return c.JSON(resp)
	}
}

// DELETE /api/admin/pricing/defaults/:id
func DeleteDefaultHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := database.DB.Delete(&models.PricingDefault{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete price")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------------------------------
// POST /api/admin/pricing/overrides (upsert by date+person_type+menu_code)
// -------------------------------------------------
func UpsertOverrideHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpsertOverrideRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if !validPersonType(body.PersonType) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid person_type (adult|child|infant)")
		}
		if body.MenuCode == "" {
			return fiber.NewError(fiber.StatusBadRequest, "menu_code is required")
		}
		if body.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Price cannot be negative")
		}

		date, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid date, expected 'YYYY-MM-DD'")
		}

		var override models.PricingOverride
		findErr := database.DB.
			Where("date = ? AND person_type = ? AND menu_code = ?", date, body.PersonType, body.MenuCode).
			First(&override).Error
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not read override")
		}

		isNew := override.ID == 0
		before := override

		override.Date = date
		override.PersonType = body.PersonType
		override.MenuCode = body.MenuCode
		override.Price = body.Price

		if err := database.DB.Save(&override).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save override")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			action := models.AuditActionUpdate
			var beforeData any = before
			if isNew {
				action = models.AuditActionCreate
				beforeData = nil
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "pricing_override",
				EntityID:    override.ID,
				Action:      action,
				Description: fmt.Sprintf("Price override %s %s/%s: %.2f CZK", body.Date, body.PersonType, body.MenuCode, body.Price),
				Before:      beforeData,
				After:       override,
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(OverrideResponse{
			ID:         override.ID,
			Date:       override.Date.Format("2006-01-02"),
			PersonType: override.PersonType,
			MenuCode:   override.MenuCode,
			Price:      override.Price,
		})
	}
}

// GET /api/pricing/overrides?from=2026-01-01&to=2026-12-31
func ListOverridesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.PricingOverride{})

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid from date")
			}
			dbq = dbq.Where("date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid to date")
			}
			dbq = dbq.Where("date <= ?", to)
		}

		var overrides []models.PricingOverride
		if err := dbq.Order("date asc, menu_code asc").Find(&overrides).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list overrides")
		}

		resp := make([]OverrideResponse, 0, len(overrides))
		for _, o := range overrides {
			resp = append(resp, OverrideResponse{
				ID:         o.ID,
				Date:       o.Date.Format("2006-01-02"),
				PersonType: o.PersonType,
				MenuCode:   o.MenuCode,
				Price:      o.Price,
			})
		}
		return c.JSON(resp)
	}
}

// DELETE /api/admin/pricing/overrides/:id
func DeleteOverrideHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var override models.PricingOverride
		if err := database.DB.First(&override, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Override not found")
		}

		if err := database.DB.Delete(&override).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete override")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "pricing_override",
				EntityID:    override.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Price override removed %s %s/%s", override.Date.Format("2006-01-02"), override.PersonType, override.MenuCode),
				Before:      override,
				After:       override,
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------------------------------
// GET /api/pricing/effective?date=2026-12-24
// Defaults with that day's overrides applied.
// -------------------------------------------------
func EffectivePricesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dateStr := c.Query("date")
		if dateStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "date is required")
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid date, expected 'YYYY-MM-DD'")
		}

		var defs []models.PricingDefault
		if err := database.DB.Order("menu_code asc, person_type asc").Find(&defs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list prices")
		}

		var overrides []models.PricingOverride
		if err := database.DB.Where("date = ?", date).
			Order("menu_code asc, person_type asc").Find(&overrides).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list overrides")
		}

		type key struct {
			t models.PersonType
			m string
		}
		overrideByKey := make(map[key]float64, len(overrides))
		for _, o := range overrides {
			overrideByKey[key{o.PersonType, o.MenuCode}] = o.Price
		}

		items := make([]EffectivePriceItem, 0, len(defs)+len(overrides))
		seen := make(map[key]bool, len(defs))
		for _, d := range defs {
			item := EffectivePriceItem{
				PersonType: d.PersonType,
				MenuCode:   d.MenuCode,
				Price:      d.Price,
			}
			if p, ok := overrideByKey[key{d.PersonType, d.MenuCode}]; ok {
				item.Price = p
				item.Overridden = true
			}
			seen[key{d.PersonType, d.MenuCode}] = true
			items = append(items, item)
		}

		// overrides for pairs with no default row still price
		// reservations, so they belong in the list too
		for _, o := range overrides {
			if seen[key{o.PersonType, o.MenuCode}] {
				continue
			}
			items = append(items, EffectivePriceItem{
				PersonType: o.PersonType,
				MenuCode:   o.MenuCode,
				Price:      o.Price,
				Overridden: true,
			})
		}

		return c.JSON(fiber.Map{
			"date":   dateStr,
			"prices": items,
		})
	}
}
