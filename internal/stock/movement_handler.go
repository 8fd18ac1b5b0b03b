package stock

import (
	"fmt"
	"time"

	"folklore-backend/internal/audit"
	"folklore-backend/internal/auth"
	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateMovementRequest struct {
	StockItemID uint                `json:"stock_item_id"`
	Type        models.MovementType `json:"type"`
	// For IN/OUT the moved amount, for ADJUSTMENT the new absolute level.
	Quantity float64 `json:"quantity"`
	Date     *string `json:"date"` // empty means today
	Note     string  `json:"note"`
}

type MovementResponse struct {
	ID          uint                `json:"id"`
	StockItemID uint                `json:"stock_item_id"`
	ItemName    string              `json:"item_name,omitempty"`
	Type        models.MovementType `json:"type"`
	Quantity    float64             `json:"quantity"`
	Delta       float64             `json:"delta"`
	Date        string              `json:"date"`
	Note        string              `json:"note"`
	NewQuantity float64             `json:"new_quantity,omitempty"`
}

// applyMovement inserts the movement row and mutates the item quantity
// inside the caller's transaction. The quantity change is a single
// conditional UPDATE on the row, so two concurrent OUT movements cannot
// both pass the stock check and drive the level negative.
func applyMovement(tx *gorm.DB, item *models.StockItem, mtype models.MovementType, quantity float64, date time.Time, note string) (*models.StockMovement, error) {
	var delta float64

	switch mtype {
	case models.MovementIn:
		delta = quantity
		if err := tx.Model(item).
			Update("quantity", gorm.Expr("quantity + ?", quantity)).Error; err != nil {
			return nil, err
		}
	case models.MovementOut:
		delta = -quantity
		res := tx.Model(item).
			Where("quantity >= ?", quantity).
			Update("quantity", gorm.Expr("quantity - ?", quantity))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.First(item, "id = ?", item.ID).Error; err != nil {
				return nil, err
			}
			return nil, fiber.NewError(fiber.StatusUnprocessableEntity,
				fmt.Sprintf("Insufficient stock of %s: have %.3f, need %.3f", item.Name, item.Quantity, quantity))
		}
	case models.MovementAdjustment:
		delta = quantity - item.Quantity
		if err := tx.Model(item).Update("quantity", quantity).Error; err != nil {
			return nil, err
		}
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid movement type (IN|OUT|ADJUSTMENT)")
	}

	if err := tx.First(item, "id = ?", item.ID).Error; err != nil {
		return nil, err
	}

	mov := models.StockMovement{
		StockItemID: item.ID,
		Type:        mtype,
		Quantity:    quantity,
		Delta:       delta,
		Date:        date,
		Note:        note,
	}
	if err := tx.Create(&mov).Error; err != nil {
		return nil, err
	}

	return &mov, nil
}

// -------------------------------------------------
// POST /api/stock-movements
// -------------------------------------------------
func CreateMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Quantity cannot be negative")
		}
		if body.Quantity == 0 && body.Type != models.MovementAdjustment {
			return fiber.NewError(fiber.StatusBadRequest, "Quantity must be greater than 0")
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

		var mov *models.StockMovement
		var item models.StockItem

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&item, "id = ?", body.StockItemID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Stock item not found")
			}
			m, err := applyMovement(tx, &item, body.Type, body.Quantity, date, body.Note)
			if err != nil {
				return err
			}
			mov = m
			return nil
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not record movement")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "stock_movement",
				EntityID:    mov.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("%s %s: %.3f %s (now %.3f)", mov.Type, item.Name, body.Quantity, item.Unit, item.Quantity),
				Before:      nil,
				After:       mov,
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(MovementResponse{
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
}

// -------------------------------------------------
// GET /api/stock-movements?item_id=1&type=OUT&from=2026-01-01&to=2026-01-31
// -------------------------------------------------
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.StockMovement{}).Preload("StockItem")

		if itemIDStr := c.Query("item_id"); itemIDStr != "" {
			var itemID uint
			if _, err := fmt.Sscan(itemIDStr, &itemID); err != nil || itemID == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid item_id")
			}
			dbq = dbq.Where("stock_item_id = ?", itemID)
		}

		if mtype := c.Query("type"); mtype != "" {
			dbq = dbq.Where("type = ?", mtype)
		}

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

		var movements []models.StockMovement
		if err := dbq.Order("date desc, id desc").Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list movements")
		}

		resp := make([]MovementResponse, 0, len(movements))
		for _, m := range movements {
			resp = append(resp, MovementResponse{
				ID:          m.ID,
				StockItemID: m.StockItemID,
				ItemName:    m.StockItem.Name,
				Type:        m.Type,
				Quantity:    m.Quantity,
				Delta:       m.Delta,
				Date:        m.Date.Format("2006-01-02"),
				Note:        m.Note,
			})
		}
		return c.JSON(resp)
	}
}
