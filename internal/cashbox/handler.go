package cashbox

import (
	"fmt"
	"time"

	"folklore-backend/internal/audit"
	"folklore-backend/internal/auth"
	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateEntryRequest struct {
	Date       *string                 `json:"date"` // "2026-06-15", empty means today
	CategoryID *uint                   `json:"category_id"`
	Direction  models.CashboxDirection `json:"direction"`
	Currency   models.Currency         `json:"currency"`
	Amount     float64                 `json:"amount"`
	Note       string                  `json:"note"`
}

type EntryResponse struct {
	ID           uint                    `json:"id"`
	Date         string                  `json:"date"`
	CategoryID   *uint                   `json:"category_id"`
	CategoryName string                  `json:"category_name,omitempty"`
	Direction    models.CashboxDirection `json:"direction"`
	Currency     models.Currency         `json:"currency"`
	Amount       float64                 `json:"amount"`
	Note         string                  `json:"note"`
}

type MonthlyCategoryRow struct {
	CategoryID   *uint                   `json:"category_id"`
	CategoryName string                  `json:"category_name"`
	Direction    models.CashboxDirection `json:"direction"`
	Total        float64                 `json:"total"`
}

type MonthlyCurrencySummary struct {
	Currency models.Currency      `json:"currency"`
	Income   float64              `json:"income"`
	Expense  float64              `json:"expense"`
	Net      float64              `json:"net"`
	ByCat    []MonthlyCategoryRow `json:"by_category"`
}

type MonthlySummaryResponse struct {
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	Currencies []MonthlyCurrencySummary `json:"currencies"`
}

func toEntryResponse(e *models.CashboxEntry) EntryResponse {
	resp := EntryResponse{
		ID:         e.ID,
		Date:       e.Date.Format("2006-01-02"),
		CategoryID: e.CategoryID,
		Direction:  e.Direction,
		Currency:   e.Currency,
		Amount:     e.Amount,
		Note:       e.Note,
	}
	if e.Category != nil {
		resp.CategoryName = e.Category.Name
	}
	return resp
}

// -------------------------------------------------
// POST /api/cashbox-entries
// -------------------------------------------------
func CreateEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Amount must be greater than 0")
		}

		if body.Direction != models.CashboxIncome && body.Direction != models.CashboxExpense {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid direction (income|expense)")
		}

		switch body.Currency {
		case models.CurrencyCZK, models.CurrencyEUR:
			// ok
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Invalid currency (CZK|EUR)")
		}

		if body.CategoryID != nil {
			var category models.CashboxCategory
			if err := database.DB.First(&category, "id = ?", *body.CategoryID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Category not found")
			}
			if category.Kind != body.Direction {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("Category %s is a %s category", category.Name, category.Kind))
			}
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

		entry := models.CashboxEntry{
			Date:       date,
			CategoryID: body.CategoryID,
			Direction:  body.Direction,
			Currency:   body.Currency,
			Amount:     body.Amount,
			Note:       body.Note,
		}

		if err := database.DB.Create(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create entry")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "cashbox_entry",
				EntityID:    entry.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Cashbox %s: %.2f %s", entry.Direction, entry.Amount, entry.Currency),
				Before:      nil,
				After:       entry,
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toEntryResponse(&entry))
	}
}

// -------------------------------------------------
// GET /api/cashbox-entries?from=2026-06-01&to=2026-06-30&currency=CZK&direction=expense
// -------------------------------------------------
func ListEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.CashboxEntry{}).Preload("Category")

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
		if currency := c.Query("currency"); currency != "" {
			dbq = dbq.Where("currency = ?", currency)
		}
		if direction := c.Query("direction"); direction != "" {
			dbq = dbq.Where("direction = ?", direction)
		}

		var entries []models.CashboxEntry
		if err := dbq.Order("date asc, id asc").Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list entries")
		}

		resp := make([]EntryResponse, 0, len(entries))
		for i := range entries {
			resp = append(resp, toEntryResponse(&entries[i]))
		}
		return c.JSON(resp)
	}
}

// DELETE /api/cashbox-entries/:id
func DeleteEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var entry models.CashboxEntry
		if err := database.DB.First(&entry, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Entry not found")
		}

		if err := database.DB.Delete(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete entry")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "cashbox_entry",
				EntityID:    entry.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Cashbox entry removed: %.2f %s", entry.Amount, entry.Currency),
				Before:      entry,
				After:       entry,
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------------------------------
// GET /api/cashbox-entries/summary/monthly?year=2026&month=6
// -------------------------------------------------
func MonthlySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		yearStr := c.Query("year")
		monthStr := c.Query("month")
		if yearStr == "" || monthStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "year and month are required")
		}

		var year, month int
		if _, err := fmt.Sscan(yearStr, &year); err != nil || year < 2000 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid year")
		}
		if _, err := fmt.Sscan(monthStr, &month); err != nil || month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid month")
		}

		loc := time.Now().Location()
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 1, -1) // last day of the month

		type row struct {
			Currency   string  `gorm:"column:currency"`
			Direction  string  `gorm:"column:direction"`
			CategoryID *uint   `gorm:"column:category_id"`
			Total      float64 `gorm:"column:total"`
		}
		var rows []row

		if err := database.DB.Model(&models.CashboxEntry{}).
			Select("currency, direction, category_id, SUM(amount) as total").
			Where("date >= ? AND date <= ?", start, end).
			Group("currency, direction, category_id").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute summary")
		}

		var categories []models.CashboxCategory
		database.DB.Find(&categories)
		catName := make(map[uint]string, len(categories))
		for _, cat := range categories {
			catName[cat.ID] = cat.Name
		}

		byCurrency := make(map[models.Currency]*MonthlyCurrencySummary)
		for _, r := range rows {
			currency := models.Currency(r.Currency)
			summary, ok := byCurrency[currency]
			if !ok {
				summary = &MonthlyCurrencySummary{Currency: currency, ByCat: make([]MonthlyCategoryRow, 0)}
				byCurrency[currency] = summary
			}

			name := "(uncategorized)"
			if r.CategoryID != nil {
				if n, ok := catName[*r.CategoryID]; ok {
					name = n
				}
			}

			direction := models.CashboxDirection(r.Direction)
			summary.ByCat = append(summary.ByCat, MonthlyCategoryRow{
				CategoryID:   r.CategoryID,
				CategoryName: name,
				Direction:    direction,
				Total:        r.Total,
			})

			if direction == models.CashboxIncome {
				summary.Income += r.Total
			} else {
				summary.Expense += r.Total
			}
		}

		resp := MonthlySummaryResponse{
			Year:       year,
			Month:      month,
			Currencies: make([]MonthlyCurrencySummary, 0, len(byCurrency)),
		}
		for _, currency := range []models.Currency{models.CurrencyCZK, models.CurrencyEUR} {
			if summary, ok := byCurrency[currency]; ok {
				summary.Net = summary.Income - summary.Expense
				resp.Currencies = append(resp.Currencies, *summary)
			}
		}

		return c.JSON(resp)
	}
}
