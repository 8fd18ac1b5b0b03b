package partner

import (
	"fmt"
	"time"

	"folklore-backend/internal/audit"
	"folklore-backend/internal/auth"
	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CommissionLogResponse struct {
	ID            uint    `json:"id"`
	PartnerID     uint    `json:"partner_id"`
	PartnerName   string  `json:"partner_name"`
	VoucherID     uint    `json:"voucher_id"`
	ReservationID uint    `json:"reservation_id"`
	BaseAmount    float64 `json:"base_amount"`
	Rate          float64 `json:"rate"`
	Amount        float64 `json:"amount"`
	CreatedAt     string  `json:"created_at"`
}

type CreatePayoutRequest struct {
	PartnerID uint    `json:"partner_id"`
	Date      *string `json:"date"` // empty means today
	Amount    float64 `json:"amount"`
	Note      string  `json:"note"`
}

type PayoutResponse struct {
	ID        uint    `json:"id"`
	PartnerID uint    `json:"partner_id"`
	Date      string  `json:"date"`
	Amount    float64 `json:"amount"`
	Note      string  `json:"note"`
}

type BalanceResponse struct {
	PartnerID uint    `json:"partner_id"`
	Accrued   float64 `json:"accrued"`  // commissions earned
	PaidOut   float64 `json:"paid_out"` // payouts recorded
	Balance   float64 `json:"balance"`  // still owed to the partner
}

// GET /api/commission-logs?partner_id=1&from=2026-01-01&to=2026-12-31
func ListCommissionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.CommissionLog{}).Preload("Partner")

		if pidStr := c.Query("partner_id"); pidStr != "" {
			var pid uint
			if _, err := fmt.Sscan(pidStr, &pid); err != nil || pid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid partner_id")
			}
			dbq = dbq.Where("partner_id = ?", pid)
		}

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid from date")
			}
			dbq = dbq.Where("created_at >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid to date")
			}
			dbq = dbq.Where("created_at < ?", to.AddDate(0, 0, 1))
		}

		var logs []models.CommissionLog
		if err := dbq.Order("created_at desc").Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list commission logs")
		}

		resp := make([]CommissionLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, CommissionLogResponse{
				ID:            l.ID,
				PartnerID:     l.PartnerID,
				PartnerName:   l.Partner.Name,
				VoucherID:     l.VoucherID,
				ReservationID: l.ReservationID,
				BaseAmount:    l.BaseAmount,
				Rate:          l.Rate,
				Amount:        l.Amount,
				CreatedAt:     l.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(resp)
	}
}

// GET /api/partners/:id/balance
func PartnerBalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var partner models.Partner
		if err := database.DB.First(&partner, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Partner not found")
		}

		var accrued float64
		if err := database.DB.Model(&models.CommissionLog{}).
			Where("partner_id = ?", partner.ID).
			Select("COALESCE(SUM(amount), 0)").Scan(&accrued).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute balance")
		}

		var paidOut float64
		if err := database.DB.Model(&models.CommissionPayout{}).
			Where("partner_id = ?", partner.ID).
			Select("COALESCE(SUM(amount), 0)").Scan(&paidOut).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute balance")
		}

		return c.JSON(BalanceResponse{
			PartnerID: partner.ID,
			Accrued:   accrued,
			PaidOut:   paidOut,
			Balance:   accrued - paidOut,
		})
	}
}

// -------------------------------------------------
// POST /api/admin/commission-payouts
// -------------------------------------------------
func CreatePayoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePayoutRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Amount must be greater than 0")
		}

		var partner models.Partner
		if err := database.DB.First(&partner, "id = ?", body.PartnerID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Partner not found")
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

		payout := models.CommissionPayout{
			PartnerID: partner.ID,
			Date:      date,
			Amount:    body.Amount,
			Note:      body.Note,
		}

		if err := database.DB.Create(&payout).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not record payout")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "commission_payout",
				EntityID:    payout.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Payout to %s: %.2f CZK", partner.Name, payout.Amount),
				Before:      nil,
				After:       payout,
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(PayoutResponse{
			ID:        payout.ID,
			PartnerID: payout.PartnerID,
			Date:      payout.Date.Format("2006-01-02"),
			Amount:    payout.Amount,
			Note:      payout.Note,
		})
	}
}

// GET /api/commission-payouts?partner_id=1
func ListPayoutsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.CommissionPayout{})

		if pidStr := c.Query("partner_id"); pidStr != "" {
			var pid uint
			if _, err := fmt.Sscan(pidStr, &pid); err != nil || pid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid partner_id")
			}
			dbq = dbq.Where("partner_id = ?", pid)
		}

		var payouts []models.CommissionPayout
		if err := dbq.Order("date desc, id desc").Find(&payouts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list payouts")
		}

		resp := make([]PayoutResponse, 0, len(payouts))
		for _, p := range payouts {
			resp = append(resp, PayoutResponse{
				ID:        p.ID,
				PartnerID: p.PartnerID,
				Date:      p.Date.Format("2006-01-02"),
				Amount:    p.Amount,
				Note:      p.Note,
			})
		}
		return c.JSON(resp)
	}
}
