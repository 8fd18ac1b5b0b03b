package reservation

import (
	"fmt"
	"time"

	"folklore-backend/internal/audit"
	"folklore-backend/internal/auth"
	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreatePaymentRequest struct {
	Amount   float64              `json:"amount"`
	Currency models.Currency      `json:"currency"`
	Method   models.PaymentMethod `json:"method"`
	PaidAt   *string              `json:"paid_at"` // "2026-06-15", empty means today
	Note     string               `json:"note"`
}

// -------------------------------------------------
// POST /api/reservations/:id/payments
// -------------------------------------------------
func CreatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var res models.Reservation
		if err := database.DB.First(&res, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reservation not found")
		}

		if res.Status == models.ReservationCancelled {
			return fiber.NewError(fiber.StatusConflict, "Cancelled reservations cannot take payments")
		}

		var body CreatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Amount must be greater than 0")
		}

		switch body.Currency {
		case models.CurrencyCZK, models.CurrencyEUR:
			// ok
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Invalid currency (CZK|EUR)")
		}

		switch body.Method {
		case models.PaymentCash, models.PaymentCard, models.PaymentBank:
			// ok
		case models.PaymentVoucher:
			return fiber.NewError(fiber.StatusBadRequest, "Voucher payments are created by redeeming a voucher")
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Invalid method (cash|card|bank)")
		}

		var paidAt time.Time
		if body.PaidAt == nil || *body.PaidAt == "" {
			now := time.Now()
			paidAt = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			d, err := time.Parse("2006-01-02", *body.PaidAt)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid paid_at, expected 'YYYY-MM-DD'")
			}
			paidAt = d
		}

		payment := models.Payment{
			ReservationID: res.ID,
			Amount:        body.Amount,
			Currency:      body.Currency,
			Method:        body.Method,
			PaidAt:        paidAt,
			Note:          body.Note,
		}

		if err := database.DB.Create(&payment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not record payment")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "payment",
				EntityID:    payment.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Payment on reservation %d: %.2f %s (%s)", res.ID, payment.Amount, payment.Currency, payment.Method),
				Before:      nil,
				After:       payment,
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(PaymentResponse{
			ID:       payment.ID,
			Amount:   payment.Amount,
			Currency: payment.Currency,
			Method:   payment.Method,
			PaidAt:   payment.PaidAt.Format("2006-01-02"),
			Note:     payment.Note,
		})
	}
}

// GET /api/reservations/:id/payments
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var res models.Reservation
		if err := database.DB.First(&res, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reservation not found")
		}

		var payments []models.Payment
		if err := database.DB.Where("reservation_id = ?", res.ID).
			Order("paid_at asc, id asc").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list payments")
		}

		resp := make([]PaymentResponse, 0, len(payments))
		for _, p := range payments {
			resp = append(resp, PaymentResponse{
				ID:       p.ID,
				Amount:   p.Amount,
				Currency: p.Currency,
				Method:   p.Method,
				PaidAt:   p.PaidAt.Format("2006-01-02"),
				Note:     p.Note,
			})
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// DELETE /api/payments/:id
// Voucher payments stay, they belong to the redemption record.
// -------------------------------------------------
func DeletePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var payment models.Payment
		if err := database.DB.First(&payment, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Payment not found")
		}

		if payment.Method == models.PaymentVoucher {
			return fiber.NewError(fiber.StatusConflict, "Voucher payments cannot be deleted")
		}

		if err := database.DB.Delete(&payment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete payment")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "payment",
				EntityID:    payment.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Payment removed from reservation %d: %.2f %s", payment.ReservationID, payment.Amount, payment.Currency),
				Before:      payment,
				After:       payment,
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
