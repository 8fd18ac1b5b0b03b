package partner

import (
	"fmt"
	"time"

	"folklore-backend/internal/audit"
	"folklore-backend/internal/auth"
	"folklore-backend/internal/database"
	"folklore-backend/internal/models"
	"folklore-backend/internal/reservation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IssueVoucherRequest struct {
	PartnerID  uint    `json:"partner_id"`
	Value      float64 `json:"value"` // CZK
	ValidUntil string  `json:"valid_until"`
}

type RedeemVoucherRequest struct {
	ReservationID uint `json:"reservation_id"`
}

type VoucherResponse struct {
	ID            uint    `json:"id"`
	Code          string  `json:"code"`
	PartnerID     uint    `json:"partner_id"`
	PartnerName   string  `json:"partner_name,omitempty"`
	Value         float64 `json:"value"`
	ValidUntil    string  `json:"valid_until"`
	RedeemedAt    *string `json:"redeemed_at"`
	ReservationID *uint   `json:"reservation_id"`
}

func toVoucherResponse(v *models.Voucher) VoucherResponse {
	resp := VoucherResponse{
		ID:            v.ID,
		Code:          v.Code,
		PartnerID:     v.PartnerID,
		PartnerName:   v.Partner.Name,
		Value:         v.Value,
		ValidUntil:    v.ValidUntil.Format("2006-01-02"),
		ReservationID: v.ReservationID,
	}
	if v.RedeemedAt != nil {
		formatted := v.RedeemedAt.Format("2006-01-02 15:04:05")
		resp.RedeemedAt = &formatted
	}
	return resp
}

// -------------------------------------------------
// POST /api/admin/vouchers
// -------------------------------------------------
func IssueVoucherHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body IssueVoucherRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Value <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Voucher value must be greater than 0")
		}

		validUntil, err := time.Parse("2006-01-02", body.ValidUntil)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid valid_until, expected 'YYYY-MM-DD'")
		}

		var partner models.Partner
		if err := database.DB.First(&partner, "id = ?", body.PartnerID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Partner not found")
		}
		if !partner.Active {
			return fiber.NewError(fiber.StatusConflict, "Partner is inactive")
		}

		voucher := models.Voucher{
			Code:       uuid.NewString(),
			PartnerID:  partner.ID,
			Value:      body.Value,
			ValidUntil: validUntil,
		}

		if err := database.DB.Create(&voucher).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not issue voucher")
		}

		voucher.Partner = partner
		return c.Status(fiber.StatusCreated).JSON(toVoucherResponse(&voucher))
	}
}

// GET /api/vouchers?partner_id=1&redeemed=false
func ListVouchersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Voucher{}).Preload("Partner")

		if pidStr := c.Query("partner_id"); pidStr != "" {
			var pid uint
			if _, err := fmt.Sscan(pidStr, &pid); err != nil || pid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid partner_id")
			}
			dbq = dbq.Where("partner_id = ?", pid)
		}

		switch c.Query("redeemed") {
		case "true":
			dbq = dbq.Where("redeemed_at IS NOT NULL")
		case "false":
			dbq = dbq.Where("redeemed_at IS NULL")
		}

		var vouchers []models.Voucher
		if err := dbq.Order("created_at desc").Find(&vouchers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list vouchers")
		}

		resp := make([]VoucherResponse, 0, len(vouchers))
		for i := range vouchers {
			resp = append(resp, toVoucherResponse(&vouchers[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/vouchers/:code
func GetVoucherHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Params("code")

		var voucher models.Voucher
		if err := database.DB.Preload("Partner").
			First(&voucher, "code = ?", code).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Voucher not found")
		}

		return c.JSON(toVoucherResponse(&voucher))
	}
}

// claimVoucher marks the voucher redeemed only if nobody else has. The
// conditional write is what keeps redemption one-shot under concurrent
// requests; the handler's earlier read is just for friendlier errors.
func claimVoucher(tx *gorm.DB, voucherID, reservationID uint, at time.Time) error {
	res := tx.Model(&models.Voucher{}).
		Where("id = ? AND redeemed_at IS NULL", voucherID).
		Updates(map[string]interface{}{
			"redeemed_at":    at,
			"reservation_id": reservationID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusConflict, "Voucher has already been redeemed")
	}
	return nil
}

// claimReservation attaches the voucher to the reservation only if it
// has none yet, same conditional-write shape as claimVoucher.
func claimReservation(tx *gorm.DB, reservationID, voucherID uint) error {
	res := tx.Model(&models.Reservation{}).
		Where("id = ? AND voucher_id IS NULL", reservationID).
		Update("voucher_id", voucherID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusConflict, "Reservation already has a voucher")
	}
	return nil
}

// -------------------------------------------------
// POST /api/vouchers/:code/redeem
// One-shot: sets redeemed_at, writes a voucher payment on the
// reservation and a commission log for the partner.
// -------------------------------------------------
func RedeemVoucherHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Params("code")

		var body RedeemVoucherRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ReservationID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "reservation_id is required")
		}

		var voucher models.Voucher
		if err := database.DB.Preload("Partner").
			First(&voucher, "code = ?", code).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Voucher not found")
		}

		if voucher.RedeemedAt != nil {
			return fiber.NewError(fiber.StatusConflict, "Voucher has already been redeemed")
		}

		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if voucher.ValidUntil.Before(today) {
			return fiber.NewError(fiber.StatusConflict, "Voucher has expired")
		}

		var res models.Reservation
		if err := database.DB.Preload("Persons").
			First(&res, "id = ?", body.ReservationID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reservation not found")
		}
		if res.Status == models.ReservationCancelled {
			return fiber.NewError(fiber.StatusConflict, "Cancelled reservations cannot redeem vouchers")
		}
		if res.VoucherID != nil {
			return fiber.NewError(fiber.StatusConflict, "Reservation already has a voucher")
		}

		base := reservation.PersonsTotal(res.Persons)
		commission := models.CommissionLog{
			PartnerID:     voucher.PartnerID,
			VoucherID:     voucher.ID,
			ReservationID: res.ID,
			BaseAmount:    base,
			Rate:          voucher.Partner.CommissionRate,
			Amount:        base * voucher.Partner.CommissionRate / 100,
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := claimVoucher(tx, voucher.ID, res.ID, now); err != nil {
				return err
			}
			if err := claimReservation(tx, res.ID, voucher.ID); err != nil {
				return err
			}

			payment := models.Payment{
				ReservationID: res.ID,
				Amount:        voucher.Value,
				Currency:      models.CurrencyCZK,
				Method:        models.PaymentVoucher,
				PaidAt:        today,
				Note:          fmt.Sprintf("Voucher %s (%s)", voucher.Code, voucher.Partner.Name),
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}

			return tx.Create(&commission).Error
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not redeem voucher")
		}
		voucher.RedeemedAt = &now
		voucher.ReservationID = &res.ID
		res.VoucherID = &voucher.ID

		if user, err := auth.CurrentUser(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "voucher",
				EntityID:    voucher.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Voucher %s redeemed on reservation %d, commission %.2f CZK", voucher.Code, res.ID, commission.Amount),
				Before:      nil,
				After:       toVoucherResponse(&voucher),
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{
			"voucher":    toVoucherResponse(&voucher),
			"commission": commission.Amount,
		})
	}
}
