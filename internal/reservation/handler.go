package reservation

import (
	"errors"
	"fmt"
	"time"

	"folklore-backend/internal/audit"
	"folklore-backend/internal/auth"
	"folklore-backend/internal/database"
	"folklore-backend/internal/models"
	"folklore-backend/internal/pricing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PersonRequest struct {
	Type     models.PersonType `json:"type"`
	MenuCode string            `json:"menu_code"`
	// Optional explicit price; when nil the price list for the visit
	// date is used.
	Price *float64 `json:"price"`
}

type CreateReservationRequest struct {
	Date         string          `json:"date"` // "2026-06-15"
	TimeSlot     string          `json:"time_slot"`
	CustomerName string          `json:"customer_name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Note         string          `json:"note"`
	Persons      []PersonRequest `json:"persons"`
}

type UpdateReservationRequest struct {
	Date         *string          `json:"date"`
	TimeSlot     *string          `json:"time_slot"`
	CustomerName *string          `json:"customer_name"`
	Email        *string          `json:"email"`
	Phone        *string          `json:"phone"`
	Note         *string          `json:"note"`
	Persons      *[]PersonRequest `json:"persons"` // replaces all person lines
}

type ChangeStatusRequest struct {
	Status models.ReservationStatus `json:"status"`
}

type PersonResponse struct {
	ID       uint              `json:"id"`
	Type     models.PersonType `json:"type"`
	MenuCode string            `json:"menu_code"`
	Price    float64           `json:"price"`
}

type PaymentResponse struct {
	ID       uint                 `json:"id"`
	Amount   float64              `json:"amount"`
	Currency models.Currency      `json:"currency"`
	Method   models.PaymentMethod `json:"method"`
	PaidAt   string               `json:"paid_at"`
	Note     string               `json:"note"`
}

type ReservationResponse struct {
	ID           uint                     `json:"id"`
	Date         string                   `json:"date"`
	TimeSlot     string                   `json:"time_slot"`
	CustomerName string                   `json:"customer_name"`
	Email        string                   `json:"email"`
	Phone        string                   `json:"phone"`
	Note         string                   `json:"note"`
	Status       models.ReservationStatus `json:"status"`
	VoucherID    *uint                    `json:"voucher_id"`
	Persons      []PersonResponse         `json:"persons"`
	Payments     []PaymentResponse        `json:"payments"`
	PersonsTotal float64                  `json:"persons_total"`
	PaidCZK      float64                  `json:"paid_czk"`
	PaidEUR      float64                  `json:"paid_eur"`
	BalanceCZK   float64                  `json:"balance_czk"`
	CreatedAt    string                   `json:"created_at"`
}

func validPersonType(t models.PersonType) bool {
	switch t {
	case models.PersonAdult, models.PersonChild, models.PersonInfant:
		return true
	}
	return false
}

// PersonsTotal sums the frozen per-person prices of a reservation.
func PersonsTotal(persons []models.ReservationPerson) float64 {
	var total float64
	for _, p := range persons {
		total += p.Price
	}
	return total
}

func toResponse(r *models.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:           r.ID,
		Date:         r.Date.Format("2006-01-02"),
		TimeSlot:     r.TimeSlot,
		CustomerName: r.CustomerName,
		Email:        r.Email,
		Phone:        r.Phone,
		Note:         r.Note,
		Status:       r.Status,
		VoucherID:    r.VoucherID,
		Persons:      make([]PersonResponse, 0, len(r.Persons)),
		Payments:     make([]PaymentResponse, 0, len(r.Payments)),
		CreatedAt:    r.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	for _, p := range r.Persons {
		resp.Persons = append(resp.Persons, PersonResponse{
			ID:       p.ID,
			Type:     p.Type,
			MenuCode: p.MenuCode,
			Price:    p.Price,
		})
		resp.PersonsTotal += p.Price
	}

	for _, pay := range r.Payments {
		resp.Payments = append(resp.Payments, PaymentResponse{
			ID:       pay.ID,
			Amount:   pay.Amount,
			Currency: pay.Currency,
			Method:   pay.Method,
			PaidAt:   pay.PaidAt.Format("2006-01-02"),
			Note:     pay.Note,
		})
		switch pay.Currency {
		case models.CurrencyEUR:
			resp.PaidEUR += pay.Amount
		default:
			resp.PaidCZK += pay.Amount
		}
	}

	// EUR payments are shown but not netted, there is no exchange rate
	// in the system.
	resp.BalanceCZK = resp.PersonsTotal - resp.PaidCZK

	return resp
}

func buildPersons(date time.Time, reqs []PersonRequest) ([]models.ReservationPerson, error) {
	persons := make([]models.ReservationPerson, 0, len(reqs))
	for _, pr := range reqs {
		if !validPersonType(pr.Type) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid person type (adult|child|infant)")
		}
		if pr.MenuCode == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "menu_code is required for every person")
		}

		var price float64
		if pr.Price != nil {
			if *pr.Price < 0 {
				return nil, fiber.NewError(fiber.StatusBadRequest, "Person price cannot be negative")
			}
			price = *pr.Price
		} else {
			resolved, err := pricing.Resolve(date, pr.Type, pr.MenuCode)
			if err != nil {
				if errors.Is(err, pricing.ErrNoPrice) {
					return nil, fiber.NewError(fiber.StatusNotFound,
						fmt.Sprintf("No price configured for %s/%s", pr.Type, pr.MenuCode))
				}
				return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not resolve price")
			}
			price = resolved
		}

		persons = append(persons, models.ReservationPerson{
			Type:     pr.Type,
			MenuCode: pr.MenuCode,
			Price:    price,
		})
	}
	return persons, nil
}

// -------------------------------------------------
// POST /api/reservations
// -------------------------------------------------
func CreateReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateReservationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.CustomerName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "customer_name is required")
		}
		if len(body.Persons) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "At least one person is required")
		}

		date, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid date, expected 'YYYY-MM-DD'")
		}

		persons, err := buildPersons(date, body.Persons)
		if err != nil {
			return err
		}

		res := models.Reservation{
			Date:         date,
			TimeSlot:     body.TimeSlot,
			CustomerName: body.CustomerName,
			Email:        body.Email,
			Phone:        body.Phone,
			Note:         body.Note,
			Status:       models.ReservationCreated,
			Persons:      persons,
		}

		if err := database.DB.Create(&res).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create reservation")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "reservation",
				EntityID:    res.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Reservation created: %s, %s, %d persons", res.CustomerName, body.Date, len(res.Persons)),
				Before:      nil,
				After:       toResponse(&res),
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&res))
	}
}

// -------------------------------------------------
// GET /api/reservations?from=2026-06-01&to=2026-06-30&status=confirmed
// -------------------------------------------------
func ListReservationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Reservation{})

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
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var reservations []models.Reservation
		if err := dbq.Preload("Persons").Preload("Payments").
			Order("date asc, id asc").Find(&reservations).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list reservations")
		}

		resp := make([]ReservationResponse, 0, len(reservations))
		for i := range reservations {
			resp = append(resp, toResponse(&reservations[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/reservations/:id
func GetReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var res models.Reservation
		if err := database.DB.Preload("Persons").Preload("Payments").
			First(&res, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reservation not found")
		}

		return c.JSON(toResponse(&res))
	}
}

// -------------------------------------------------
// PUT /api/reservations/:id
// -------------------------------------------------
func UpdateReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var res models.Reservation
		if err := database.DB.Preload("Persons").Preload("Payments").
			First(&res, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reservation not found")
		}

		if res.Status == models.ReservationCompleted || res.Status == models.ReservationCancelled {
			return fiber.NewError(fiber.StatusConflict, "Completed or cancelled reservations cannot be edited")
		}

		var body UpdateReservationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		before := toResponse(&res)

		if body.Date != nil {
			date, err := time.Parse("2006-01-02", *body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid date, expected 'YYYY-MM-DD'")
			}
			res.Date = date
		}
		if body.TimeSlot != nil {
			res.TimeSlot = *body.TimeSlot
		}
		if body.CustomerName != nil {
			if *body.CustomerName == "" {
				return fiber.NewError(fiber.StatusBadRequest, "customer_name cannot be empty")
			}
			res.CustomerName = *body.CustomerName
		}
		if body.Email != nil {
			res.Email = *body.Email
		}
		if body.Phone != nil {
			res.Phone = *body.Phone
		}
		if body.Note != nil {
			res.Note = *body.Note
		}

		var newPersons []models.ReservationPerson
		if body.Persons != nil {
			if len(*body.Persons) == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "At least one person is required")
			}
			built, err := buildPersons(res.Date, *body.Persons)
			if err != nil {
				return err
			}
			newPersons = built
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if newPersons != nil {
				if err := tx.Where("reservation_id = ?", res.ID).
					Delete(&models.ReservationPerson{}).Error; err != nil {
					return err
				}
				for i := range newPersons {
					newPersons[i].ReservationID = res.ID
				}
				if err := tx.Create(&newPersons).Error; err != nil {
					return err
				}
				res.Persons = newPersons
			}
			return tx.Omit("Persons", "Payments").Save(&res).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update reservation")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "reservation",
				EntityID:    res.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Reservation updated: %s", res.CustomerName),
				Before:      before,
				After:       toResponse(&res),
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.JSON(toResponse(&res))
	}
}

// allowed transitions of the reservation state machine
func transitionAllowed(from, to models.ReservationStatus) bool {
	switch from {
	case models.ReservationCreated:
		return to == models.ReservationConfirmed || to == models.ReservationCancelled
	case models.ReservationConfirmed:
		return to == models.ReservationCompleted || to == models.ReservationCancelled
	}
	return false
}

// -------------------------------------------------
// PUT /api/reservations/:id/status
// -------------------------------------------------
func ChangeStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var res models.Reservation
		if err := database.DB.First(&res, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reservation not found")
		}

		var body ChangeStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if !transitionAllowed(res.Status, body.Status) {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Cannot change status from %s to %s", res.Status, body.Status))
		}

		oldStatus := res.Status
		res.Status = body.Status
		if err := database.DB.Save(&res).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not change status")
		}

		if user, err := auth.CurrentUser(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "reservation",
				EntityID:    res.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Reservation %d: %s -> %s", res.ID, oldStatus, body.Status),
				Before:      fiber.Map{"status": oldStatus},
				After:       fiber.Map{"status": body.Status},
			}); logErr != nil {
				fmt.Printf("Could not write audit log: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{
			"id":     res.ID,
			"status": res.Status,
		})
	}
}

// -------------------------------------------------
// DELETE /api/reservations/:id
// Only reservations that were never confirmed and have no payments.
// -------------------------------------------------
func DeleteReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var res models.Reservation
		if err := database.DB.Preload("Payments").First(&res, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reservation not found")
		}

		if res.Status != models.ReservationCreated {
			return fiber.NewError(fiber.StatusConflict, "Only reservations in 'created' state can be deleted")
		}
		if len(res.Payments) > 0 {
			return fiber.NewError(fiber.StatusConflict, "Reservations with payments cannot be deleted")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("reservation_id = ?", res.ID).
				Delete(&models.ReservationPerson{}).Error; err != nil {
				return err
			}
			return tx.Delete(&res).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete reservation")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
