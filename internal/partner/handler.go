package partner

import (
	"strings"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type PartnerResponse struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Contact        string  `json:"contact"`
	CommissionRate float64 `json:"commission_rate"`
	Active         bool    `json:"active"`
	CreatedAt      string  `json:"created_at"`
}

type CreatePartnerRequest struct {
	Name           string  `json:"name"`
	Contact        string  `json:"contact"`
	CommissionRate float64 `json:"commission_rate"`
}

type UpdatePartnerRequest struct {
	Name           *string  `json:"name"`
	Contact        *string  `json:"contact"`
	CommissionRate *float64 `json:"commission_rate"`
	Active         *bool    `json:"active"`
}

func toPartnerResponse(p *models.Partner) PartnerResponse {
	return PartnerResponse{
		ID:             p.ID,
		Name:           p.Name,
		Contact:        p.Contact,
		CommissionRate: p.CommissionRate,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// PARTNER CRUD
// ----------------------------------------

func CreatePartnerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePartnerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Partner name cannot be empty")
		}
		if body.CommissionRate < 0 || body.CommissionRate > 100 {
			return fiber.NewError(fiber.StatusBadRequest, "Commission rate must be between 0 and 100")
		}

		partner := models.Partner{
			Name:           body.Name,
			Contact:        body.Contact,
			CommissionRate: body.CommissionRate,
			Active:         true,
		}

		if err := database.DB.Create(&partner).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create partner")
		}

		return c.Status(fiber.StatusCreated).JSON(toPartnerResponse(&partner))
	}
}

func ListPartnersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Partner{})

		if c.Query("active") == "true" {
			dbq = dbq.Where("active = ?", true)
		}

		var partners []models.Partner
		if err := dbq.Order("name asc").Find(&partners).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list partners")
		}

		res := make([]PartnerResponse, 0, len(partners))
		for i := range partners {
			res = append(res, toPartnerResponse(&partners[i]))
		}
		return c.JSON(res)
	}
}

func GetPartnerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var partner models.Partner
		if err := database.DB.First(&partner, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Partner not found")
		}

		return c.JSON(toPartnerResponse(&partner))
	}
}

func UpdatePartnerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var partner models.Partner
		if err := database.DB.First(&partner, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Partner not found")
		}

		var body UpdatePartnerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Partner name cannot be empty")
			}
			partner.Name = name
		}
		if body.Contact != nil {
			partner.Contact = *body.Contact
		}
		if body.CommissionRate != nil {
			// Rate changes only affect future redemptions, commission
			// logs carry their own frozen rate.
			if *body.CommissionRate < 0 || *body.CommissionRate > 100 {
				return fiber.NewError(fiber.StatusBadRequest, "Commission rate must be between 0 and 100")
			}
			partner.CommissionRate = *body.CommissionRate
		}
		if body.Active != nil {
			partner.Active = *body.Active
		}

		if err := database.DB.Save(&partner).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update partner")
		}

		return c.JSON(toPartnerResponse(&partner))
	}
}

func DeletePartnerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var count int64
		database.DB.Model(&models.Voucher{}).Where("partner_id = ?", id).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Partner has vouchers, deactivate it instead")
		}

		if err := database.DB.Delete(&models.Partner{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete partner")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
