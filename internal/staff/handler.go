package staff

import (
	"strings"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type StaffMemberResponse struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Position   string  `json:"position"`
	Phone      string  `json:"phone"`
	Email      string  `json:"email"`
	HourlyRate float64 `json:"hourly_rate"`
	Active     bool    `json:"active"`
	CreatedAt  string  `json:"created_at"`
}

type CreateStaffMemberRequest struct {
	Name       string  `json:"name"`
	Position   string  `json:"position"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	HourlyRate float64 `json:"hourly_rate"`
}

type UpdateStaffMemberRequest struct {
	Name       *string  `json:"name"`
	Position   *string  `json:"position"`
	Phone      *string  `json:"phone"`
	Email      *string  `json:"email"`
	HourlyRate *float64 `json:"hourly_rate"`
	Active     *bool    `json:"active"`
}

type CreateStaffAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func toResponse(m *models.StaffMember) StaffMemberResponse {
	return StaffMemberResponse{
		ID:         m.ID,
		Name:       m.Name,
		Position:   m.Position,
		Phone:      m.Phone,
		Email:      m.Email,
		HourlyRate: m.HourlyRate,
		Active:     m.Active,
		CreatedAt:  m.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// STAFF CRUD
// ----------------------------------------

func CreateStaffMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStaffMemberRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Staff name cannot be empty")
		}
		if body.HourlyRate < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Hourly rate cannot be negative")
		}

		member := models.StaffMember{
			Name:       body.Name,
			Position:   body.Position,
			HourlyRate: body.HourlyRate,
			Active:     true,
		}
		if body.Phone != nil {
			member.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			member.Email = strings.TrimSpace(strings.ToLower(*body.Email))
		}

		if err := database.DB.Create(&member).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create staff member")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&member))
	}
}

func ListStaffMembersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.StaffMember{})

		if c.Query("active") == "true" {
			dbq = dbq.Where("active = ?", true)
		}

		var members []models.StaffMember
		if err := dbq.Order("name asc").Find(&members).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list staff")
		}

		res := make([]StaffMemberResponse, 0, len(members))
		for i := range members {
			res = append(res, toResponse(&members[i]))
		}
		return c.JSON(res)
	}
}

func GetStaffMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var member models.StaffMember
		if err := database.DB.First(&member, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Staff member not found")
		}

		return c.JSON(toResponse(&member))
	}
}

func UpdateStaffMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var member models.StaffMember
		if err := database.DB.First(&member, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Staff member not found")
		}

		var body UpdateStaffMemberRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Staff name cannot be empty")
			}
			member.Name = name
		}
		if body.Position != nil {
			member.Position = *body.Position
		}
		if body.Phone != nil {
			member.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			member.Email = strings.TrimSpace(strings.ToLower(*body.Email))
		}
		if body.HourlyRate != nil {
			if *body.HourlyRate < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Hourly rate cannot be negative")
			}
			member.HourlyRate = *body.HourlyRate
		}
		if body.Active != nil {
			member.Active = *body.Active
		}

		if err := database.DB.Save(&member).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update staff member")
		}

		return c.JSON(toResponse(&member))
	}
}

// DELETE /api/admin/staff/:id
// Members assigned to events are deactivated instead of deleted.
func DeleteStaffMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var member models.StaffMember
		if err := database.DB.First(&member, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Staff member not found")
		}

		var assignments int64
		database.DB.Model(&models.EventStaff{}).Where("staff_member_id = ?", member.ID).Count(&assignments)
		if assignments > 0 {
			member.Active = false
			if err := database.DB.Save(&member).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate staff member")
			}
			return c.JSON(fiber.Map{
				"id":          member.ID,
				"deactivated": true,
			})
		}

		if err := database.DB.Delete(&member).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete staff member")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// POST /api/admin/staff/:id/account
// Creates a staff-role login tied to the member.
// ----------------------------------------

func CreateStaffAccountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID := c.Params("id")

		var member models.StaffMember
		if err := database.DB.First(&member, "id = ?", memberID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Staff member not found")
		}

		var body CreateStaffAccountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		if body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Email and password are required")
		}

		var exist models.User
		if err := database.DB.Where("email = ?", body.Email).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "This email is already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{
			StaffMemberID: &member.ID,
			Name:          member.Name,
			Email:         body.Email,
			PasswordHash:  string(hash),
			Role:          models.RoleStaff,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create account")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":              user.ID,
			"staff_member_id": member.ID,
			"email":           user.Email,
			"role":            user.Role,
		})
	}
}

// GET /api/admin/staff/:id/accounts
func ListStaffAccountsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID := c.Params("id")

		var users []models.User
		if err := database.DB.
			Where("staff_member_id = ? AND role = ?", memberID, models.RoleStaff).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list accounts")
		}

		res := make([]fiber.Map, 0, len(users))
		for _, u := range users {
			res = append(res, fiber.Map{
				"id":         u.ID,
				"email":      u.Email,
				"role":       u.Role,
				"created_at": u.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}
