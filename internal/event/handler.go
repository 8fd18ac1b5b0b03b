package event

import (
	"fmt"
	"strings"
	"time"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StaffAssignmentRequest struct {
	StaffMemberID uint   `json:"staff_member_id"`
	Role          string `json:"role"`
}

type TableRequest struct {
	Name  string `json:"name"`
	Seats int    `json:"seats"`
}

type GuestRequest struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	TableID *uint  `json:"table_id"`
}

type MenuItemRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type CreateEventRequest struct {
	Title     string                   `json:"title"`
	Type      models.EventType         `json:"type"`
	Date      string                   `json:"date"`
	StartTime string                   `json:"start_time"`
	EndTime   string                   `json:"end_time"`
	Note      string                   `json:"note"`
	Staff     []StaffAssignmentRequest `json:"staff"`
	Tables    []TableRequest           `json:"tables"`
	Guests    []GuestRequest           `json:"guests"`
	MenuItems []MenuItemRequest        `json:"menu_items"`
}

type UpdateEventRequest struct {
	Title     *string                   `json:"title"`
	Type      *models.EventType         `json:"type"`
	Date      *string                   `json:"date"`
	StartTime *string                   `json:"start_time"`
	EndTime   *string                   `json:"end_time"`
	Note      *string                   `json:"note"`
	Status    *models.EventStatus       `json:"status"`
	Staff     *[]StaffAssignmentRequest `json:"staff"`
	Tables    *[]TableRequest           `json:"tables"`
	Guests    *[]GuestRequest           `json:"guests"`
	MenuItems *[]MenuItemRequest        `json:"menu_items"`
}

type StaffAssignmentResponse struct {
	ID            uint   `json:"id"`
	StaffMemberID uint   `json:"staff_member_id"`
	Name          string `json:"name"`
	Role          string `json:"role"`
}

type TableResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Seats int    `json:"seats"`
}

type GuestResponse struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
	TableID *uint  `json:"table_id"`
}

type MenuItemResponse struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type EventResponse struct {
	ID         uint                      `json:"id"`
	Title      string                    `json:"title"`
	Type       models.EventType          `json:"type"`
	Date       string                    `json:"date"`
	StartTime  string                    `json:"start_time"`
	EndTime    string                    `json:"end_time"`
	Note       string                    `json:"note"`
	Status     models.EventStatus        `json:"status"`
	Staff      []StaffAssignmentResponse `json:"staff"`
	Tables     []TableResponse           `json:"tables"`
	Guests     []GuestResponse           `json:"guests"`
	MenuItems  []MenuItemResponse        `json:"menu_items"`
	GuestCount int                       `json:"guest_count"`
	MenuTotal  float64                   `json:"menu_total"`
}

func validEventType(t models.EventType) bool {
	switch t {
	case models.EventShow, models.EventWedding, models.EventPrivate:
		return true
	}
	return false
}

func validEventStatus(s models.EventStatus) bool {
	switch s {
	case models.EventPlanned, models.EventConfirmed, models.EventCancelled, models.EventDone:
		return true
	}
	return false
}

func toResponse(e *models.Event) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		Title:     e.Title,
		Type:      e.Type,
		Date:      e.Date.Format("2006-01-02"),
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Note:      e.Note,
		Status:    e.Status,
		Staff:     make([]StaffAssignmentResponse, 0, len(e.Staff)),
		Tables:    make([]TableResponse, 0, len(e.Tables)),
		Guests:    make([]GuestResponse, 0, len(e.Guests)),
		MenuItems: make([]MenuItemResponse, 0, len(e.MenuItems)),
	}

	for _, s := range e.Staff {
		resp.Staff = append(resp.Staff, StaffAssignmentResponse{
			ID:            s.ID,
			StaffMemberID: s.StaffMemberID,
			Name:          s.StaffMember.Name,
			Role:          s.Role,
		})
	}
	for _, t := range e.Tables {
		resp.Tables = append(resp.Tables, TableResponse{ID: t.ID, Name: t.Name, Seats: t.Seats})
	}
	for _, g := range e.Guests {
		resp.Guests = append(resp.Guests, GuestResponse{ID: g.ID, Name: g.Name, Count: g.Count, TableID: g.TableID})
		resp.GuestCount += g.Count
	}
	for _, m := range e.MenuItems {
		resp.MenuItems = append(resp.MenuItems, MenuItemResponse{ID: m.ID, Name: m.Name, Price: m.Price, Quantity: m.Quantity})
		resp.MenuTotal += m.Price * float64(m.Quantity)
	}

	return resp
}

func buildStaff(reqs []StaffAssignmentRequest) ([]models.EventStaff, error) {
	staff := make([]models.EventStaff, 0, len(reqs))
	for _, sr := range reqs {
		var member models.StaffMember
		if err := database.DB.First(&member, "id = ?", sr.StaffMemberID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Staff member %d not found", sr.StaffMemberID))
		}
		if !member.Active {
			return nil, fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Staff member %s is inactive", member.Name))
		}
		staff = append(staff, models.EventStaff{StaffMemberID: member.ID, Role: sr.Role})
	}
	return staff, nil
}

func buildTables(reqs []TableRequest) ([]models.EventTable, error) {
	tables := make([]models.EventTable, 0, len(reqs))
	for _, tr := range reqs {
		if strings.TrimSpace(tr.Name) == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Table name cannot be empty")
		}
		if tr.Seats <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Table seats must be greater than 0")
		}
		tables = append(tables, models.EventTable{Name: tr.Name, Seats: tr.Seats})
	}
	return tables, nil
}

func buildGuests(reqs []GuestRequest) ([]models.EventGuest, error) {
	guests := make([]models.EventGuest, 0, len(reqs))
	for _, gr := range reqs {
		if strings.TrimSpace(gr.Name) == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Guest name cannot be empty")
		}
		count := gr.Count
		if count == 0 {
			count = 1
		}
		if count < 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Guest count cannot be negative")
		}
		guests = append(guests, models.EventGuest{Name: gr.Name, Count: count, TableID: gr.TableID})
	}
	return guests, nil
}

func buildMenuItems(reqs []MenuItemRequest) ([]models.EventMenuItem, error) {
	items := make([]models.EventMenuItem, 0, len(reqs))
	for _, mr := range reqs {
		if strings.TrimSpace(mr.Name) == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Menu item name cannot be empty")
		}
		if mr.Price < 0 || mr.Quantity < 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Menu item price and quantity cannot be negative")
		}
		items = append(items, models.EventMenuItem{Name: mr.Name, Price: mr.Price, Quantity: mr.Quantity})
	}
	return items, nil
}

// -------------------------------------------------
// POST /api/events
// Header and all sub-records in one transaction.
// -------------------------------------------------
func CreateEventHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEventRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Title = strings.TrimSpace(body.Title)
		if body.Title == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Event title cannot be empty")
		}
		if !validEventType(body.Type) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid event type (show|wedding|private)")
		}

		date, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid date, expected 'YYYY-MM-DD'")
		}

		staff, err := buildStaff(body.Staff)
		if err != nil {
			return err
		}
		tables, err := buildTables(body.Tables)
		if err != nil {
			return err
		}
		guests, err := buildGuests(body.Guests)
		if err != nil {
			return err
		}
		menuItems, err := buildMenuItems(body.MenuItems)
		if err != nil {
			return err
		}

		ev := models.Event{
			Title:     body.Title,
			Type:      body.Type,
			Date:      date,
			StartTime: body.StartTime,
			EndTime:   body.EndTime,
			Note:      body.Note,
			Status:    models.EventPlanned,
			Staff:     staff,
			Tables:    tables,
			Guests:    guests,
			MenuItems: menuItems,
		}

		if err := database.DB.Create(&ev).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create event")
		}

		if err := database.DB.Preload("Staff.StaffMember").Preload("Tables").
			Preload("Guests").Preload("MenuItems").First(&ev, ev.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load event")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&ev))
	}
}

// GET /api/events?from=2026-06-01&to=2026-06-30&type=wedding&status=confirmed
func ListEventsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Event{}).
			Preload("Staff.StaffMember").Preload("Tables").
			Preload("Guests").Preload("MenuItems")

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
		if t := c.Query("type"); t != "" {
			dbq = dbq.Where("type = ?", t)
		}
		if s := c.Query("status"); s != "" {
			dbq = dbq.Where("status = ?", s)
		}

		var events []models.Event
		if err := dbq.Order("date asc, id asc").Find(&events).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list events")
		}

		resp := make([]EventResponse, 0, len(events))
		for i := range events {
			resp = append(resp, toResponse(&events[i]))
		}
		return c.JSON(resp)
	}
}

func GetEventHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var ev models.Event
		if err := database.DB.Preload("Staff.StaffMember").Preload("Tables").
			Preload("Guests").Preload("MenuItems").
			First(&ev, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Event not found")
		}

		return c.JSON(toResponse(&ev))
	}
}

// -------------------------------------------------
// PUT /api/events/:id
// Present sub-record lists replace existing ones entirely.
// -------------------------------------------------
func UpdateEventHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var ev models.Event
		if err := database.DB.First(&ev, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Event not found")
		}

		var body UpdateEventRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Title != nil {
			title := strings.TrimSpace(*body.Title)
			if title == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Event title cannot be empty")
			}
			ev.Title = title
		}
		if body.Type != nil {
			if !validEventType(*body.Type) {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid event type (show|wedding|private)")
			}
			ev.Type = *body.Type
		}
		if body.Date != nil {
			date, err := time.Parse("2006-01-02", *body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid date, expected 'YYYY-MM-DD'")
			}
			ev.Date = date
		}
		if body.StartTime != nil {
			ev.StartTime = *body.StartTime
		}
		if body.EndTime != nil {
			ev.EndTime = *body.EndTime
		}
		if body.Note != nil {
			ev.Note = *body.Note
		}
		if body.Status != nil {
			if !validEventStatus(*body.Status) {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid status (planned|confirmed|cancelled|done)")
			}
			ev.Status = *body.Status
		}

		var newStaff []models.EventStaff
		if body.Staff != nil {
			built, err := buildStaff(*body.Staff)
			if err != nil {
				return err
			}
			newStaff = built
		}
		var newTables []models.EventTable
		if body.Tables != nil {
			built, err := buildTables(*body.Tables)
			if err != nil {
				return err
			}
			newTables = built
		}
		var newGuests []models.EventGuest
		if body.Guests != nil {
			built, err := buildGuests(*body.Guests)
			if err != nil {
				return err
			}
			newGuests = built
		}
		var newMenuItems []models.EventMenuItem
		if body.MenuItems != nil {
			built, err := buildMenuItems(*body.MenuItems)
			if err != nil {
				return err
			}
			newMenuItems = built
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if newStaff != nil {
				if err := tx.Where("event_id = ?", ev.ID).Delete(&models.EventStaff{}).Error; err != nil {
					return err
				}
				for i := range newStaff {
					newStaff[i].EventID = ev.ID
				}
				if len(newStaff) > 0 {
					if err := tx.Create(&newStaff).Error; err != nil {
						return err
					}
				}
			}
			if newTables != nil {
				if err := tx.Where("event_id = ?", ev.ID).Delete(&models.EventTable{}).Error; err != nil {
					return err
				}
				for i := range newTables {
					newTables[i].EventID = ev.ID
				}
				if len(newTables) > 0 {
					if err := tx.Create(&newTables).Error; err != nil {
						return err
					}
				}
			}
			if newGuests != nil {
				if err := tx.Where("event_id = ?", ev.ID).Delete(&models.EventGuest{}).Error; err != nil {
					return err
				}
				for i := range newGuests {
					newGuests[i].EventID = ev.ID
				}
				if len(newGuests) > 0 {
					if err := tx.Create(&newGuests).Error; err != nil {
						return err
					}
				}
			}
			if newMenuItems != nil {
				if err := tx.Where("event_id = ?", ev.ID).Delete(&models.EventMenuItem{}).Error; err != nil {
					return err
				}
				for i := range newMenuItems {
					newMenuItems[i].EventID = ev.ID
				}
				if len(newMenuItems) > 0 {
					if err := tx.Create(&newMenuItems).Error; err != nil {
						return err
					}
				}
			}
			return tx.Omit("Staff", "Tables", "Guests", "MenuItems").Save(&ev).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update event")
		}

		if err := database.DB.Preload("Staff.StaffMember").Preload("Tables").
			Preload("Guests").Preload("MenuItems").First(&ev, ev.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load event")
		}

		return c.JSON(toResponse(&ev))
	}
}

func DeleteEventHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var ev models.Event
		if err := database.DB.First(&ev, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Event not found")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("event_id = ?", ev.ID).Delete(&models.EventStaff{}).Error; err != nil {
				return err
			}
			if err := tx.Where("event_id = ?", ev.ID).Delete(&models.EventTable{}).Error; err != nil {
				return err
			}
			if err := tx.Where("event_id = ?", ev.ID).Delete(&models.EventGuest{}).Error; err != nil {
				return err
			}
			if err := tx.Where("event_id = ?", ev.ID).Delete(&models.EventMenuItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&ev).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete event")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
