package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
}

func newEventApp() *fiber.App {
	app := fiber.New()
	app.Post("/events", CreateEventHandler())
	app.Get("/events/:id", GetEventHandler())
	app.Put("/events/:id", UpdateEventHandler())
	app.Delete("/events/:id", DeleteEventHandler())
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func createStaffMember(t *testing.T, name string, active bool) *models.StaffMember {
	t.Helper()
	m := models.StaffMember{Name: name, Position: "waiter", Active: true}
	require.NoError(t, database.DB.Create(&m).Error)
	if !active {
		require.NoError(t, database.DB.Model(&m).Update("active", false).Error)
		m.Active = false
	}
	return &m
}

func TestCreateEventComputesGuestCountAndMenuTotal(t *testing.T) {
	setupTestDB(t)
	app := newEventApp()
	waiter := createStaffMember(t, "Petr", true)

	resp := doJSON(t, app, http.MethodPost, "/events", CreateEventRequest{
		Title:     "Wedding Dvorak",
		Type:      models.EventWedding,
		Date:      "2026-09-19",
		StartTime: "14:00",
		EndTime:   "23:00",
		Staff:     []StaffAssignmentRequest{{StaffMemberID: waiter.ID, Role: "service"}},
		Tables:    []TableRequest{{Name: "Main", Seats: 12}},
		Guests: []GuestRequest{
			{Name: "Dvorak family", Count: 8},
			{Name: "Novak family", Count: 6},
		},
		MenuItems: []MenuItemRequest{
			{Name: "Svickova", Price: 320, Quantity: 14},
			{Name: "Wedding cake", Price: 3500, Quantity: 1},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out EventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, models.EventPlanned, out.Status)
	assert.Equal(t, 14, out.GuestCount)
	assert.Equal(t, 320.0*14+3500, out.MenuTotal)
	require.Len(t, out.Staff, 1)
	assert.Equal(t, "Petr", out.Staff[0].Name)
}

func TestCreateEventRejectsInactiveStaff(t *testing.T) {
	setupTestDB(t)
	app := newEventApp()
	former := createStaffMember(t, "Jana", false)

	resp := doJSON(t, app, http.MethodPost, "/events", CreateEventRequest{
		Title: "Show",
		Type:  models.EventShow,
		Date:  "2026-09-19",
		Staff: []StaffAssignmentRequest{{StaffMemberID: former.ID, Role: "dancer"}},
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestUpdateEventReplacesGuestList(t *testing.T) {
	setupTestDB(t)
	app := newEventApp()

	resp := doJSON(t, app, http.MethodPost, "/events", CreateEventRequest{
		Title:  "Private dinner",
		Type:   models.EventPrivate,
		Date:   "2026-10-02",
		Guests: []GuestRequest{{Name: "Svoboda", Count: 4}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created EventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	guests := []GuestRequest{
		{Name: "Svoboda", Count: 4},
		{Name: "Cerny", Count: 2},
	}
	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/events/%d", created.ID), UpdateEventRequest{
		Guests: &guests,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated EventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, 6, updated.GuestCount)
	require.Len(t, updated.Guests, 2)

	var count int64
	require.NoError(t, database.DB.Model(&models.EventGuest{}).
		Where("event_id = ?", created.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestDeleteEventRemovesSubRecords(t *testing.T) {
	setupTestDB(t)
	app := newEventApp()

	resp := doJSON(t, app, http.MethodPost, "/events", CreateEventRequest{
		Title:     "Show",
		Type:      models.EventShow,
		Date:      "2026-09-19",
		Tables:    []TableRequest{{Name: "A", Seats: 4}},
		Guests:    []GuestRequest{{Name: "Tour group", Count: 20}},
		MenuItems: []MenuItemRequest{{Name: "Set menu", Price: 650, Quantity: 20}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created EventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/events/%d", created.ID), nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	for _, model := range []any{&models.EventTable{}, &models.EventGuest{}, &models.EventMenuItem{}} {
		var count int64
		require.NoError(t, database.DB.Model(model).Where("event_id = ?", created.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	}
}
