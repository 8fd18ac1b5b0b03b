package reports

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

func newReportsApp() *fiber.App {
	app := fiber.New()
	app.Get("/reports/monthly", MonthlyReportHandler())
	app.Get("/reports/monthly/export", MonthlyReportExportHandler())
	return app
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func seedJune(t *testing.T) {
	t.Helper()

	require.NoError(t, database.DB.Create(&models.Reservation{
		Date: day(2026, 6, 10), CustomerName: "Novak", Status: models.ReservationCompleted,
		Persons: []models.ReservationPerson{
			{Type: models.PersonAdult, MenuCode: "standard", Price: 650},
			{Type: models.PersonChild, MenuCode: "standard", Price: 325},
		},
		Payments: []models.Payment{
			{Amount: 975, Currency: models.CurrencyCZK, Method: models.PaymentCard, PaidAt: day(2026, 6, 10)},
		},
	}).Error)

	// cancelled: excluded from persons revenue
	require.NoError(t, database.DB.Create(&models.Reservation{
		Date: day(2026, 6, 12), CustomerName: "Svoboda", Status: models.ReservationCancelled,
		Persons: []models.ReservationPerson{
			{Type: models.PersonAdult, MenuCode: "standard", Price: 650},
		},
	}).Error)

	// outside the month
	require.NoError(t, database.DB.Create(&models.Reservation{
		Date: day(2026, 7, 1), CustomerName: "Cerny", Status: models.ReservationConfirmed,
		Persons: []models.ReservationPerson{
			{Type: models.PersonAdult, MenuCode: "standard", Price: 650},
		},
	}).Error)

	require.NoError(t, database.DB.Create(&models.CashboxEntry{
		Date: day(2026, 6, 5), Direction: models.CashboxIncome, Currency: models.CurrencyCZK, Amount: 1200,
	}).Error)
	require.NoError(t, database.DB.Create(&models.CashboxEntry{
		Date: day(2026, 6, 6), Direction: models.CashboxExpense, Currency: models.CurrencyCZK, Amount: 300,
	}).Error)

	require.NoError(t, database.DB.Create(&models.CommissionPayout{
		PartnerID: 1, Date: day(2026, 6, 20), Amount: 50,
	}).Error)
}

func TestMonthlyReportAggregates(t *testing.T) {
	setupTestDB(t)
	seedJune(t)
	app := newReportsApp()

	req := httptest.NewRequest(http.MethodGet, "/reports/monthly?year=2026&month=6", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out MonthlyReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 2026, out.Year)
	assert.Equal(t, 6, out.Month)
	assert.Equal(t, 1, out.ReservationCount)
	assert.Equal(t, 2, out.PersonCount)
	assert.Equal(t, 975.0, out.PersonsRevenue)
	assert.Equal(t, 975.0, out.PaymentsCZK)
	assert.Equal(t, 1200.0, out.CashboxIncomeCZK)
	assert.Equal(t, 300.0, out.CashboxExpenseCZK)
	assert.Equal(t, 50.0, out.CommissionsPaidOut)
}

func TestMonthlyReportRequiresYearAndMonth(t *testing.T) {
	setupTestDB(t)
	app := newReportsApp()

	req := httptest.NewRequest(http.MethodGet, "/reports/monthly?year=2026", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMonthlyReportExportProducesWorkbook(t *testing.T) {
	setupTestDB(t)
	seedJune(t)
	app := newReportsApp()

	req := httptest.NewRequest(http.MethodGet, "/reports/monthly/export?year=2026&month=6", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "monthly-report-2026-06.xlsx")
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get(fiber.HeaderContentType))
}
