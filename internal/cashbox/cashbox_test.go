package cashbox

import (
	"bytes"
	"encoding/json"
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

func newCashboxApp() *fiber.App {
	app := fiber.New()
	app.Post("/cashbox-entries", CreateEntryHandler())
	app.Get("/cashbox-entries", ListEntriesHandler())
	app.Get("/cashbox-entries/summary/monthly", MonthlySummaryHandler())
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func strPtr(s string) *string { return &s }

func TestCreateEntryValidatesDirectionAndCurrency(t *testing.T) {
	setupTestDB(t)
	app := newCashboxApp()

	resp := postJSON(t, app, "/cashbox-entries", CreateEntryRequest{
		Direction: "sideways",
		Currency:  models.CurrencyCZK,
		Amount:    100,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, app, "/cashbox-entries", CreateEntryRequest{
		Direction: models.CashboxIncome,
		Currency:  "USD",
		Amount:    100,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateEntryCategoryKindMustMatchDirection(t *testing.T) {
	setupTestDB(t)
	app := newCashboxApp()

	category := models.CashboxCategory{Name: "Souvenirs", Kind: models.CashboxIncome}
	require.NoError(t, database.DB.Create(&category).Error)

	resp := postJSON(t, app, "/cashbox-entries", CreateEntryRequest{
		CategoryID: &category.ID,
		Direction:  models.CashboxExpense,
		Currency:   models.CurrencyCZK,
		Amount:     100,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, app, "/cashbox-entries", CreateEntryRequest{
		CategoryID: &category.ID,
		Direction:  models.CashboxIncome,
		Currency:   models.CurrencyCZK,
		Amount:     100,
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestMonthlySummaryGroupsByCurrencyAndDirection(t *testing.T) {
	setupTestDB(t)
	app := newCashboxApp()

	souvenirs := models.CashboxCategory{Name: "Souvenirs", Kind: models.CashboxIncome}
	supplies := models.CashboxCategory{Name: "Supplies", Kind: models.CashboxExpense}
	require.NoError(t, database.DB.Create(&souvenirs).Error)
	require.NoError(t, database.DB.Create(&supplies).Error)

	for _, body := range []CreateEntryRequest{
		{Date: strPtr("2026-06-05"), CategoryID: &souvenirs.ID, Direction: models.CashboxIncome, Currency: models.CurrencyCZK, Amount: 1200},
		{Date: strPtr("2026-06-18"), CategoryID: &souvenirs.ID, Direction: models.CashboxIncome, Currency: models.CurrencyCZK, Amount: 800},
		{Date: strPtr("2026-06-20"), CategoryID: &supplies.ID, Direction: models.CashboxExpense, Currency: models.CurrencyCZK, Amount: 500},
		{Date: strPtr("2026-06-21"), Direction: models.CashboxIncome, Currency: models.CurrencyEUR, Amount: 40},
		// outside the requested month
		{Date: strPtr("2026-07-01"), CategoryID: &souvenirs.ID, Direction: models.CashboxIncome, Currency: models.CurrencyCZK, Amount: 9999},
	} {
		resp := postJSON(t, app, "/cashbox-entries", body)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/cashbox-entries/summary/monthly?year=2026&month=6", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out MonthlySummaryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 2026, out.Year)
	assert.Equal(t, 6, out.Month)
	require.Len(t, out.Currencies, 2)

	byCurrency := make(map[models.Currency]MonthlyCurrencySummary)
	for _, s := range out.Currencies {
		byCurrency[s.Currency] = s
	}

	czk := byCurrency[models.CurrencyCZK]
	assert.Equal(t, 2000.0, czk.Income)
	assert.Equal(t, 500.0, czk.Expense)
	assert.Equal(t, 1500.0, czk.Net)

	eur := byCurrency[models.CurrencyEUR]
	assert.Equal(t, 40.0, eur.Income)
	assert.Equal(t, 0.0, eur.Expense)
	assert.Equal(t, 40.0, eur.Net)
}

func TestListEntriesFilters(t *testing.T) {
	setupTestDB(t)
	app := newCashboxApp()

	for _, body := range []CreateEntryRequest{
		{Date: strPtr("2026-06-05"), Direction: models.CashboxIncome, Currency: models.CurrencyCZK, Amount: 100},
		{Date: strPtr("2026-06-10"), Direction: models.CashboxExpense, Currency: models.CurrencyCZK, Amount: 200},
		{Date: strPtr("2026-06-15"), Direction: models.CashboxIncome, Currency: models.CurrencyEUR, Amount: 30},
	} {
		resp := postJSON(t, app, "/cashbox-entries", body)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/cashbox-entries?currency=CZK&direction=income", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var entries []EntryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 100.0, entries[0].Amount)
}
