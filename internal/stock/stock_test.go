package stock

import (
	"bytes"
	"encoding/json"
	"fmt"
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

func newStockApp() *fiber.App {
	app := fiber.New()
	app.Post("/stock-movements", CreateMovementHandler())
	app.Get("/stock-movements", ListMovementsHandler())
	app.Post("/recipes/:id/consume", ConsumeRecipeHandler())
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

func createItem(t *testing.T, name string, quantity float64) *models.StockItem {
	t.Helper()
	item := models.StockItem{Name: name, Unit: "kg", Quantity: quantity, Active: true}
	require.NoError(t, database.DB.Create(&item).Error)
	return &item
}

func reloadItem(t *testing.T, id uint) *models.StockItem {
	t.Helper()
	var item models.StockItem
	require.NoError(t, database.DB.First(&item, "id = ?", id).Error)
	return &item
}

func TestMovementInAddsToQuantity(t *testing.T) {
	setupTestDB(t)
	app := newStockApp()
	item := createItem(t, "Flour", 10)

	resp := postJSON(t, app, "/stock-movements", CreateMovementRequest{
		StockItemID: item.ID,
		Type:        models.MovementIn,
		Quantity:    5,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out MovementResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 5.0, out.Delta)
	assert.Equal(t, 15.0, out.NewQuantity)

	assert.Equal(t, 15.0, reloadItem(t, item.ID).Quantity)
}

func TestMovementOutInsufficientStock(t *testing.T) {
	setupTestDB(t)
	app := newStockApp()
	item := createItem(t, "Flour", 2)

	resp := postJSON(t, app, "/stock-movements", CreateMovementRequest{
		StockItemID: item.ID,
		Type:        models.MovementOut,
		Quantity:    5,
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	// nothing applied
	assert.Equal(t, 2.0, reloadItem(t, item.ID).Quantity)
	var count int64
	require.NoError(t, database.DB.Model(&models.StockMovement{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestMovementOutChecksRowQuantityNotStaleRead(t *testing.T) {
	setupTestDB(t)
	flour := createItem(t, "Flour", 5)

	// another request drained the stock after this one loaded the row
	stale := *flour
	require.NoError(t, database.DB.Model(&models.StockItem{}).
		Where("id = ?", flour.ID).Update("quantity", 1).Error)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		_, err := applyMovement(tx, &stale, models.MovementOut, 4, time.Now(), "")
		return err
	})

	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusUnprocessableEntity, fe.Code)
	assert.Equal(t, 1.0, reloadItem(t, flour.ID).Quantity)

	var count int64
	require.NoError(t, database.DB.Model(&models.StockMovement{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestMovementAdjustmentRecordsAppliedDelta(t *testing.T) {
	setupTestDB(t)
	app := newStockApp()
	item := createItem(t, "Flour", 10)

	resp := postJSON(t, app, "/stock-movements", CreateMovementRequest{
		StockItemID: item.ID,
		Type:        models.MovementAdjustment,
		Quantity:    7, // new absolute level after a physical count
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out MovementResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 7.0, out.Quantity)
	assert.Equal(t, -3.0, out.Delta)
	assert.Equal(t, 7.0, out.NewQuantity)

	assert.Equal(t, 7.0, reloadItem(t, item.ID).Quantity)
}

func TestMovementUnknownItem(t *testing.T) {
	setupTestDB(t)
	app := newStockApp()

	resp := postJSON(t, app, "/stock-movements", CreateMovementRequest{
		StockItemID: 999,
		Type:        models.MovementIn,
		Quantity:    1,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestConsumeRecipeScalesByBatches(t *testing.T) {
	setupTestDB(t)
	app := newStockApp()

	flour := createItem(t, "Flour", 10)
	milk := createItem(t, "Milk", 20)

	recipe := models.Recipe{
		Name:     "Pancakes",
		Portions: 4,
		Ingredients: []models.RecipeIngredient{
			{StockItemID: flour.ID, Amount: 0.5},
			{StockItemID: milk.ID, Amount: 1},
		},
	}
	require.NoError(t, database.DB.Create(&recipe).Error)

	resp := postJSON(t, app, fmt.Sprintf("/recipes/%d/consume", recipe.ID), ConsumeRecipeRequest{
		Batches: 3,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	assert.Equal(t, 8.5, reloadItem(t, flour.ID).Quantity)
	assert.Equal(t, 17.0, reloadItem(t, milk.ID).Quantity)

	var movements []models.StockMovement
	require.NoError(t, database.DB.Find(&movements).Error)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, models.MovementOut, m.Type)
	}
}

func TestConsumeRecipeInsufficientIngredientRollsBack(t *testing.T) {
	setupTestDB(t)
	app := newStockApp()

	flour := createItem(t, "Flour", 10)
	saffron := createItem(t, "Saffron", 0.01)

	recipe := models.Recipe{
		Name:     "Festive rice",
		Portions: 6,
		Ingredients: []models.RecipeIngredient{
			{StockItemID: flour.ID, Amount: 1},
			{StockItemID: saffron.ID, Amount: 0.1},
		},
	}
	require.NoError(t, database.DB.Create(&recipe).Error)

	resp := postJSON(t, app, fmt.Sprintf("/recipes/%d/consume", recipe.ID), ConsumeRecipeRequest{
		Batches: 1,
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	// the whole batch rolled back, including the first ingredient
	assert.Equal(t, 10.0, reloadItem(t, flour.ID).Quantity)
	var count int64
	require.NoError(t, database.DB.Model(&models.StockMovement{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
