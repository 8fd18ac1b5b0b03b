package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"folklore-backend/internal/config"
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

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret-test-secret-test-secret!",
	}
}

func newAuthApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Post("/auth/register-admin", RegisterAdminHandler(cfg))
	app.Post("/auth/login", LoginHandler(cfg))

	protected := app.Group("")
	protected.Use(JWTMiddleware(cfg))
	protected.Get("/auth/me", MeHandler())
	protected.Get("/admin-only", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
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

func TestRegisterAdminOnlyOnce(t *testing.T) {
	setupTestDB(t)
	app := newAuthApp(testConfig())

	resp := postJSON(t, app, "/auth/register-admin", RegisterAdminRequest{
		Name: "Admin", Email: "admin@folklore.cz", Password: "secret123",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/auth/register-admin", RegisterAdminRequest{
		Name: "Second", Email: "second@folklore.cz", Password: "secret123",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestLoginAndProtectedRoute(t *testing.T) {
	setupTestDB(t)
	cfg := testConfig()
	app := newAuthApp(cfg)

	resp := postJSON(t, app, "/auth/register-admin", RegisterAdminRequest{
		Name: "Admin", Email: "admin@folklore.cz", Password: "secret123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/auth/login", LoginRequest{
		Email: "Admin@Folklore.cz", Password: "secret123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	meResp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, meResp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	adminResp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, adminResp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	setupTestDB(t)
	app := newAuthApp(testConfig())

	resp := postJSON(t, app, "/auth/register-admin", RegisterAdminRequest{
		Name: "Admin", Email: "admin@folklore.cz", Password: "secret123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/auth/login", LoginRequest{
		Email: "admin@folklore.cz", Password: "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRouteRejectsMissingAndForgedTokens(t *testing.T) {
	setupTestDB(t)
	app := newAuthApp(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// token signed with a different secret
	otherCfg := &config.Config{JWTSecret: "another-secret-another-secret-yes!!"}
	user := models.User{ID: 1, Email: "x@y.cz", Role: models.RoleStaff}
	forged, err := GenerateToken(otherCfg.JWTSecret, &user)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleBlocksStaff(t *testing.T) {
	setupTestDB(t)
	cfg := testConfig()
	app := newAuthApp(cfg)

	user := models.User{Name: "Waiter", Email: "waiter@folklore.cz", PasswordHash: "x", Role: models.RoleStaff}
	require.NoError(t, database.DB.Create(&user).Error)

	token, err := GenerateToken(cfg.JWTSecret, &user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
