package partner

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

func newPartnerApp() *fiber.App {
	app := fiber.New()
	app.Post("/vouchers", IssueVoucherHandler())
	app.Post("/vouchers/:code/redeem", RedeemVoucherHandler())
	app.Get("/partners/:id/balance", PartnerBalanceHandler())
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

func createPartner(t *testing.T, rate float64) *models.Partner {
	t.Helper()
	p := models.Partner{Name: "Hotel Praha", CommissionRate: rate, Active: true}
	require.NoError(t, database.DB.Create(&p).Error)
	return &p
}

func createReservation(t *testing.T) *models.Reservation {
	t.Helper()
	res := models.Reservation{
		Date:         time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		CustomerName: "Novak",
		Status:       models.ReservationConfirmed,
		Persons: []models.ReservationPerson{
			{Type: models.PersonAdult, MenuCode: "standard", Price: 650},
			{Type: models.PersonAdult, MenuCode: "standard", Price: 650},
		},
	}
	require.NoError(t, database.DB.Create(&res).Error)
	return &res
}

func createVoucher(t *testing.T, partnerID uint, value float64, validUntil time.Time) *models.Voucher {
	t.Helper()
	v := models.Voucher{
		Code:       fmt.Sprintf("test-code-%d", time.Now().UnixNano()),
		PartnerID:  partnerID,
		Value:      value,
		ValidUntil: validUntil,
	}
	require.NoError(t, database.DB.Create(&v).Error)
	return &v
}

func TestIssueVoucherGeneratesCode(t *testing.T) {
	setupTestDB(t)
	app := newPartnerApp()
	p := createPartner(t, 10)

	resp := postJSON(t, app, "/vouchers", IssueVoucherRequest{
		PartnerID:  p.ID,
		Value:      500,
		ValidUntil: "2027-12-31",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out VoucherResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.Code)
	assert.Nil(t, out.RedeemedAt)
	assert.Equal(t, 500.0, out.Value)
}

func TestIssueVoucherInactivePartner(t *testing.T) {
	setupTestDB(t)
	app := newPartnerApp()

	p := models.Partner{Name: "Closed agency", CommissionRate: 8, Active: false}
	require.NoError(t, database.DB.Create(&p).Error)
	require.NoError(t, database.DB.Model(&p).Update("active", false).Error)

	resp := postJSON(t, app, "/vouchers", IssueVoucherRequest{
		PartnerID:  p.ID,
		Value:      500,
		ValidUntil: "2027-12-31",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRedeemVoucherWritesPaymentAndCommission(t *testing.T) {
	setupTestDB(t)
	app := newPartnerApp()

	p := createPartner(t, 10)
	res := createReservation(t)
	v := createVoucher(t, p.ID, 500, time.Now().AddDate(1, 0, 0))

	resp := postJSON(t, app, "/vouchers/"+v.Code+"/redeem", RedeemVoucherRequest{
		ReservationID: res.ID,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reloaded models.Voucher
	require.NoError(t, database.DB.First(&reloaded, v.ID).Error)
	require.NotNil(t, reloaded.RedeemedAt)
	require.NotNil(t, reloaded.ReservationID)
	assert.Equal(t, res.ID, *reloaded.ReservationID)

	var payment models.Payment
	require.NoError(t, database.DB.First(&payment, "reservation_id = ?", res.ID).Error)
	assert.Equal(t, models.PaymentVoucher, payment.Method)
	assert.Equal(t, models.CurrencyCZK, payment.Currency)
	assert.Equal(t, 500.0, payment.Amount)

	// frozen at redemption: 1300 persons total at a 10 % rate
	var commission models.CommissionLog
	require.NoError(t, database.DB.First(&commission, "voucher_id = ?", v.ID).Error)
	assert.Equal(t, 1300.0, commission.BaseAmount)
	assert.Equal(t, 10.0, commission.Rate)
	assert.Equal(t, 130.0, commission.Amount)

	var resReloaded models.Reservation
	require.NoError(t, database.DB.First(&resReloaded, res.ID).Error)
	require.NotNil(t, resReloaded.VoucherID)
	assert.Equal(t, v.ID, *resReloaded.VoucherID)
}

func TestRedeemVoucherIsOneShot(t *testing.T) {
	setupTestDB(t)
	app := newPartnerApp()

	p := createPartner(t, 10)
	res := createReservation(t)
	other := createReservation(t)
	v := createVoucher(t, p.ID, 500, time.Now().AddDate(1, 0, 0))

	resp := postJSON(t, app, "/vouchers/"+v.Code+"/redeem", RedeemVoucherRequest{ReservationID: res.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, "/vouchers/"+v.Code+"/redeem", RedeemVoucherRequest{ReservationID: other.ID})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var count int64
	require.NoError(t, database.DB.Model(&models.CommissionLog{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestClaimVoucherIsOneShotAfterChecksPassed(t *testing.T) {
	setupTestDB(t)

	p := createPartner(t, 10)
	first := createReservation(t)
	second := createReservation(t)
	v := createVoucher(t, p.ID, 500, time.Now().AddDate(1, 0, 0))

	// two redemption requests that both saw the voucher unredeemed:
	// only the first conditional claim may win
	now := time.Now()
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return claimVoucher(tx, v.ID, first.ID, now)
	})
	require.NoError(t, err)

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return claimVoucher(tx, v.ID, second.ID, now)
	})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusConflict, fe.Code)

	var reloaded models.Voucher
	require.NoError(t, database.DB.First(&reloaded, v.ID).Error)
	require.NotNil(t, reloaded.ReservationID)
	assert.Equal(t, first.ID, *reloaded.ReservationID)
}

func TestClaimReservationRefusesSecondVoucher(t *testing.T) {
	setupTestDB(t)

	p := createPartner(t, 10)
	res := createReservation(t)
	v1 := createVoucher(t, p.ID, 500, time.Now().AddDate(1, 0, 0))
	v2 := createVoucher(t, p.ID, 300, time.Now().AddDate(1, 0, 0))

	require.NoError(t, database.DB.Transaction(func(tx *gorm.DB) error {
		return claimReservation(tx, res.ID, v1.ID)
	}))

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return claimReservation(tx, res.ID, v2.ID)
	})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusConflict, fe.Code)

	var reloaded models.Reservation
	require.NoError(t, database.DB.First(&reloaded, res.ID).Error)
	require.NotNil(t, reloaded.VoucherID)
	assert.Equal(t, v1.ID, *reloaded.VoucherID)
}

func TestRedeemExpiredVoucher(t *testing.T) {
	setupTestDB(t)
	app := newPartnerApp()

	p := createPartner(t, 10)
	res := createReservation(t)
	v := createVoucher(t, p.ID, 500, time.Now().AddDate(0, 0, -1))

	resp := postJSON(t, app, "/vouchers/"+v.Code+"/redeem", RedeemVoucherRequest{ReservationID: res.ID})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRedeemVoucherCancelledReservation(t *testing.T) {
	setupTestDB(t)
	app := newPartnerApp()

	p := createPartner(t, 10)
	res := createReservation(t)
	require.NoError(t, database.DB.Model(res).Update("status", models.ReservationCancelled).Error)
	v := createVoucher(t, p.ID, 500, time.Now().AddDate(1, 0, 0))

	resp := postJSON(t, app, "/vouchers/"+v.Code+"/redeem", RedeemVoucherRequest{ReservationID: res.ID})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestPartnerBalanceNetsPayoutsAgainstCommissions(t *testing.T) {
	setupTestDB(t)
	app := newPartnerApp()

	p := createPartner(t, 10)
	require.NoError(t, database.DB.Create(&models.CommissionLog{
		PartnerID: p.ID, VoucherID: 1, ReservationID: 1,
		BaseAmount: 1300, Rate: 10, Amount: 130,
	}).Error)
	require.NoError(t, database.DB.Create(&models.CommissionLog{
		PartnerID: p.ID, VoucherID: 2, ReservationID: 2,
		BaseAmount: 800, Rate: 10, Amount: 80,
	}).Error)
	require.NoError(t, database.DB.Create(&models.CommissionPayout{
		PartnerID: p.ID, Date: time.Now(), Amount: 50,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/partners/%d/balance", p.ID), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out BalanceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 210.0, out.Accrued)
	assert.Equal(t, 50.0, out.PaidOut)
	assert.Equal(t, 160.0, out.Balance)
}
