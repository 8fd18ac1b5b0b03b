package reports

import (
	"fmt"
	"time"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type MonthlyReport struct {
	Year  int `json:"year"`
	Month int `json:"month"`

	ReservationCount int     `json:"reservation_count"`
	PersonCount      int     `json:"person_count"`
	PersonsRevenue   float64 `json:"persons_revenue"` // CZK, cancelled excluded

	PaymentsCZK float64 `json:"payments_czk"`
	PaymentsEUR float64 `json:"payments_eur"`

	CashboxIncomeCZK  float64 `json:"cashbox_income_czk"`
	CashboxExpenseCZK float64 `json:"cashbox_expense_czk"`
	CashboxIncomeEUR  float64 `json:"cashbox_income_eur"`
	CashboxExpenseEUR float64 `json:"cashbox_expense_eur"`

	CommissionsAccrued float64 `json:"commissions_accrued"`
	CommissionsPaidOut float64 `json:"commissions_paid_out"`
}

func monthRange(c *fiber.Ctx) (int, int, time.Time, time.Time, error) {
	yearStr := c.Query("year")
	monthStr := c.Query("month")
	if yearStr == "" || monthStr == "" {
		return 0, 0, time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "year and month are required")
	}

	var year, month int
	if _, err := fmt.Sscan(yearStr, &year); err != nil || year < 2000 {
		return 0, 0, time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Invalid year")
	}
	if _, err := fmt.Sscan(monthStr, &month); err != nil || month < 1 || month > 12 {
		return 0, 0, time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Invalid month")
	}

	loc := time.Now().Location()
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)
	return year, month, start, end, nil
}

func buildMonthlyReport(year, month int, start, end time.Time) (*MonthlyReport, error) {
	report := &MonthlyReport{Year: year, Month: month}

	var reservations []models.Reservation
	if err := database.DB.Preload("Persons").
		Where("date >= ? AND date < ? AND status <> ?", start, end, models.ReservationCancelled).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	report.ReservationCount = len(reservations)
	for _, r := range reservations {
		report.PersonCount += len(r.Persons)
		for _, p := range r.Persons {
			report.PersonsRevenue += p.Price
		}
	}

	type currencyRow struct {
		Currency string  `gorm:"column:currency"`
		Total    float64 `gorm:"column:total"`
	}
	var paymentRows []currencyRow
	if err := database.DB.Model(&models.Payment{}).
		Select("currency, SUM(amount) as total").
		Where("paid_at >= ? AND paid_at < ?", start, end).
		Group("currency").
		Scan(&paymentRows).Error; err != nil {
		return nil, err
	}
	for _, r := range paymentRows {
		switch models.Currency(r.Currency) {
		case models.CurrencyEUR:
			report.PaymentsEUR = r.Total
		default:
			report.PaymentsCZK = r.Total
		}
	}

	type cashboxRow struct {
		Currency  string  `gorm:"column:currency"`
		Direction string  `gorm:"column:direction"`
		Total     float64 `gorm:"column:total"`
	}
	var cashboxRows []cashboxRow
	if err := database.DB.Model(&models.CashboxEntry{}).
		Select("currency, direction, SUM(amount) as total").
		Where("date >= ? AND date < ?", start, end).
		Group("currency, direction").
		Scan(&cashboxRows).Error; err != nil {
		return nil, err
	}
	for _, r := range cashboxRows {
		income := models.CashboxDirection(r.Direction) == models.CashboxIncome
		if models.Currency(r.Currency) == models.CurrencyEUR {
			if income {
				report.CashboxIncomeEUR = r.Total
			} else {
				report.CashboxExpenseEUR = r.Total
			}
		} else {
			if income {
				report.CashboxIncomeCZK = r.Total
			} else {
				report.CashboxExpenseCZK = r.Total
			}
		}
	}

	if err := database.DB.Model(&models.CommissionLog{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Select("COALESCE(SUM(amount), 0)").Scan(&report.CommissionsAccrued).Error; err != nil {
		return nil, err
	}
	if err := database.DB.Model(&models.CommissionPayout{}).
		Where("date >= ? AND date < ?", start, end).
		Select("COALESCE(SUM(amount), 0)").Scan(&report.CommissionsPaidOut).Error; err != nil {
		return nil, err
	}

	return report, nil
}

// GET /api/admin/reports/monthly?year=2026&month=6
func MonthlyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, month, start, end, err := monthRange(c)
		if err != nil {
			return err
		}

		report, buildErr := buildMonthlyReport(year, month, start, end)
		if buildErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build report")
		}

		return c.JSON(report)
	}
}
