package dashboard

import (
	"fmt"
	"sort"
	"time"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type RevenueChartPoint struct {
	Label   string  `json:"label"` // day / week start / month start
	Cash    float64 `json:"cash"`
	Card    float64 `json:"card"`
	Bank    float64 `json:"bank"`
	Voucher float64 `json:"voucher"`
	Cashbox float64 `json:"cashbox"` // manual income entries
	Total   float64 `json:"total"`
}

type RevenueGrandTotals struct {
	Cash    float64 `json:"cash"`
	Card    float64 `json:"card"`
	Bank    float64 `json:"bank"`
	Voucher float64 `json:"voucher"`
	Cashbox float64 `json:"cashbox"`
	Total   float64 `json:"total"`
}

type RevenueChartResponse struct {
	Period      string              `json:"period"` // daily | weekly | monthly
	From        string              `json:"from"`
	To          string              `json:"to"`
	Points      []RevenueChartPoint `json:"points"`
	GrandTotals RevenueGrandTotals  `json:"grand_totals"`
}

// bucketStart normalizes a payment date to its chart bucket.
func bucketStart(period string, t time.Time) time.Time {
	switch period {
	case "weekly":
		// back to Monday
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return t.AddDate(0, 0, -(weekday - 1))
	case "monthly":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// GET /api/dashboard/revenue-chart?period=daily&count=7
// CZK reservation payments plus cashbox income, bucketed by day, week
// or month.
func RevenueChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", "daily")
		countStr := c.Query("count", "")

		var count int
		if countStr == "" {
			switch period {
			case "weekly":
				count = 8
			case "monthly":
				count = 12
			default:
				period = "daily"
				count = 7
			}
		} else {
			if _, err := fmt.Sscan(countStr, &count); err != nil || count <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid count")
			}
		}

		now := time.Now()
		loc := now.Location()
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		var start time.Time

		switch period {
		case "weekly":
			days := 7 * (count - 1)
			start = bucketStart(period, end.AddDate(0, 0, -days))
		case "monthly":
			monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
			start = monthStart.AddDate(0, -(count - 1), 0)
		default:
			period = "daily"
			start = end.AddDate(0, 0, -(count - 1))
		}

		var payments []models.Payment
		if err := database.DB.
			Where("currency = ? AND paid_at >= ? AND paid_at <= ?", models.CurrencyCZK, start, end).
			Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not aggregate payments")
		}

		var incomeEntries []models.CashboxEntry
		if err := database.DB.
			Where("currency = ? AND direction = ? AND date >= ? AND date <= ?",
				models.CurrencyCZK, models.CashboxIncome, start, end).
			Find(&incomeEntries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not aggregate cashbox income")
		}

		buckets := make(map[time.Time]*RevenueChartPoint)
		bucket := func(t time.Time) *RevenueChartPoint {
			key := bucketStart(period, t)
			point, ok := buckets[key]
			if !ok {
				point = &RevenueChartPoint{Label: key.Format("2006-01-02")}
				buckets[key] = point
			}
			return point
		}

		for _, p := range payments {
			point := bucket(p.PaidAt)
			switch p.Method {
			case models.PaymentCash:
				point.Cash += p.Amount
			case models.PaymentCard:
				point.Card += p.Amount
			case models.PaymentBank:
				point.Bank += p.Amount
			case models.PaymentVoucher:
				point.Voucher += p.Amount
			}
		}

		for _, e := range incomeEntries {
			bucket(e.Date).Cashbox += e.Amount
		}

		keys := make([]time.Time, 0, len(buckets))
		for k := range buckets {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

		points := make([]RevenueChartPoint, 0, len(keys))
		grand := RevenueGrandTotals{}
		for _, k := range keys {
			point := buckets[k]
			point.Total = point.Cash + point.Card + point.Bank + point.Voucher + point.Cashbox
			points = append(points, *point)

			grand.Cash += point.Cash
			grand.Card += point.Card
			grand.Bank += point.Bank
			grand.Voucher += point.Voucher
			grand.Cashbox += point.Cashbox
			grand.Total += point.Total
		}

		return c.JSON(RevenueChartResponse{
			Period:      period,
			From:        start.Format("2006-01-02"),
			To:          end.Format("2006-01-02"),
			Points:      points,
			GrandTotals: grand,
		})
	}
}
