package reports

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// GET /api/admin/reports/monthly/export?year=2026&month=6
// Same figures as the JSON report, as a downloadable .xlsx.
func MonthlyReportExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, month, start, end, err := monthRange(c)
		if err != nil {
			return err
		}

		report, buildErr := buildMonthlyReport(year, month, start, end)
		if buildErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build report")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := f.GetSheetName(0)

		rows := [][]interface{}{
			{fmt.Sprintf("Folklore Garden - monthly report %d/%02d", year, month)},
			{},
			{"Reservations", report.ReservationCount},
			{"Persons", report.PersonCount},
			{"Persons revenue (CZK)", report.PersonsRevenue},
			{},
			{"Payments received (CZK)", report.PaymentsCZK},
			{"Payments received (EUR)", report.PaymentsEUR},
			{},
			{"Cashbox income (CZK)", report.CashboxIncomeCZK},
			{"Cashbox expense (CZK)", report.CashboxExpenseCZK},
			{"Cashbox net (CZK)", report.CashboxIncomeCZK - report.CashboxExpenseCZK},
			{"Cashbox income (EUR)", report.CashboxIncomeEUR},
			{"Cashbox expense (EUR)", report.CashboxExpenseEUR},
			{"Cashbox net (EUR)", report.CashboxIncomeEUR - report.CashboxExpenseEUR},
			{},
			{"Commissions accrued (CZK)", report.CommissionsAccrued},
			{"Commissions paid out (CZK)", report.CommissionsPaidOut},
		}

		for i, row := range rows {
			cell, cellErr := excelize.CoordinatesToCellName(1, i+1)
			if cellErr != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not build sheet")
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not write sheet")
			}
		}

		if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not format sheet")
		}

		buf, wErr := f.WriteToBuffer()
		if wErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not serialize workbook")
		}

		filename := fmt.Sprintf("monthly-report-%d-%02d.xlsx", year, month)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		return c.Send(buf.Bytes())
	}
}
