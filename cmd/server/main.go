package main

import (
	"log"
	"strings"

	"folklore-backend/internal/audit"
	"folklore-backend/internal/auth"
	"folklore-backend/internal/cashbox"
	"folklore-backend/internal/config"
	"folklore-backend/internal/dashboard"
	"folklore-backend/internal/database"
	"folklore-backend/internal/event"
	"folklore-backend/internal/models"
	"folklore-backend/internal/partner"
	"folklore-backend/internal/pricing"
	"folklore-backend/internal/reports"
	"folklore-backend/internal/reservation"
	"folklore-backend/internal/staff"
	"folklore-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Staff management
	adminRoutes.Post("/staff", staff.CreateStaffMemberHandler())
	adminRoutes.Get("/staff", staff.ListStaffMembersHandler())
	adminRoutes.Get("/staff/:id", staff.GetStaffMemberHandler())
	adminRoutes.Put("/staff/:id", staff.UpdateStaffMemberHandler())
	adminRoutes.Delete("/staff/:id", staff.DeleteStaffMemberHandler())
	adminRoutes.Post("/staff/:id/account", staff.CreateStaffAccountHandler())
	adminRoutes.Get("/staff/:id/accounts", staff.ListStaffAccountsHandler())

	// Partner management
	adminRoutes.Post("/partners", partner.CreatePartnerHandler())
	adminRoutes.Put("/partners/:id", partner.UpdatePartnerHandler())
	adminRoutes.Delete("/partners/:id", partner.DeletePartnerHandler())
	adminRoutes.Post("/vouchers", partner.IssueVoucherHandler())
	adminRoutes.Post("/commission-payouts", partner.CreatePayoutHandler())

	// Stock item management
	adminRoutes.Post("/stock-items", stock.CreateStockItemHandler())
	adminRoutes.Put("/stock-items/:id", stock.UpdateStockItemHandler())
	adminRoutes.Delete("/stock-items/:id", stock.DeleteStockItemHandler())
	adminRoutes.Post("/stock-items/import", stock.BulkImportHandler())

	// Recipes
	adminRoutes.Post("/recipes", stock.CreateRecipeHandler())
	adminRoutes.Put("/recipes/:id", stock.UpdateRecipeHandler())
	adminRoutes.Delete("/recipes/:id", stock.DeleteRecipeHandler())

	// Cashbox categories
	adminRoutes.Post("/cashbox-categories", cashbox.CreateCategoryHandler())
	adminRoutes.Put("/cashbox-categories/:id", cashbox.UpdateCategoryHandler())
	adminRoutes.Delete("/cashbox-categories/:id", cashbox.DeleteCategoryHandler())

	// Pricing
	adminRoutes.Post("/pricing/defaults", pricing.UpsertDefaultHandler())
	adminRoutes.Delete("/pricing/defaults/:id", pricing.DeleteDefaultHandler())
	adminRoutes.Post("/pricing/overrides", pricing.UpsertOverrideHandler())
	adminRoutes.Delete("/pricing/overrides/:id", pricing.DeleteOverrideHandler())

	// Monthly reports
	adminRoutes.Get("/reports/monthly", reports.MonthlyReportHandler())
	adminRoutes.Get("/reports/monthly/export", reports.MonthlyReportExportHandler())

	// Shared (authenticated) routes

	// Reservations & payments
	protected.Post("/reservations", reservation.CreateReservationHandler())
	protected.Get("/reservations", reservation.ListReservationsHandler())
	protected.Get("/reservations/:id", reservation.GetReservationHandler())
	protected.Put("/reservations/:id", reservation.UpdateReservationHandler())
	protected.Put("/reservations/:id/status", reservation.ChangeStatusHandler())
	protected.Delete("/reservations/:id", reservation.DeleteReservationHandler())
	protected.Post("/reservations/:id/payments", reservation.CreatePaymentHandler())
	protected.Get("/reservations/:id/payments", reservation.ListPaymentsHandler())
	protected.Delete("/payments/:id", reservation.DeletePaymentHandler())

	// Partners & vouchers
	protected.Get("/partners", partner.ListPartnersHandler())
	protected.Get("/partners/:id", partner.GetPartnerHandler())
	protected.Get("/partners/:id/balance", partner.PartnerBalanceHandler())
	protected.Get("/vouchers", partner.ListVouchersHandler())
	protected.Get("/vouchers/:code", partner.GetVoucherHandler())
	protected.Post("/vouchers/:code/redeem", partner.RedeemVoucherHandler())
	protected.Get("/commission-logs", partner.ListCommissionsHandler())
	protected.Get("/commission-payouts", partner.ListPayoutsHandler())

	// Stock
	protected.Get("/stock-items", stock.ListStockItemsHandler())
	protected.Get("/stock-items/:id", stock.GetStockItemHandler())
	protected.Post("/stock-movements", stock.CreateMovementHandler())
	protected.Get("/stock-movements", stock.ListMovementsHandler())
	protected.Get("/recipes", stock.ListRecipesHandler())
	protected.Get("/recipes/:id", stock.GetRecipeHandler())
	protected.Post("/recipes/:id/consume", stock.ConsumeRecipeHandler())

	// Events
	protected.Post("/events", event.CreateEventHandler())
	protected.Get("/events", event.ListEventsHandler())
	protected.Get("/events/:id", event.GetEventHandler())
	protected.Put("/events/:id", event.UpdateEventHandler())
	protected.Delete("/events/:id", event.DeleteEventHandler())

	// Cashbox
	protected.Get("/cashbox-categories", cashbox.ListCategoriesHandler())
	protected.Post("/cashbox-entries", cashbox.CreateEntryHandler())
	protected.Get("/cashbox-entries", cashbox.ListEntriesHandler())
	protected.Get("/cashbox-entries/summary/monthly", cashbox.MonthlySummaryHandler())
	protected.Delete("/cashbox-entries/:id", cashbox.DeleteEntryHandler())

	// Pricing lookups
	protected.Get("/pricing/defaults", pricing.ListDefaultsHandler())
	protected.Get("/pricing/overrides", pricing.ListOverridesHandler())
	protected.Get("/pricing/effective", pricing.EffectivePricesHandler())

	// Dashboard
	protected.Get("/dashboard/revenue-chart", dashboard.RevenueChartHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
	adminRoutes.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
