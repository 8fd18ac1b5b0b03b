package database

import (
	"log"

	"folklore-backend/internal/config"
	"folklore-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to the database: %v", err)
	}

	// Voucher codes used to be free-form text without a uniqueness
	// guarantee; deduplicate before AutoMigrate adds the unique index.
	if DB.Migrator().HasTable(&models.Voucher{}) {
		var dupes int64
		DB.Raw(`SELECT COUNT(*) FROM (SELECT code FROM vouchers GROUP BY code HAVING COUNT(*) > 1) d`).Scan(&dupes)
		if dupes > 0 {
			log.Printf("Found %d duplicated voucher codes, suffixing duplicates with their id...", dupes)
			if err := DB.Exec(`
				UPDATE vouchers SET code = code || '-' || id
				WHERE id NOT IN (SELECT MIN(id) FROM vouchers GROUP BY code)
			`).Error; err != nil {
				log.Printf("Voucher code deduplication failed: %v", err)
			}
		}
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Database connected, migration complete.")
}

// Migrate is separate from Init so tests can run it against sqlite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.StaffMember{},
		&models.Reservation{},
		&models.ReservationPerson{},
		&models.Payment{},
		&models.Partner{},
		&models.Voucher{},
		&models.CommissionLog{},
		&models.CommissionPayout{},
		&models.StockItem{},
		&models.StockMovement{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Event{},
		&models.EventStaff{},
		&models.EventTable{},
		&models.EventGuest{},
		&models.EventMenuItem{},
		&models.CashboxCategory{},
		&models.CashboxEntry{},
		&models.PricingDefault{},
		&models.PricingOverride{},
		&models.AuditLog{},
	)
}
