package models

import "time"

// PricingDefault: base per-person price for a (person type, menu) pair.
// One row per pair, upserted by the handler.
type PricingDefault struct {
	ID         uint       `gorm:"primaryKey"`
	PersonType PersonType `gorm:"size:10;not null;uniqueIndex:idx_pricing_default_key"`
	MenuCode   string     `gorm:"size:30;not null;uniqueIndex:idx_pricing_default_key"`
	Price      float64    `gorm:"not null"` // CZK
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PricingOverride wins over the default for its calendar date.
type PricingOverride struct {
	ID         uint       `gorm:"primaryKey"`
	Date       time.Time  `gorm:"not null;uniqueIndex:idx_pricing_override_key"`
	PersonType PersonType `gorm:"size:10;not null;uniqueIndex:idx_pricing_override_key"`
	MenuCode   string     `gorm:"size:30;not null;uniqueIndex:idx_pricing_override_key"`
	Price      float64    `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
