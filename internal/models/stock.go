package models

import "time"

type StockItem struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:100;uniqueIndex;not null"`
	Unit        string  `gorm:"size:20;not null"` // kg, l, pcs
	Quantity    float64 `gorm:"not null"`
	MinQuantity float64 // reorder threshold, 0 = none
	Active      bool    `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// StockMovement rows are immutable; the item quantity is mutated in the
// same transaction that inserts the row. For ADJUSTMENT, Quantity is the
// new absolute level and Delta the change that was applied.
type StockMovement struct {
	ID          uint `gorm:"primaryKey"`
	StockItemID uint `gorm:"index;not null"`
	StockItem   StockItem
	Type        MovementType `gorm:"size:20;not null"`
	Quantity    float64      `gorm:"not null"`
	Delta       float64      `gorm:"not null"`
	Date        time.Time    `gorm:"index;not null"`
	Note        string       `gorm:"size:255"`
	CreatedAt   time.Time
}

type Recipe struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	Portions    int    `gorm:"not null"` // portions per batch
	Ingredients []RecipeIngredient
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RecipeIngredient struct {
	ID          uint `gorm:"primaryKey"`
	RecipeID    uint `gorm:"index;not null"`
	StockItemID uint `gorm:"not null"`
	StockItem   StockItem
	Amount      float64 `gorm:"not null"` // per batch, in the item's unit
}
