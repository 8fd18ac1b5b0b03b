package models

import "time"

type CashboxDirection string

const (
	CashboxIncome  CashboxDirection = "income"
	CashboxExpense CashboxDirection = "expense"
)

type CashboxCategory struct {
	ID        uint             `gorm:"primaryKey"`
	Name      string           `gorm:"size:100;not null"`
	Kind      CashboxDirection `gorm:"size:10;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CashboxEntry: one manual ledger line in CZK or EUR.
type CashboxEntry struct {
	ID         uint      `gorm:"primaryKey"`
	Date       time.Time `gorm:"index;not null"`
	CategoryID *uint
	Category   *CashboxCategory
	Direction  CashboxDirection `gorm:"size:10;not null"`
	Currency   Currency         `gorm:"size:3;not null"`
	Amount     float64          `gorm:"not null"`
	Note       string           `gorm:"size:255"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
