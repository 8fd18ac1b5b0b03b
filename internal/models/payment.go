package models

import "time"

type Currency string

const (
	CurrencyCZK Currency = "CZK"
	CurrencyEUR Currency = "EUR"
)

type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentBank    PaymentMethod = "bank"
	PaymentVoucher PaymentMethod = "voucher" // written by voucher redemption only
)

type Payment struct {
	ID            uint          `gorm:"primaryKey"`
	ReservationID uint          `gorm:"index;not null"`
	Amount        float64       `gorm:"not null"`
	Currency      Currency      `gorm:"size:3;not null"`
	Method        PaymentMethod `gorm:"size:20;not null"`
	PaidAt        time.Time     `gorm:"index;not null"`
	Note          string        `gorm:"size:255"`
	CreatedAt     time.Time
}
