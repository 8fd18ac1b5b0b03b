package models

import "time"

// Partner: a referring business (hotel, tour operator) that earns a
// percentage commission on vouchers redeemed against reservations.
type Partner struct {
	ID             uint    `gorm:"primaryKey"`
	Name           string  `gorm:"size:100;not null"`
	Contact        string  `gorm:"size:255"`
	CommissionRate float64 `gorm:"not null"` // percent, e.g. 10 = 10 %
	Active         bool    `gorm:"default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Voucher struct {
	ID            uint    `gorm:"primaryKey"`
	Code          string  `gorm:"size:36;uniqueIndex;not null"`
	PartnerID     uint    `gorm:"index;not null"`
	Partner       Partner
	Value         float64   `gorm:"not null"` // CZK
	ValidUntil    time.Time `gorm:"not null"`
	RedeemedAt    *time.Time
	ReservationID *uint
	CreatedAt     time.Time
}

// CommissionLog is written once per redemption; rate and base are frozen
// so later partner rate changes do not rewrite history.
type CommissionLog struct {
	ID            uint `gorm:"primaryKey"`
	PartnerID     uint `gorm:"index;not null"`
	Partner       Partner
	VoucherID     uint    `gorm:"not null"`
	ReservationID uint    `gorm:"not null"`
	BaseAmount    float64 `gorm:"not null"` // persons total at redemption
	Rate          float64 `gorm:"not null"`
	Amount        float64 `gorm:"not null"`
	CreatedAt     time.Time
}

type CommissionPayout struct {
	ID        uint `gorm:"primaryKey"`
	PartnerID uint `gorm:"index;not null"`
	Partner   Partner
	Date      time.Time `gorm:"index;not null"`
	Amount    float64   `gorm:"not null"`
	Note      string    `gorm:"size:255"`
	CreatedAt time.Time
}
