package models

import "time"

// StaffMember is the personnel record shown on the staff screen. Login
// accounts (User) are optional and linked separately.
type StaffMember struct {
	ID         uint    `gorm:"primaryKey"`
	Name       string  `gorm:"size:100;not null"`
	Position   string  `gorm:"size:100"`
	Phone      string  `gorm:"size:30"`
	Email      string  `gorm:"size:100"`
	HourlyRate float64 // CZK
	Active     bool    `gorm:"default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
