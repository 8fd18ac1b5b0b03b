package models

import "time"

type ReservationStatus string

const (
	ReservationCreated   ReservationStatus = "created"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

type PersonType string

const (
	PersonAdult  PersonType = "adult"
	PersonChild  PersonType = "child"
	PersonInfant PersonType = "infant"
)

type Reservation struct {
	ID           uint              `gorm:"primaryKey"`
	Date         time.Time         `gorm:"index;not null"` // visit day
	TimeSlot     string            `gorm:"size:20"`        // e.g. "19:30"
	CustomerName string            `gorm:"size:100;not null"`
	Email        string            `gorm:"size:100"`
	Phone        string            `gorm:"size:30"`
	Note         string            `gorm:"size:255"`
	Status       ReservationStatus `gorm:"size:20;not null;default:created"`
	VoucherID    *uint
	Persons      []ReservationPerson
	Payments     []Payment
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReservationPerson: one guest line on a reservation. Price is the
// per-person CZK price frozen at the time the line was written.
type ReservationPerson struct {
	ID            uint       `gorm:"primaryKey"`
	ReservationID uint       `gorm:"index;not null"`
	Type          PersonType `gorm:"size:10;not null"`
	MenuCode      string     `gorm:"size:30;not null"`
	Price         float64    `gorm:"not null"`
}
