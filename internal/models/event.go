package models

import "time"

type EventType string

const (
	EventShow    EventType = "show"
	EventWedding EventType = "wedding"
	EventPrivate EventType = "private"
)

type EventStatus string

const (
	EventPlanned   EventStatus = "planned"
	EventConfirmed EventStatus = "confirmed"
	EventCancelled EventStatus = "cancelled"
	EventDone      EventStatus = "done"
)

type Event struct {
	ID        uint        `gorm:"primaryKey"`
	Title     string      `gorm:"size:150;not null"`
	Type      EventType   `gorm:"size:20;not null"`
	Date      time.Time   `gorm:"index;not null"`
	StartTime string      `gorm:"size:5"` // "18:00"
	EndTime   string      `gorm:"size:5"`
	Note      string      `gorm:"size:255"`
	Status    EventStatus `gorm:"size:20;not null;default:planned"`
	Staff     []EventStaff
	Tables    []EventTable
	Guests    []EventGuest
	MenuItems []EventMenuItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type EventStaff struct {
	ID            uint `gorm:"primaryKey"`
	EventID       uint `gorm:"index;not null"`
	StaffMemberID uint `gorm:"not null"`
	StaffMember   StaffMember
	Role          string `gorm:"size:50"` // waiter, musician, cook
}

type EventTable struct {
	ID      uint   `gorm:"primaryKey"`
	EventID uint   `gorm:"index;not null"`
	Name    string `gorm:"size:50;not null"`
	Seats   int    `gorm:"not null"`
}

type EventGuest struct {
	ID      uint   `gorm:"primaryKey"`
	EventID uint   `gorm:"index;not null"`
	Name    string `gorm:"size:100;not null"`
	Count   int    `gorm:"not null"`
	TableID *uint // optional seating
}

type EventMenuItem struct {
	ID       uint    `gorm:"primaryKey"`
	EventID  uint    `gorm:"index;not null"`
	Name     string  `gorm:"size:100;not null"`
	Price    float64 `gorm:"not null"`
	Quantity int     `gorm:"not null"`
}
