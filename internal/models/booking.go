package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks money movement for a booking, independent of BookingStatus.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentReleased PaymentStatus = "released"
	PaymentRefunded PaymentStatus = "refunded"
)

// BookingMode describes how the job is billed.
type BookingMode string

const (
	ModeHourly    BookingMode = "hourly"
	ModeDaily     BookingMode = "daily"
	ModeTaskBased BookingMode = "task-based"
)

// ParseBookingMode accepts the canonical values case-insensitively. Empty means hourly.
func ParseBookingMode(v string) (BookingMode, bool) {
	switch BookingMode(strings.ToLower(strings.TrimSpace(v))) {
	case "", ModeHourly:
		return ModeHourly, true
	case ModeDaily:
		return ModeDaily, true
	case ModeTaskBased:
		return ModeTaskBased, true
	}
	return "", false
}

// Booking links a customer to a job request and, once assigned, a labourer.
// A nil LabourerID marks an open broadcast request.
type Booking struct {
	BaseModel
	UserID        uuid.UUID     `gorm:"type:uuid;index;not null" json:"user_id"`
	User          *User         `json:"user,omitempty"`
	LabourerID    *uuid.UUID    `gorm:"type:uuid;index" json:"labourer_id"`
	Labourer      *Labourer     `json:"labourer,omitempty"`
	Category      string        `gorm:"index;not null" json:"category"`
	Date          time.Time     `gorm:"index;not null" json:"date"`
	BookingMode   BookingMode   `gorm:"type:varchar(16);default:hourly" json:"booking_mode"`
	NumberOfHours *int          `json:"number_of_hours,omitempty"`
	Status        BookingStatus `gorm:"type:varchar(16);index;default:pending" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(16);default:pending" json:"payment_status"`
	PaymentID     string        `json:"payment_id,omitempty"`
	OrderID       string        `gorm:"index" json:"order_id,omitempty"`
	Amount        float64       `json:"amount,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Address       string        `json:"address,omitempty"`
	HouseNumber   string        `json:"house_number,omitempty"`
	Landmark      string        `json:"landmark,omitempty"`
	Latitude      *float64      `json:"latitude,omitempty"`
	Longitude     *float64      `json:"longitude,omitempty"`
}

// IsOpen reports whether the booking is an unassigned broadcast request.
func (b *Booking) IsOpen() bool {
	return b.LabourerID == nil
}
