package models

import (
	"time"
)

// Booking references at most one of Tour, Room or Flight. The exclusion is
// enforced by the booking service, not by the schema.
type Booking struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	TourID      *uint     `gorm:"index" json:"tour_id"`
	RoomID      *uint     `gorm:"index" json:"room_id"`
	FlightID    *uint     `gorm:"index" json:"flight_id"`
	TotalPrice  float64   `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Status      string    `gorm:"size:20;not null;index" json:"status"` // PENDING, CONFIRMED, CANCELLED, COMPLETED
	BookingDate time.Time `gorm:"not null" json:"booking_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Tour    *Tour    `gorm:"foreignKey:TourID" json:"tour,omitempty"`
	Room    *Room    `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Flight  *Flight  `gorm:"foreignKey:FlightID" json:"flight,omitempty"`
	Payment *Payment `gorm:"foreignKey:BookingID" json:"payment,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}
