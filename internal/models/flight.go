package models

import (
	"time"

	"gorm.io/gorm"
)

type Flight struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Airline        string         `gorm:"size:100;not null" json:"airline"`
	FlightNumber   string         `gorm:"uniqueIndex;size:20;not null" json:"flight_number"`
	Origin         string         `gorm:"size:100;not null;index" json:"origin"`
	Destination    string         `gorm:"size:100;not null;index" json:"destination"`
	DepartureTime  time.Time      `gorm:"not null" json:"departure_time"`
	ArrivalTime    time.Time      `gorm:"not null" json:"arrival_time"`
	Price          float64        `gorm:"type:decimal(12,2);not null" json:"price"`
	Capacity       int            `gorm:"not null" json:"capacity"`
	SeatsAvailable int            `gorm:"not null" json:"seats_available"` // 0 <= SeatsAvailable <= Capacity
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Flight) TableName() string {
	return "flights"
}
