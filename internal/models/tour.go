package models

import (
	"time"

	"gorm.io/gorm"
)

type Tour struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Destination  string         `gorm:"size:200;index" json:"destination"`
	Price        float64        `gorm:"type:decimal(12,2);not null" json:"price"`
	MaxGuests    int            `gorm:"not null;default:0" json:"max_guests"`
	GuestsBooked int            `gorm:"not null;default:0" json:"guests_booked"` // <= MaxGuests
	StartDate    *time.Time     `json:"start_date"`
	EndDate      *time.Time     `json:"end_date"`
	ImageURL     string         `gorm:"size:512" json:"image_url"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Tour) TableName() string {
	return "tours"
}

// HasCapacity reports whether one more guest fits.
func (t *Tour) HasCapacity() bool { return t.GuestsBooked < t.MaxGuests }
