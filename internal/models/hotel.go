package models

import (
	"time"

	"gorm.io/gorm"
)

type Hotel struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Location    string         `gorm:"size:200;index" json:"location"`
	Description string         `gorm:"type:text" json:"description"`
	Rating      float64        `gorm:"type:decimal(2,1);default:0" json:"rating"`
	ImageURL    string         `gorm:"size:512" json:"image_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Rooms []Room `gorm:"foreignKey:HotelID" json:"rooms,omitempty"`
}

func (Hotel) TableName() string {
	return "hotels"
}

type Room struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	HotelID   uint           `gorm:"not null;index" json:"hotel_id"`
	RoomType  string         `gorm:"size:50;not null" json:"room_type"` // SINGLE, DOUBLE, SUITE...
	Price     float64        `gorm:"type:decimal(12,2);not null" json:"price"`
	Capacity  int            `gorm:"not null;default:1" json:"capacity"`
	Available bool           `gorm:"not null;index" json:"available"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Hotel *Hotel `gorm:"foreignKey:HotelID" json:"hotel,omitempty"`
}

func (Room) TableName() string {
	return "rooms"
}
