package service

import (
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/models"
)

// BookingView is the client representation of a booking. Exactly one of
// Tour, Room and Flight is set; the other two serialize as null.
type BookingView struct {
	ID          uint            `json:"id"`
	UserID      uint            `json:"user_id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	TotalPrice  float64         `json:"total_price"`
	BookingDate time.Time       `json:"booking_date"`
	Tour        *models.Tour    `json:"tour"`
	Room        *models.Room    `json:"room"`
	Flight      *models.Flight  `json:"flight"`
	Payment     *models.Payment `json:"payment"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToBookingView shapes a booking loaded with its relations. The first present
// relation in tour, room, flight order wins.
func ToBookingView(b *models.Booking) (*BookingView, error) {
	v := &BookingView{
		ID:          b.ID,
		UserID:      b.UserID,
		Status:      b.Status,
		TotalPrice:  b.TotalPrice,
		BookingDate: b.BookingDate,
		Payment:     b.Payment,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	switch {
	case b.Tour != nil:
		v.Type, v.Tour = domain.BookingTypeTour, b.Tour
	case b.Room != nil:
		v.Type, v.Room = domain.BookingTypeRoom, b.Room
	case b.Flight != nil:
		v.Type, v.Flight = domain.BookingTypeFlight, b.Flight
	default:
		return nil, domain.ErrBookingWithoutItem
	}
	return v, nil
}

func ToBookingViews(list []models.Booking) ([]BookingView, error) {
	out := make([]BookingView, 0, len(list))
	for i := range list {
		v, err := ToBookingView(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}
