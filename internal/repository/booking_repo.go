package repository

import (
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/models"

	"gorm.io/gorm"
)

// BookingFilter is the validated set of list filters. Zero values mean "any".
type BookingFilter struct {
	UserID *uint
	Status string
	Type   string // TOUR | ROOM | FLIGHT
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) withItems() *gorm.DB {
	return r.db.Preload("Tour").Preload("Room").Preload("Room.Hotel").Preload("Flight").Preload("Payment")
}

func (r *BookingRepository) Create(b *models.Booking) error {
	return r.db.Create(b).Error
}

// GetByID loads the booking with its item and payment.
func (r *BookingRepository) GetByID(id uint) (*models.Booking, error) {
	var b models.Booking
	err := r.withItems().First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Get loads the bare booking row.
func (r *BookingRepository) Get(id uint) (*models.Booking, error) {
	var b models.Booking
	err := r.db.First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateStatus moves the booking from one status to another and reports
// whether the row was still in the expected status.
func (r *BookingRepository) UpdateStatus(id uint, from, to string) (bool, error) {
	res := r.db.Model(&models.Booking{}).Where("id = ? AND status = ?", id, from).Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *BookingRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Booking{}).Where("id = ?", id).Updates(fields).Error
}

func (r *BookingRepository) Delete(id uint) error {
	return r.db.Delete(&models.Booking{}, id).Error
}

func (r *BookingRepository) List(f BookingFilter) ([]models.Booking, int64, error) {
	q := r.db.Model(&models.Booking{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	switch f.Type {
	case domain.BookingTypeTour:
		q = q.Where("tour_id IS NOT NULL")
	case domain.BookingTypeRoom:
		q = q.Where("room_id IS NOT NULL")
	case domain.BookingTypeFlight:
		q = q.Where("flight_id IS NOT NULL")
	}
	if f.From != nil {
		q = q.Where("booking_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("booking_date <= ?", *f.To)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := Page(f.Page, f.Limit)
	var list []models.Booking
	err := q.Preload("Tour").Preload("Room").Preload("Room.Hotel").Preload("Flight").Preload("Payment").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *BookingRepository) CountByTour(tourID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Booking{}).Where("tour_id = ?", tourID).Count(&c).Error
	return c, err
}

func (r *BookingRepository) CountByHotel(hotelID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Booking{}).
		Joins("JOIN rooms ON rooms.id = bookings.room_id").
		Where("rooms.hotel_id = ?", hotelID).Count(&c).Error
	return c, err
}

func (r *BookingRepository) CountByRoom(roomID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Booking{}).Where("room_id = ?", roomID).Count(&c).Error
	return c, err
}

func (r *BookingRepository) CountByFlight(flightID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Booking{}).Where("flight_id = ?", flightID).Count(&c).Error
	return c, err
}
