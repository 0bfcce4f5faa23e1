package repository

import (
	"tourbook/internal/models"

	"gorm.io/gorm"
)

type HotelRepository struct {
	db *gorm.DB
}

func NewHotelRepository(db *gorm.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

func (r *HotelRepository) Create(h *models.Hotel) error {
	return r.db.Create(h).Error
}

func (r *HotelRepository) GetByID(id uint) (*models.Hotel, error) {
	var h models.Hotel
	err := r.db.Preload("Rooms").First(&h, id).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HotelRepository) Update(h *models.Hotel) error {
	return r.db.Omit("Rooms").Save(h).Error
}

// Delete removes the hotel and its rooms.
func (r *HotelRepository) Delete(id uint) error {
	if err := r.db.Where("hotel_id = ?", id).Delete(&models.Room{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Hotel{}, id).Error
}

func (r *HotelRepository) List(location string, page, limit int) ([]models.Hotel, int64, error) {
	q := r.db.Model(&models.Hotel{})
	if location != "" {
		q = q.Where("location LIKE ?", "%"+location+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, size := Page(page, limit)
	var list []models.Hotel
	err := q.Order("created_at DESC").Limit(size).Offset(offset).Find(&list).Error
	return list, total, err
}

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(room *models.Room) error {
	return r.db.Create(room).Error
}

func (r *RoomRepository) GetByID(id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) Update(room *models.Room) error {
	return r.db.Omit("Hotel").Save(room).Error
}

func (r *RoomRepository) Delete(id uint) error {
	return r.db.Delete(&models.Room{}, id).Error
}

func (r *RoomRepository) ListByHotel(hotelID uint, onlyAvailable bool) ([]models.Room, error) {
	q := r.db.Where("hotel_id = ?", hotelID)
	if onlyAvailable {
		q = q.Where("available = ?", true)
	}
	var list []models.Room
	err := q.Order("price ASC").Find(&list).Error
	return list, err
}
