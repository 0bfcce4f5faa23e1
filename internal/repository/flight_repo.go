package repository

import (
	"time"

	"tourbook/internal/models"

	"gorm.io/gorm"
)

type FlightFilter struct {
	Origin      string
	Destination string
	DepartAfter *time.Time
	Page        int
	Limit       int
}

type FlightRepository struct {
	db *gorm.DB
}

func NewFlightRepository(db *gorm.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

func (r *FlightRepository) Create(f *models.Flight) error {
	return r.db.Create(f).Error
}

func (r *FlightRepository) GetByID(id uint) (*models.Flight, error) {
	var f models.Flight
	err := r.db.First(&f, id).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FlightRepository) Update(f *models.Flight) error {
	return r.db.Save(f).Error
}

func (r *FlightRepository) Delete(id uint) error {
	return r.db.Delete(&models.Flight{}, id).Error
}

func (r *FlightRepository) List(f FlightFilter) ([]models.Flight, int64, error) {
	q := r.db.Model(&models.Flight{})
	if f.Origin != "" {
		q = q.Where("origin = ?", f.Origin)
	}
	if f.Destination != "" {
		q = q.Where("destination = ?", f.Destination)
	}
	if f.DepartAfter != nil {
		q = q.Where("departure_time >= ?", *f.DepartAfter)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := Page(f.Page, f.Limit)
	var list []models.Flight
	err := q.Order("departure_time ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
