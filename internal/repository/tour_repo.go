package repository

import (
	"tourbook/internal/models"

	"gorm.io/gorm"
)

type TourFilter struct {
	Destination string
	Page        int
	Limit       int
}

type TourRepository struct {
	db *gorm.DB
}

func NewTourRepository(db *gorm.DB) *TourRepository {
	return &TourRepository{db: db}
}

func (r *TourRepository) Create(t *models.Tour) error {
	return r.db.Create(t).Error
}

func (r *TourRepository) GetByID(id uint) (*models.Tour, error) {
	var t models.Tour
	err := r.db.First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TourRepository) Update(t *models.Tour) error {
	return r.db.Save(t).Error
}

func (r *TourRepository) Delete(id uint) error {
	return r.db.Delete(&models.Tour{}, id).Error
}

func (r *TourRepository) List(f TourFilter) ([]models.Tour, int64, error) {
	q := r.db.Model(&models.Tour{})
	if f.Destination != "" {
		q = q.Where("destination LIKE ?", "%"+f.Destination+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := Page(f.Page, f.Limit)
	var list []models.Tour
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
