package repository

import (
	"tourbook/internal/models"

	"gorm.io/gorm"
)

// InventoryRepository holds the single-statement capacity writes. Each method
// returns the number of rows changed; zero means the guard in the WHERE
// clause did not hold (or the row does not exist).
type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) ReserveRoom(id uint) (int64, error) {
	res := r.db.Model(&models.Room{}).Where("id = ? AND available = ?", id, true).UpdateColumn("available", false)
	return res.RowsAffected, res.Error
}

func (r *InventoryRepository) ReleaseRoom(id uint) (int64, error) {
	res := r.db.Model(&models.Room{}).Where("id = ? AND available = ?", id, false).UpdateColumn("available", true)
	return res.RowsAffected, res.Error
}

func (r *InventoryRepository) ReserveFlightSeat(id uint) (int64, error) {
	res := r.db.Model(&models.Flight{}).Where("id = ? AND seats_available > 0", id).
		UpdateColumn("seats_available", gorm.Expr("seats_available - 1"))
	return res.RowsAffected, res.Error
}

func (r *InventoryRepository) ReleaseFlightSeat(id uint) (int64, error) {
	res := r.db.Model(&models.Flight{}).Where("id = ? AND seats_available < capacity", id).
		UpdateColumn("seats_available", gorm.Expr("seats_available + 1"))
	return res.RowsAffected, res.Error
}

func (r *InventoryRepository) ReserveTourGuest(id uint) (int64, error) {
	res := r.db.Model(&models.Tour{}).Where("id = ? AND guests_booked < max_guests", id).
		UpdateColumn("guests_booked", gorm.Expr("guests_booked + 1"))
	return res.RowsAffected, res.Error
}

func (r *InventoryRepository) ReleaseTourGuest(id uint) (int64, error) {
	res := r.db.Model(&models.Tour{}).Where("id = ? AND guests_booked > 0", id).
		UpdateColumn("guests_booked", gorm.Expr("guests_booked - 1"))
	return res.RowsAffected, res.Error
}

// Exists reports whether a row of model with the given id is present
// (soft-deleted rows excluded).
func (r *InventoryRepository) Exists(model interface{}, id uint) (bool, error) {
	var c int64
	err := r.db.Model(model).Where("id = ?", id).Count(&c).Error
	return c > 0, err
}
