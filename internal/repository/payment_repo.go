package repository

import (
	"time"

	"tourbook/internal/models"

	"gorm.io/gorm"
)

type PaymentFilter struct {
	UserID    *uint
	BookingID *uint
	Status    string
	Method    string
	Page      int
	Limit     int
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByReference(ref string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("transaction_reference = ?", ref).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByBookingID(bookingID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("booking_id = ?", bookingID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Transition sets status to `to` only while the row is still in `from`.
// paidAt is written when non-nil. The bool is false when another writer got
// there first.
func (r *PaymentRepository) Transition(id uint, from, to string, paidAt *time.Time) (bool, error) {
	fields := map[string]interface{}{"status": to}
	if paidAt != nil {
		fields["payment_date"] = *paidAt
	}
	res := r.db.Model(&models.Payment{}).Where("id = ? AND status = ?", id, from).Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkRefunded moves a COMPLETED payment to REFUNDED.
func (r *PaymentRepository) MarkRefunded(id uint, from, to, reason string, at time.Time) (bool, error) {
	res := r.db.Model(&models.Payment{}).Where("id = ? AND status = ?", id, from).Updates(map[string]interface{}{
		"status":        to,
		"refund_reason": reason,
		"refunded_at":   at,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteIfNot hard deletes the payment unless it is in status `protected`.
func (r *PaymentRepository) DeleteIfNot(id uint, protected string) (bool, error) {
	res := r.db.Where("id = ? AND status <> ?", id, protected).Delete(&models.Payment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PaymentRepository) List(f PaymentFilter) ([]models.Payment, int64, error) {
	q := r.db.Model(&models.Payment{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.BookingID != nil {
		q = q.Where("booking_id = ?", *f.BookingID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Method != "" {
		q = q.Where("payment_method = ?", f.Method)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := Page(f.Page, f.Limit)
	var list []models.Payment
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
