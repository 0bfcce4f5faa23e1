package models

import (
	"time"
)

// Payment is hard deleted: only non-completed payments may be removed and the
// unique booking_id index must allow a fresh attempt afterwards.
type Payment struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	BookingID            uint       `gorm:"not null;uniqueIndex" json:"booking_id"`
	UserID               uint       `gorm:"not null;index" json:"user_id"`
	Amount               float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency             string     `gorm:"size:3;not null" json:"currency"`
	PaymentMethod        string     `gorm:"size:20;not null" json:"payment_method"`
	Status               string     `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, FAILED, REFUNDED
	TransactionReference string     `gorm:"size:100;not null;uniqueIndex" json:"transaction_reference"`
	AuthorizationURL     string     `gorm:"size:512" json:"authorization_url"`
	AccessCode           string     `gorm:"size:100" json:"-"`
	PaymentDate          *time.Time `json:"payment_date"`
	RefundReason         string     `gorm:"size:512" json:"refund_reason,omitempty"`
	RefundedAt           *time.Time `json:"refunded_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}
