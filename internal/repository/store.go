package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories over one *gorm.DB handle. Inside Transaction
// every repository shares the transaction handle.
type Store struct {
	db *gorm.DB

	Users         *UserRepository
	Bookings      *BookingRepository
	Payments      *PaymentRepository
	Inventory     *InventoryRepository
	Tours         *TourRepository
	Hotels        *HotelRepository
	Rooms         *RoomRepository
	Flights       *FlightRepository
	Notifications *NotificationRepository
	AuditLogs     *AuditLogRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Bookings:      NewBookingRepository(db),
		Payments:      NewPaymentRepository(db),
		Inventory:     NewInventoryRepository(db),
		Tours:         NewTourRepository(db),
		Hotels:        NewHotelRepository(db),
		Rooms:         NewRoomRepository(db),
		Flights:       NewFlightRepository(db),
		Notifications: NewNotificationRepository(db),
		AuditLogs:     NewAuditLogRepository(db),
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// WithContext returns a Store whose queries are bound to ctx.
func (s *Store) WithContext(ctx context.Context) *Store {
	return NewStore(s.db.WithContext(ctx))
}

// Transaction runs fn in a database transaction. Returning an error from fn
// rolls back every write made through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
