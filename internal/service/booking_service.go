package service

import (
	"context"
	"errors"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/models"
	"tourbook/internal/repository"
	"tourbook/pkg/payment"

	"github.com/sirupsen/logrus"
)

var errBookingModified = domain.Conflict("BOOKING_MODIFIED", "booking was modified concurrently, retry")

type BookingService struct {
	store    *repository.Store
	guard    *InventoryGuard
	notifier *NotificationService
	log      *logrus.Logger
}

func NewBookingService(store *repository.Store, guard *InventoryGuard, notifier *NotificationService, log *logrus.Logger) *BookingService {
	return &BookingService{store: store, guard: guard, notifier: notifier, log: log}
}

type CreateBookingInput struct {
	UserID      *uint // staff only; customers always book for themselves
	TourID      *uint
	RoomID      *uint
	FlightID    *uint
	TotalPrice  *float64 // staff may override; customers must match the item price
	BookingDate *time.Time
}

// CreateBooking reserves the item and stores a PENDING booking in one
// transaction. The total is the item's current price unless staff set one.
func (s *BookingService) CreateBooking(ctx context.Context, actor Actor, in CreateBookingInput) (*BookingView, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	item, err := itemFromIDs(in.TourID, in.RoomID, in.FlightID)
	if err != nil {
		return nil, err
	}
	if in.TotalPrice != nil && *in.TotalPrice < 0 {
		return nil, domain.ErrInvalidAmount
	}
	ownerID := actor.UserID
	if in.UserID != nil && *in.UserID != actor.UserID {
		if !actor.IsStaff() {
			return nil, domain.ErrForbidden
		}
		ownerID = *in.UserID
	}
	bookingDate := time.Now()
	if in.BookingDate != nil {
		bookingDate = *in.BookingDate
	}

	var id uint
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if ownerID != actor.UserID {
			if _, err := tx.Users.GetByID(ownerID); err != nil {
				return notFoundOr(err, domain.ErrUserNotFound, "USER_LOOKUP_FAILED")
			}
		}
		if err := s.guard.Reserve(tx, item); err != nil {
			return err
		}
		price, err := s.guard.Price(tx, item)
		if err != nil {
			return err
		}
		if in.TotalPrice != nil {
			switch {
			case actor.IsStaff():
				price = *in.TotalPrice
			case !payment.SameAmount(*in.TotalPrice, price):
				return domain.ErrPriceMismatch
			}
		}
		b := &models.Booking{
			UserID:      ownerID,
			TotalPrice:  price,
			Status:      domain.BookingStatusPending,
			BookingDate: bookingDate,
		}
		setItem(b, item)
		if err := tx.Bookings.Create(b); err != nil {
			return domain.Internal("BOOKING_CREATE_FAILED", err)
		}
		id = b.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"booking_id": id, "user_id": ownerID, "type": item.Kind, "item_id": item.ID}).Info("booking created")
	return s.view(ctx, id)
}

func (s *BookingService) GetBooking(ctx context.Context, actor Actor, id uint) (*BookingView, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	b, err := s.store.WithContext(ctx).Bookings.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrBookingNotFound, "BOOKING_LOOKUP_FAILED")
	}
	if !actor.CanAccess(b.UserID) {
		return nil, domain.ErrForbidden
	}
	return s.shape(b)
}

// ValidateBookingFilter checks the filter and scopes customers to their own bookings.
func ValidateBookingFilter(actor Actor, f repository.BookingFilter) (repository.BookingFilter, error) {
	if f.Status != "" && !domain.IsBookingStatus(f.Status) {
		return f, domain.ErrInvalidBookingStatus
	}
	if f.Type != "" && !domain.IsBookingType(f.Type) {
		return f, domain.ErrInvalidFilter.Wrap(errors.New("type must be TOUR, ROOM or FLIGHT"))
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, domain.ErrInvalidFilter.Wrap(errors.New("from must not be after to"))
	}
	if f.Page < 0 || f.Limit < 0 {
		return f, domain.ErrInvalidFilter.Wrap(errors.New("page and limit must be positive"))
	}
	if !actor.IsStaff() {
		uid := actor.UserID
		f.UserID = &uid
	}
	return f, nil
}

func (s *BookingService) ListBookings(ctx context.Context, actor Actor, f repository.BookingFilter) ([]BookingView, int64, error) {
	if !actor.Authenticated() {
		return nil, 0, domain.ErrUnauthenticated
	}
	f, err := ValidateBookingFilter(actor, f)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := s.store.WithContext(ctx).Bookings.List(f)
	if err != nil {
		return nil, 0, domain.Internal("BOOKING_LIST_FAILED", err)
	}
	views, err := ToBookingViews(list)
	if err != nil {
		s.log.WithError(err).Error("data integrity: booking without item in list")
		return nil, 0, err
	}
	return views, total, nil
}

type UpdateBookingInput struct {
	TourID      *uint
	RoomID      *uint
	FlightID    *uint
	TotalPrice  *float64 // staff only
	BookingDate *time.Time
	Status      *string // staff only: CANCELLED or COMPLETED
}

func (in UpdateBookingInput) switchesItem() bool {
	return in.TourID != nil || in.RoomID != nil || in.FlightID != nil
}

// UpdateBooking switches the booked item, reprices, reschedules or moves the
// status of a booking.
func (s *BookingService) UpdateBooking(ctx context.Context, actor Actor, id uint, in UpdateBookingInput) (*BookingView, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if (in.TotalPrice != nil || in.Status != nil) && !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	if in.TotalPrice != nil && *in.TotalPrice < 0 {
		return nil, domain.ErrInvalidAmount
	}
	if in.Status != nil && !domain.IsBookingStatus(*in.Status) {
		return nil, domain.ErrInvalidBookingStatus
	}
	var newItem Item
	if in.switchesItem() {
		var err error
		if newItem, err = itemFromIDs(in.TourID, in.RoomID, in.FlightID); err != nil {
			return nil, err
		}
	}

	var cancelled *models.Booking
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.Get(id)
		if err != nil {
			return notFoundOr(err, domain.ErrBookingNotFound, "BOOKING_LOOKUP_FAILED")
		}
		if !actor.CanAccess(b.UserID) {
			return domain.ErrForbidden
		}
		fields := map[string]interface{}{}
		if in.switchesItem() {
			oldItem, _ := ItemOf(b)
			if oldItem != newItem {
				if err := s.switchItem(tx, b, oldItem, newItem, fields); err != nil {
					return err
				}
				if in.TotalPrice == nil {
					price, err := s.guard.Price(tx, newItem)
					if err != nil {
						return err
					}
					fields["total_price"] = price
				}
			}
		}
		if in.TotalPrice != nil {
			if err := s.ensureRepriceable(tx, b.ID); err != nil {
				return err
			}
			fields["total_price"] = *in.TotalPrice
		}
		if in.BookingDate != nil {
			fields["booking_date"] = *in.BookingDate
		}
		if len(fields) > 0 {
			if err := tx.Bookings.UpdateFields(b.ID, fields); err != nil {
				return domain.Internal("BOOKING_UPDATE_FAILED", err)
			}
			setItemFromFields(b, fields)
		}
		if in.Status != nil && *in.Status != b.Status {
			if err := staffStatusAllowed(b.Status, *in.Status); err != nil {
				return err
			}
			if *in.Status == domain.BookingStatusCancelled {
				if err := s.voidPendingPayment(tx, b.ID); err != nil {
					return err
				}
			}
			if err := s.setStatus(tx, b, *in.Status); err != nil {
				return err
			}
			if b.Status == domain.BookingStatusCancelled {
				cancelled = b
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cancelled != nil {
		s.notifier.BookingCancelled(ctx, cancelled)
	}
	s.log.WithFields(logrus.Fields{"booking_id": id, "actor_id": actor.UserID}).Info("booking updated")
	return s.view(ctx, id)
}

func (s *BookingService) switchItem(tx *repository.Store, b *models.Booking, oldItem, newItem Item, fields map[string]interface{}) error {
	if b.Status != domain.BookingStatusPending {
		return domain.ErrBookingNotPending
	}
	if err := s.ensureRepriceable(tx, b.ID); err != nil {
		return err
	}
	if err := s.guard.Reserve(tx, newItem); err != nil {
		return err
	}
	if oldItem.ID != 0 {
		if err := s.guard.Release(tx, oldItem); err != nil {
			return err
		}
	}
	fields["tour_id"], fields["room_id"], fields["flight_id"] = nil, nil, nil
	switch newItem.Kind {
	case domain.BookingTypeTour:
		fields["tour_id"] = newItem.ID
	case domain.BookingTypeRoom:
		fields["room_id"] = newItem.ID
	case domain.BookingTypeFlight:
		fields["flight_id"] = newItem.ID
	}
	return nil
}

// CancelBooking lets owners cancel their PENDING bookings and staff cancel
// PENDING or CONFIRMED ones. Paid bookings must be refunded instead. An open
// checkout is failed with the booking so it can no longer confirm it.
func (s *BookingService) CancelBooking(ctx context.Context, actor Actor, id uint) (*BookingView, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	var b *models.Booking
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		b, err = tx.Bookings.Get(id)
		if err != nil {
			return notFoundOr(err, domain.ErrBookingNotFound, "BOOKING_LOOKUP_FAILED")
		}
		if !actor.CanAccess(b.UserID) {
			return domain.ErrForbidden
		}
		switch {
		case b.Status == domain.BookingStatusPending:
		case b.Status == domain.BookingStatusConfirmed && actor.IsStaff():
		default:
			return domain.ErrInvalidTransition
		}
		if err := s.voidPendingPayment(tx, b.ID); err != nil {
			return err
		}
		return s.setStatus(tx, b, domain.BookingStatusCancelled)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"booking_id": id, "actor_id": actor.UserID}).Info("booking cancelled")
	s.notifier.BookingCancelled(ctx, b)
	return s.view(ctx, id)
}

// DeleteBooking removes a booking and its unpaid payment, returning the
// inventory unit unless the booking was already cancelled.
func (s *BookingService) DeleteBooking(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.Get(id)
		if err != nil {
			return notFoundOr(err, domain.ErrBookingNotFound, "BOOKING_LOOKUP_FAILED")
		}
		p, err := tx.Payments.GetByBookingID(b.ID)
		switch {
		case err == nil:
			if p.Status == domain.PaymentStatusCompleted {
				return domain.ErrBookingHasPayment
			}
			ok, err := tx.Payments.DeleteIfNot(p.ID, domain.PaymentStatusCompleted)
			if err != nil {
				return domain.Internal("PAYMENT_DELETE_FAILED", err)
			}
			if !ok {
				return domain.ErrBookingHasPayment
			}
		case !repository.IsNotFound(err):
			return domain.Internal("PAYMENT_LOOKUP_FAILED", err)
		}
		if b.Status != domain.BookingStatusCancelled {
			if item, ok := ItemOf(b); ok {
				if err := s.guard.Release(tx, item); err != nil {
					return err
				}
			}
		}
		if err := tx.Bookings.Delete(b.ID); err != nil {
			return domain.Internal("BOOKING_DELETE_FAILED", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"booking_id": id, "actor_id": actor.UserID}).Info("booking deleted")
	return nil
}

// setStatus is the only writer of booking status. Moving into CANCELLED
// releases the item, moving out of CANCELLED reserves it again (and may fail
// with CAPACITY_EXHAUSTED, rolling back the caller's transaction).
func (s *BookingService) setStatus(tx *repository.Store, b *models.Booking, to string) error {
	from := b.Status
	if from == to {
		return nil
	}
	ok, err := tx.Bookings.UpdateStatus(b.ID, from, to)
	if err != nil {
		return domain.Internal("BOOKING_STATUS_FAILED", err)
	}
	if !ok {
		return errBookingModified
	}
	if item, has := ItemOf(b); has {
		switch {
		case to == domain.BookingStatusCancelled:
			if err := s.guard.Release(tx, item); err != nil {
				return err
			}
		case from == domain.BookingStatusCancelled:
			if err := s.guard.Reserve(tx, item); err != nil {
				return err
			}
		}
	}
	b.Status = to
	return nil
}

func (s *BookingService) paymentOf(tx *repository.Store, bookingID uint) (*models.Payment, error) {
	p, err := tx.Payments.GetByBookingID(bookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, domain.Internal("PAYMENT_LOOKUP_FAILED", err)
	}
	return p, nil
}

// ensureRepriceable refuses item or price changes once a checkout was opened
// for the current total or the booking is paid.
func (s *BookingService) ensureRepriceable(tx *repository.Store, bookingID uint) error {
	p, err := s.paymentOf(tx, bookingID)
	if err != nil || p == nil {
		return err
	}
	switch p.Status {
	case domain.PaymentStatusCompleted:
		return domain.ErrBookingHasPayment
	case domain.PaymentStatusPending:
		return domain.ErrPaymentInProgress
	}
	return nil
}

// voidPendingPayment fails the open checkout of a booking being cancelled.
// Completed payments block the cancellation.
func (s *BookingService) voidPendingPayment(tx *repository.Store, bookingID uint) error {
	p, err := s.paymentOf(tx, bookingID)
	if err != nil || p == nil {
		return err
	}
	switch p.Status {
	case domain.PaymentStatusCompleted:
		return domain.ErrBookingHasPayment
	case domain.PaymentStatusPending:
		ok, err := tx.Payments.Transition(p.ID, domain.PaymentStatusPending, domain.PaymentStatusFailed, nil)
		if err != nil {
			return domain.Internal("PAYMENT_UPDATE_FAILED", err)
		}
		if !ok {
			return errBookingModified
		}
		s.log.WithFields(logrus.Fields{"payment_id": p.ID, "booking_id": bookingID, "reference": p.TransactionReference}).
			Info("pending payment failed with cancelled booking")
	}
	return nil
}

// staffStatusAllowed guards direct status edits. CONFIRMED is only reachable
// through payment reconciliation.
func staffStatusAllowed(from, to string) error {
	switch to {
	case domain.BookingStatusCancelled:
		if from == domain.BookingStatusPending || from == domain.BookingStatusConfirmed {
			return nil
		}
	case domain.BookingStatusCompleted:
		if from == domain.BookingStatusConfirmed {
			return nil
		}
	}
	return domain.ErrInvalidTransition
}

func (s *BookingService) view(ctx context.Context, id uint) (*BookingView, error) {
	b, err := s.store.WithContext(ctx).Bookings.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrBookingNotFound, "BOOKING_LOOKUP_FAILED")
	}
	return s.shape(b)
}

func (s *BookingService) shape(b *models.Booking) (*BookingView, error) {
	v, err := ToBookingView(b)
	if err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Error("data integrity: booking without item")
		return nil, err
	}
	return v, nil
}

func setItem(b *models.Booking, item Item) {
	id := item.ID
	b.TourID, b.RoomID, b.FlightID = nil, nil, nil
	switch item.Kind {
	case domain.BookingTypeTour:
		b.TourID = &id
	case domain.BookingTypeRoom:
		b.RoomID = &id
	case domain.BookingTypeFlight:
		b.FlightID = &id
	}
}

// setItemFromFields mirrors an item switch written through UpdateFields onto b.
func setItemFromFields(b *models.Booking, fields map[string]interface{}) {
	for col, kind := range map[string]string{"tour_id": domain.BookingTypeTour, "room_id": domain.BookingTypeRoom, "flight_id": domain.BookingTypeFlight} {
		if v, ok := fields[col].(uint); ok {
			setItem(b, Item{Kind: kind, ID: v})
		}
	}
}
