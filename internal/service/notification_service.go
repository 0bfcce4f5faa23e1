package service

import (
	"context"
	"encoding/json"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/models"
	"tourbook/internal/repository"
	"tourbook/pkg/queue"

	"github.com/sirupsen/logrus"
)

// Pusher delivers a realtime message to every open connection of a user.
type Pusher interface {
	SendToUser(userID uint, payload interface{})
}

type NotificationService struct {
	store  *repository.Store
	hub    Pusher
	events queue.Publisher
	log    *logrus.Logger
}

func NewNotificationService(store *repository.Store, hub Pusher, events queue.Publisher, log *logrus.Logger) *NotificationService {
	if events == nil {
		events = queue.Discard{}
	}
	return &NotificationService{store: store, hub: hub, events: events, log: log}
}

// Notify stores an in-app notification and pushes it to the user's sockets.
func (s *NotificationService) Notify(ctx context.Context, userID uint, bookingID *uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	n := &models.Notification{
		UserID:    userID,
		BookingID: bookingID,
		Type:      notifType,
		Title:     title,
		Body:      body,
		Data:      dataJSON,
	}
	if err := s.store.WithContext(ctx).Notifications.Create(n); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.SendToUser(userID, map[string]interface{}{
			"type":         notifType,
			"notification": n,
			"data":         data,
		})
	}
	return nil
}

// Publish sends an event to the broker. Failures are logged, never returned:
// the database is the source of truth.
func (s *NotificationService) Publish(ctx context.Context, routingKey string, data interface{}) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, routingKey, data); err != nil {
		s.log.WithError(err).WithField("event", routingKey).Warn("event publish failed")
	}
}

func (s *NotificationService) List(ctx context.Context, userID uint, page, limit int) ([]models.Notification, error) {
	offset, size := repository.Page(page, limit)
	list, err := s.store.WithContext(ctx).Notifications.ListByUserID(userID, size, offset)
	if err != nil {
		return nil, domain.Internal("NOTIFICATION_LIST_FAILED", err)
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	ok, err := s.store.WithContext(ctx).Notifications.MarkRead(id, userID)
	if err != nil {
		return domain.Internal("NOTIFICATION_UPDATE_FAILED", err)
	}
	if !ok {
		return domain.NotFound("NOTIFICATION_NOT_FOUND", "notification not found")
	}
	return nil
}

// paymentEvent is the payload published and pushed for payment transitions.
type paymentEvent struct {
	PaymentID     uint    `json:"payment_id"`
	BookingID     uint    `json:"booking_id"`
	UserID        uint    `json:"user_id"`
	Reference     string  `json:"reference"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentStatus string  `json:"payment_status"`
	BookingStatus string  `json:"booking_status"`
	Reason        string  `json:"reason,omitempty"`
}

// PaymentChanged fans out a committed payment transition.
func (s *NotificationService) PaymentChanged(ctx context.Context, p *models.Payment, bookingStatus string) {
	ev := paymentEvent{
		PaymentID:     p.ID,
		BookingID:     p.BookingID,
		UserID:        p.UserID,
		Reference:     p.TransactionReference,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentStatus: p.Status,
		BookingStatus: bookingStatus,
		Reason:        p.RefundReason,
	}
	data := map[string]interface{}{
		"payment_id":     p.ID,
		"reference":      p.TransactionReference,
		"amount":         p.Amount,
		"payment_status": p.Status,
		"booking_status": bookingStatus,
	}
	bookingID := p.BookingID
	var notifType, title, body string
	var keys []string
	switch p.Status {
	case domain.PaymentStatusCompleted:
		notifType, title, body = domain.NotifPaymentConfirmed, "Payment confirmed", "Your payment was successful and your booking is confirmed."
		keys = []string{domain.EventPaymentCompleted, domain.EventBookingConfirmed}
	case domain.PaymentStatusFailed:
		notifType, title, body = domain.NotifPaymentFailed, "Payment failed", "Your payment could not be completed. You can try again."
		keys = []string{domain.EventPaymentFailed}
	case domain.PaymentStatusRefunded:
		notifType, title, body = domain.NotifPaymentRefunded, "Payment refunded", "Your payment was refunded and the booking cancelled."
		keys = []string{domain.EventPaymentRefunded, domain.EventBookingCancelled}
	default:
		return
	}
	if err := s.Notify(ctx, p.UserID, &bookingID, notifType, title, body, data); err != nil {
		s.log.WithError(err).WithField("payment_id", p.ID).Warn("notification failed")
	}
	for _, k := range keys {
		s.Publish(ctx, k, ev)
	}
}

// BookingCancelled notifies the owner of a cancelled booking.
func (s *NotificationService) BookingCancelled(ctx context.Context, b *models.Booking) {
	bookingID := b.ID
	if err := s.Notify(ctx, b.UserID, &bookingID, domain.NotifBookingCancelled, "Booking cancelled",
		"Your booking has been cancelled.", map[string]interface{}{"booking_id": b.ID}); err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("notification failed")
	}
	s.Publish(ctx, domain.EventBookingCancelled, map[string]interface{}{
		"booking_id": b.ID,
		"user_id":    b.UserID,
		"status":     b.Status,
	})
}
