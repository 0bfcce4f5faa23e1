package worker

import (
	"context"
	"fmt"

	"tourbook/internal/domain"
	"tourbook/pkg/queue"

	"github.com/sirupsen/logrus"
)

// Queues are the routing keys the worker subscribes to.
var Queues = []string{
	domain.EventPaymentCompleted,
	domain.EventPaymentFailed,
	domain.EventPaymentRefunded,
	domain.EventBookingConfirmed,
	domain.EventBookingCancelled,
}

// Sender delivers an out-of-band message (email, SMS) to a user.
type Sender interface {
	Send(ctx context.Context, userID uint, subject, body string) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Log logrus.FieldLogger
}

func (s LogSender) Send(_ context.Context, userID uint, subject, body string) error {
	s.Log.WithFields(logrus.Fields{"user_id": userID, "subject": subject}).Info(body)
	return nil
}

type Dispatcher struct {
	sender Sender
	log    logrus.FieldLogger
}

func NewDispatcher(sender Sender, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{sender: sender, log: log}
}

// Handle turns a domain event into a customer message. Unknown event types
// are acknowledged and skipped.
func (d *Dispatcher) Handle(ctx context.Context, ev queue.Event) error {
	data, _ := ev.Data.(map[string]interface{})
	userID := uintField(data, "user_id")
	if userID == 0 {
		d.log.WithField("type", ev.Type).Warn("event without user_id, skipped")
		return nil
	}
	bookingID := uintField(data, "booking_id")

	var subject, body string
	switch ev.Type {
	case domain.EventPaymentCompleted:
		subject = "Payment received"
		body = fmt.Sprintf("We received your payment of %v for booking #%d.", data["amount"], bookingID)
	case domain.EventPaymentFailed:
		subject = "Payment failed"
		body = fmt.Sprintf("Your payment for booking #%d did not go through.", bookingID)
	case domain.EventPaymentRefunded:
		subject = "Payment refunded"
		body = fmt.Sprintf("Your payment for booking #%d has been refunded.", bookingID)
	case domain.EventBookingConfirmed:
		subject = "Booking confirmed"
		body = fmt.Sprintf("Booking #%d is confirmed.", bookingID)
	case domain.EventBookingCancelled:
		subject = "Booking cancelled"
		body = fmt.Sprintf("Booking #%d was cancelled.", bookingID)
	default:
		return nil
	}
	return d.sender.Send(ctx, userID, subject, body)
}

// uintField reads a JSON number decoded into interface{}.
func uintField(data map[string]interface{}, key string) uint {
	switch v := data[key].(type) {
	case float64:
		if v > 0 {
			return uint(v)
		}
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}
