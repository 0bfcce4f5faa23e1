package service

import "tourbook/internal/domain"

// adminTransitions lists the statuses an admin may move a payment to.
// REFUNDED is terminal and COMPLETED never goes back to PENDING or FAILED.
var adminTransitions = map[string][]string{
	domain.PaymentStatusPending:   {domain.PaymentStatusPending, domain.PaymentStatusCompleted, domain.PaymentStatusFailed, domain.PaymentStatusRefunded},
	domain.PaymentStatusFailed:    {domain.PaymentStatusCompleted, domain.PaymentStatusFailed, domain.PaymentStatusRefunded},
	domain.PaymentStatusCompleted: {domain.PaymentStatusCompleted, domain.PaymentStatusRefunded},
	domain.PaymentStatusRefunded:  nil,
}

// CanTransition reports whether an admin may move a payment from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range adminTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// bookingStatusFor is the booking status paired with a payment status.
func bookingStatusFor(paymentStatus string) string {
	switch paymentStatus {
	case domain.PaymentStatusCompleted:
		return domain.BookingStatusConfirmed
	case domain.PaymentStatusFailed, domain.PaymentStatusRefunded:
		return domain.BookingStatusCancelled
	}
	return domain.BookingStatusPending
}
