package domain

const (
	RoleAdmin    = "ADMIN"
	RoleAgent    = "AGENT"
	RoleCustomer = "CUSTOMER"
)

// IsStaff reports whether the role may act on bookings owned by other users.
func IsStaff(role string) bool { return role == RoleAdmin || role == RoleAgent }

func IsRole(role string) bool { return IsStaff(role) || role == RoleCustomer }

// Booking item kinds. A booking references exactly one of them.
const (
	BookingTypeTour   = "TOUR"
	BookingTypeRoom   = "ROOM"
	BookingTypeFlight = "FLIGHT"
)

const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusCompleted = "COMPLETED"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusRefunded  = "REFUNDED"
)

const (
	PaymentMethodCreditCard   = "CREDIT_CARD"
	PaymentMethodDebitCard    = "DEBIT_CARD"
	PaymentMethodMobileMoney  = "MOBILE_MONEY"
	PaymentMethodBankTransfer = "BANK_TRANSFER"
)

func IsBookingStatus(s string) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

func IsBookingType(s string) bool {
	switch s {
	case BookingTypeTour, BookingTypeRoom, BookingTypeFlight:
		return true
	}
	return false
}

func IsPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

func IsPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodMobileMoney, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// Notification types pushed to booking owners.
const (
	NotifPaymentConfirmed = "PAYMENT_CONFIRMED"
	NotifPaymentFailed    = "PAYMENT_FAILED"
	NotifPaymentRefunded  = "PAYMENT_REFUNDED"
	NotifBookingCancelled = "BOOKING_CANCELLED"
)

// Broker routing keys.
const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventPaymentRefunded  = "payment.refunded"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)
