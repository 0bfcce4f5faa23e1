package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping and retry decisions.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindValidation
	KindCapacity
	KindStateTransition
	KindConflict
	KindGateway
	KindSignature
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindCapacity:
		return "capacity_exhausted"
	case KindStateTransition:
		return "state_transition"
	case KindConflict:
		return "conflict"
	case KindGateway:
		return "gateway"
	case KindSignature:
		return "signature"
	}
	return "internal"
}

// Error is the domain error carried from services to handlers. Code is stable
// and machine readable; Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so wrapped copies of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether the caller may retry the operation.
func (e *Error) Retryable() bool { return e.Kind == KindGateway }

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func NotFound(code, msg string) *Error        { return newErr(KindNotFound, code, msg) }
func Unauthorized(code, msg string) *Error    { return newErr(KindUnauthorized, code, msg) }
func Forbidden(code, msg string) *Error       { return newErr(KindForbidden, code, msg) }
func Validation(code, msg string) *Error      { return newErr(KindValidation, code, msg) }
func Capacity(code, msg string) *Error        { return newErr(KindCapacity, code, msg) }
func StateTransition(code, msg string) *Error { return newErr(KindStateTransition, code, msg) }
func Conflict(code, msg string) *Error        { return newErr(KindConflict, code, msg) }

// Internal wraps an unexpected failure.
func Internal(code string, err error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: "internal error", Err: err}
}

// Gateway wraps a payment provider failure.
func Gateway(err error) *Error {
	return &Error{Kind: KindGateway, Code: "GATEWAY_ERROR", Message: "payment provider unavailable", Err: err}
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// KindOf returns the Kind of err, KindInternal for non-domain errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	ErrUnauthenticated = Unauthorized("UNAUTHENTICATED", "authentication required")
	ErrForbidden       = Forbidden("FORBIDDEN", "you are not allowed to perform this action")

	ErrUserNotFound    = NotFound("USER_NOT_FOUND", "user not found")
	ErrBookingNotFound = NotFound("BOOKING_NOT_FOUND", "booking not found")
	ErrPaymentNotFound = NotFound("PAYMENT_NOT_FOUND", "payment not found")
	ErrTourNotFound    = NotFound("TOUR_NOT_FOUND", "tour not found")
	ErrHotelNotFound   = NotFound("HOTEL_NOT_FOUND", "hotel not found")
	ErrRoomNotFound    = NotFound("ROOM_NOT_FOUND", "room not found")
	ErrFlightNotFound  = NotFound("FLIGHT_NOT_FOUND", "flight not found")

	ErrInvalidBookingItem   = Validation("INVALID_BOOKING_ITEM", "exactly one of tour_id, room_id or flight_id is required")
	ErrInvalidAmount        = Validation("INVALID_AMOUNT", "total_price must be zero or positive")
	ErrPriceMismatch        = Validation("PRICE_MISMATCH", "total_price must match the price of the booked item")
	ErrInvalidPaymentMethod = Validation("INVALID_PAYMENT_METHOD", "payment_method must be one of CREDIT_CARD, DEBIT_CARD, MOBILE_MONEY, BANK_TRANSFER")
	ErrInvalidPaymentStatus = Validation("INVALID_PAYMENT_STATUS", "status must be one of PENDING, COMPLETED, FAILED, REFUNDED")
	ErrInvalidBookingStatus = Validation("INVALID_BOOKING_STATUS", "status must be one of PENDING, CONFIRMED, CANCELLED, COMPLETED")
	ErrInvalidFilter        = Validation("INVALID_FILTER", "invalid filter")
	ErrMissingReference     = Validation("MISSING_REFERENCE", "payment reference is required")

	ErrCapacityExhausted = Capacity("CAPACITY_EXHAUSTED", "the selected item is no longer available")

	ErrInvalidTransition = StateTransition("INVALID_TRANSITION", "status transition not allowed")
	ErrBookingNotPending = StateTransition("BOOKING_NOT_PENDING", "booking is not awaiting payment")
	ErrPaymentCompleted  = StateTransition("PAYMENT_COMPLETED", "completed payments cannot be deleted; refund instead")
	ErrNotRefundable     = StateTransition("PAYMENT_NOT_REFUNDABLE", "only completed payments can be refunded")
	ErrBookingHasPayment = StateTransition("BOOKING_HAS_COMPLETED_PAYMENT", "booking has a completed payment")

	ErrPaymentExists     = Conflict("PAYMENT_EXISTS", "a payment already exists for this booking")
	ErrPaymentInProgress = Conflict("PAYMENT_IN_PROGRESS", "booking has a pending payment; cancel the booking to change it")
	ErrEmailExists       = Conflict("EMAIL_EXISTS", "email already registered")
	ErrDuplicate         = Conflict("DUPLICATE", "resource already exists")
	ErrTourHasBookings   = Conflict("TOUR_HAS_BOOKINGS", "tour has bookings")
	ErrHotelHasRooms     = Conflict("HOTEL_HAS_BOOKINGS", "hotel has booked rooms")

	ErrInvalidCredentials = Unauthorized("INVALID_CREDENTIALS", "invalid email or password")
	ErrInvalidSignature   = &Error{Kind: KindSignature, Code: "INVALID_SIGNATURE", Message: "invalid webhook signature"}

	ErrBookingWithoutItem = &Error{Kind: KindInternal, Code: "BOOKING_WITHOUT_ITEM", Message: "booking has no associated item"}
)
