package payment

import (
	"errors"
	"fmt"
)

// ErrInvalidSignature is returned when a webhook body does not match its
// signature header. It is never retryable.
var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

// GatewayError is a failed provider call. Temporary is set for network
// errors, timeouts and 5xx responses.
type GatewayError struct {
	Op         string
	StatusCode int
	Message    string
	Temporary  bool
	Err        error
}

func (e *GatewayError) Error() string {
	msg := "paystack " + e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

func (e *GatewayError) Retryable() bool { return e.Temporary }

// IsRetryable reports whether err is a temporary provider failure.
func IsRetryable(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Temporary
}
