package payment

import (
	"context"
	"math"
)

// InitializeRequest describes a transaction to open with the provider.
// Amount is in major currency units; providers convert to minor units.
type InitializeRequest struct {
	Amount      float64
	Currency    string
	Email       string
	Reference   string
	Channel     string
	CallbackURL string
	Metadata    map[string]interface{}
}

type Initialization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Verification is the provider's view of a transaction. Amount is in major
// units, AmountMinor is the raw provider value.
type Verification struct {
	Status      string
	Reference   string
	Amount      float64
	AmountMinor int64
	Currency    string
	Metadata    map[string]interface{}
}

// Succeeded reports whether the provider considers the charge successful.
func (v *Verification) Succeeded() bool { return v.Status == StatusSuccess }

const StatusSuccess = "success"

// Gateway is a payment provider able to open, verify and authenticate
// transactions.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
	VerifySignature(rawBody []byte, signature string) bool
}

// ChannelFor maps a payment method to the provider channel. Unknown methods
// fall back to card.
func ChannelFor(method string) string {
	switch method {
	case "CREDIT_CARD", "DEBIT_CARD":
		return "card"
	case "MOBILE_MONEY":
		return "mobile_money"
	case "BANK_TRANSFER":
		return "bank"
	}
	return "card"
}

// ToMinor converts a major unit amount to minor units (x100, rounded).
func ToMinor(major float64) int64 {
	return int64(math.Round(major * 100))
}

func FromMinor(minor int64) float64 {
	return float64(minor) / 100
}

// SameAmount compares two major unit amounts at cent precision.
func SameAmount(a, b float64) bool {
	return ToMinor(a) == ToMinor(b)
}
