package enums

import "fmt"

// PaymentState tracks the logical payment position of an order. Physical
// settlement is the payment processor's concern; this value only records
// where the platform believes the money is.
type PaymentState string

const (
	PaymentStatePending  PaymentState = "pending"
	PaymentStateHeld     PaymentState = "held"
	PaymentStateReleased PaymentState = "released"
	PaymentStateRefunded PaymentState = "refunded"
	PaymentStateFailed   PaymentState = "failed"
)

var validPaymentStates = []PaymentState{
	PaymentStatePending,
	PaymentStateHeld,
	PaymentStateReleased,
	PaymentStateRefunded,
	PaymentStateFailed,
}

// String implements fmt.Stringer.
func (p PaymentState) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentState.
func (p PaymentState) IsValid() bool {
	for _, candidate := range validPaymentStates {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentState converts raw input into a PaymentState.
func ParsePaymentState(value string) (PaymentState, error) {
	for _, candidate := range validPaymentStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment state %q", value)
}
