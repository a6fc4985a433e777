package enums

import "fmt"

// OrderState tracks the lifecycle of a marketplace order.
type OrderState string

const (
	OrderStatePlaced    OrderState = "placed"
	OrderStateAccepted  OrderState = "accepted"
	OrderStateConfirmed OrderState = "confirmed"
	OrderStateShipped   OrderState = "shipped"
	OrderStateDelivered OrderState = "delivered"
	OrderStateCompleted OrderState = "completed"
	OrderStateCancelled OrderState = "cancelled"
)

var validOrderStates = []OrderState{
	OrderStatePlaced,
	OrderStateAccepted,
	OrderStateConfirmed,
	OrderStateShipped,
	OrderStateDelivered,
	OrderStateCompleted,
	OrderStateCancelled,
}

// String implements fmt.Stringer.
func (o OrderState) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderState.
func (o OrderState) IsValid() bool {
	for _, candidate := range validOrderStates {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order can no longer change state.
func (o OrderState) IsTerminal() bool {
	return o == OrderStateCompleted || o == OrderStateCancelled
}

// ParseOrderState converts raw input into an OrderState.
func ParseOrderState(value string) (OrderState, error) {
	for _, candidate := range validOrderStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order state %q", value)
}
