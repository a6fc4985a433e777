package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderCreatedEvent announces a newly placed order.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID `json:"orderId"`
	BuyerID    uuid.UUID `json:"buyerId"`
	SellerID   uuid.UUID `json:"sellerId"`
	TotalCents int       `json:"totalCents"`
	Currency   string    `json:"currency"`
	PlacedAt   time.Time `json:"placedAt"`
}

// OrderStateChangedEvent describes an applied order transition.
type OrderStateChangedEvent struct {
	OrderID      uuid.UUID `json:"orderId"`
	Action       string    `json:"action"`
	FromState    string    `json:"fromState"`
	ToState      string    `json:"toState"`
	PaymentState string    `json:"paymentState"`
	Version      int       `json:"version"`
}

// ReturnStateChangedEvent describes an applied return transition, including
// the opening of a new return.
type ReturnStateChangedEvent struct {
	ReturnID    uuid.UUID `json:"returnId"`
	OrderID     uuid.UUID `json:"orderId"`
	Action      string    `json:"action"`
	FromState   string    `json:"fromState"`
	ToState     string    `json:"toState"`
	AmountCents int       `json:"amountCents"`
	Version     int       `json:"version"`
}

// PaymentStateChangedEvent describes a logical payment-state move; the payment
// processor consumes these to settle money movement.
type PaymentStateChangedEvent struct {
	OrderID     uuid.UUID  `json:"orderId"`
	FromState   string     `json:"fromState"`
	ToState     string     `json:"toState"`
	Cause       string     `json:"cause"`
	AmountCents int        `json:"amountCents"`
	ReturnID    *uuid.UUID `json:"returnId,omitempty"`
}
