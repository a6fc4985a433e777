package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
)

// Snapshot is the read model returned to API callers. Amounts cross the wire
// as fixed two-decimal strings.
type Snapshot struct {
	ID            string     `json:"id"`
	BuyerID       string     `json:"buyerId"`
	SellerID      string     `json:"sellerId"`
	OrderState    string     `json:"orderState"`
	PaymentState  string     `json:"paymentState"`
	Total         string     `json:"total"`
	RefundedTotal string     `json:"refundedTotal"`
	Currency      string     `json:"currency"`
	Version       int        `json:"version"`
	PlacedAt      time.Time  `json:"placedAt"`
	AcceptedAt    *time.Time `json:"acceptedAt,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmedAt,omitempty"`
	ShippedAt     *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt   *time.Time `json:"deliveredAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
}

// NewSnapshot converts a stored order into its API view.
func NewSnapshot(order *models.Order) Snapshot {
	return Snapshot{
		ID:            order.ID.String(),
		BuyerID:       order.BuyerID.String(),
		SellerID:      order.SellerID.String(),
		OrderState:    order.OrderState.String(),
		PaymentState:  order.PaymentState.String(),
		Total:         CentsToDecimalString(order.TotalCents),
		RefundedTotal: CentsToDecimalString(order.RefundedCents),
		Currency:      order.Currency.String(),
		Version:       order.Version,
		PlacedAt:      order.CreatedAt,
		AcceptedAt:    order.AcceptedAt,
		ConfirmedAt:   order.ConfirmedAt,
		ShippedAt:     order.ShippedAt,
		DeliveredAt:   order.DeliveredAt,
		CompletedAt:   order.CompletedAt,
		CancelledAt:   order.CancelledAt,
	}
}

// CentsToDecimalString renders cents as a "12.34" style string.
func CentsToDecimalString(cents int) string {
	return decimal.New(int64(cents), -2).StringFixed(2)
}

// DecimalStringToCents parses a "12.34" style amount into cents. Values with
// more than two decimal places are rejected rather than rounded.
func DecimalStringToCents(value string) (int, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", value)
	}
	cents := amount.Mul(decimal.New(100, 0))
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than two decimal places", value)
	}
	return int(cents.IntPart()), nil
}
