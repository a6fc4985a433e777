package returns

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
)

// View is the API shape of a return.
type View struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"orderId"`
	State       string     `json:"state"`
	Amount      string     `json:"amount"`
	Reason      string     `json:"reason"`
	AdminReason *string    `json:"adminReason,omitempty"`
	Version     int        `json:"version"`
	RequestedAt time.Time  `json:"requestedAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	RejectedAt  *time.Time `json:"rejectedAt,omitempty"`
	ReturnedAt  *time.Time `json:"returnedAt,omitempty"`
	RefundedAt  *time.Time `json:"refundedAt,omitempty"`
}

// NewView converts a stored return into its API view.
func NewView(ret *models.Return) View {
	return View{
		ID:          ret.ID.String(),
		OrderID:     ret.OrderID.String(),
		State:       ret.State.String(),
		Amount:      decimal.New(int64(ret.AmountCents), -2).StringFixed(2),
		Reason:      ret.Reason,
		AdminReason: ret.AdminReason,
		Version:     ret.Version,
		RequestedAt: ret.CreatedAt,
		ApprovedAt:  ret.ApprovedAt,
		RejectedAt:  ret.RejectedAt,
		ReturnedAt:  ret.ReturnedAt,
		RefundedAt:  ret.RefundedAt,
	}
}
