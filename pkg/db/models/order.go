package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
)

// Order is a marketplace order tracked by the lifecycle engine. OrderState and
// PaymentState only change together through the transition gateway; Version
// increases on every applied mutation and guards optimistic updates.
type Order struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID       uuid.UUID          `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID      uuid.UUID          `gorm:"column:seller_id;type:uuid;not null"`
	OrderState    enums.OrderState   `gorm:"column:order_state;type:text;not null;default:'placed'"`
	PaymentState  enums.PaymentState `gorm:"column:payment_state;type:text;not null;default:'pending'"`
	TotalCents    int                `gorm:"column:total_cents;not null"`
	RefundedCents int                `gorm:"column:refunded_cents;not null;default:0"`
	Currency      enums.Currency     `gorm:"column:currency;type:text;not null;default:'USD'"`
	Version       int                `gorm:"column:version;not null;default:1"`
	AcceptedAt    *time.Time         `gorm:"column:accepted_at"`
	ConfirmedAt   *time.Time         `gorm:"column:confirmed_at"`
	ShippedAt     *time.Time         `gorm:"column:shipped_at"`
	DeliveredAt   *time.Time         `gorm:"column:delivered_at"`
	CompletedAt   *time.Time         `gorm:"column:completed_at"`
	CancelledAt   *time.Time         `gorm:"column:cancelled_at"`
	Returns       []Return           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
