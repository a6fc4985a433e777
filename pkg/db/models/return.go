package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
)

// Return is a post-delivery return request tied to an order. At most one
// non-terminal return may exist per order at a time.
type Return struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	State       enums.ReturnState `gorm:"column:state;type:text;not null;default:'requested'"`
	AmountCents int               `gorm:"column:amount_cents;not null"`
	Reason      string            `gorm:"column:reason;not null"`
	AdminReason *string           `gorm:"column:admin_reason"`
	Version     int               `gorm:"column:version;not null;default:1"`
	ApprovedAt  *time.Time        `gorm:"column:approved_at"`
	RejectedAt  *time.Time        `gorm:"column:rejected_at"`
	ReturnedAt  *time.Time        `gorm:"column:returned_at"`
	RefundedAt  *time.Time        `gorm:"column:refunded_at"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Return) TableName() string {
	return "returns"
}
