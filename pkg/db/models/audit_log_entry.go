package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
)

// AuditLogEntry is an append-only record of a transition attempt. Applied
// entries are written in the same transaction as the mutation; rejected
// entries are written after the mutation rolls back.
type AuditLogEntry struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	ReturnID         *uuid.UUID         `gorm:"column:return_id;type:uuid"`
	Machine          enums.AuditMachine `gorm:"column:machine;type:text;not null"`
	Action           string             `gorm:"column:action;not null"`
	ActorRole        enums.ActorRole    `gorm:"column:actor_role;type:text;not null"`
	ActorID          *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	FromState        string             `gorm:"column:from_state;not null"`
	ToState          string             `gorm:"column:to_state;not null"`
	Outcome          enums.AuditOutcome `gorm:"column:outcome;type:text;not null;default:'applied'"`
	Reason           *string            `gorm:"column:reason"`
	RejectionCode    *string            `gorm:"column:rejection_code"`
	ResultingVersion int                `gorm:"column:resulting_version;not null"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}
