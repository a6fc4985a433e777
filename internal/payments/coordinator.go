package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafaelortiz/tradeyard-backend/internal/audit"
	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
	"github.com/rafaelortiz/tradeyard-backend/pkg/outbox"
	"github.com/rafaelortiz/tradeyard-backend/pkg/outbox/payloads"
)

// Cause identifies the transition that triggered a payment-state move, for
// the audit trail and the outbox event consumed by the payment processor.
type Cause struct {
	Action      string
	ActorRole   enums.ActorRole
	ActorID     *uuid.UUID
	Reason      *string
	ReturnID    *uuid.UUID
	AmountCents int
}

// Coordinator is the sole writer of an order's payment state. It moves the
// logical state and leaves physical settlement to the processor consuming
// the emitted events.
type Coordinator interface {
	// TransitionPayment moves order.PaymentState from fromExpected to to,
	// recording an audit entry and outbox event in the caller's transaction.
	// The caller owns persisting the order row and must have already set the
	// version the mutation will commit with.
	TransitionPayment(ctx context.Context, tx *gorm.DB, order *models.Order, fromExpected, to enums.PaymentState, cause Cause) error
}

type coordinator struct {
	auditSvc  audit.Service
	outboxSvc *outbox.Service
	logg      *logger.Logger
}

// NewCoordinator wires a payment coordinator with its collaborators.
func NewCoordinator(auditSvc audit.Service, outboxSvc *outbox.Service, logg *logger.Logger) (Coordinator, error) {
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &coordinator{auditSvc: auditSvc, outboxSvc: outboxSvc, logg: logg}, nil
}

var paymentEventTypes = map[enums.PaymentState]enums.OutboxEventType{
	enums.PaymentStateHeld:     enums.OutboxEventPaymentHeld,
	enums.PaymentStateReleased: enums.OutboxEventPaymentReleased,
	enums.PaymentStateRefunded: enums.OutboxEventPaymentRefunded,
	enums.PaymentStateFailed:   enums.OutboxEventPaymentFailed,
}

func (c *coordinator) TransitionPayment(ctx context.Context, tx *gorm.DB, order *models.Order, fromExpected, to enums.PaymentState, cause Cause) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if order.PaymentState != fromExpected {
		return pkgerrors.New(pkgerrors.CodeStaleState, "payment state changed concurrently").
			WithDetails(map[string]any{
				"expected": fromExpected.String(),
				"actual":   order.PaymentState.String(),
			})
	}

	if to == enums.PaymentStateRefunded {
		if cause.AmountCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
		}
		if order.RefundedCents+cause.AmountCents > order.TotalCents {
			return pkgerrors.New(pkgerrors.CodeAmountExceeded, "refund exceeds remaining balance").
				WithDetails(map[string]any{
					"totalCents":     order.TotalCents,
					"refundedCents":  order.RefundedCents,
					"requestedCents": cause.AmountCents,
				})
		}
		order.RefundedCents += cause.AmountCents
	}

	order.PaymentState = to

	err := c.auditSvc.RecordApplied(ctx, tx, audit.RecordTransitionInput{
		OrderID:          order.ID,
		ReturnID:         cause.ReturnID,
		Machine:          enums.AuditMachinePayment,
		Action:           cause.Action,
		ActorRole:        cause.ActorRole,
		ActorID:          cause.ActorID,
		FromState:        fromExpected.String(),
		ToState:          to.String(),
		Reason:           cause.Reason,
		ResultingVersion: order.Version,
	})
	if err != nil {
		return err
	}

	eventType, ok := paymentEventTypes[to]
	if !ok {
		return fmt.Errorf("no event type for payment state %q", to)
	}
	return c.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.OutboxAggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{ActorID: cause.ActorID, Role: cause.ActorRole.String()},
		Data: payloads.PaymentStateChangedEvent{
			OrderID:     order.ID,
			FromState:   fromExpected.String(),
			ToState:     to.String(),
			Cause:       cause.Action,
			AmountCents: cause.AmountCents,
			ReturnID:    cause.ReturnID,
		},
		Version: 1,
	})
}
