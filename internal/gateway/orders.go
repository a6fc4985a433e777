package gateway

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafaelortiz/tradeyard-backend/internal/audit"
	"github.com/rafaelortiz/tradeyard-backend/internal/orders"
	"github.com/rafaelortiz/tradeyard-backend/internal/payments"
	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/outbox"
	"github.com/rafaelortiz/tradeyard-backend/pkg/outbox/payloads"
	"github.com/rafaelortiz/tradeyard-backend/pkg/pagination"
)

// CreateOrderInput is the checkout collaborator's intake of a new order.
type CreateOrderInput struct {
	BuyerID    uuid.UUID
	SellerID   uuid.UUID
	TotalCents int
	Currency   enums.Currency
}

// OrderTransitionInput asks the gateway to run one order action.
type OrderTransitionInput struct {
	OrderID uuid.UUID
	Action  enums.OrderAction
	Actor   Actor
	Reason  *string
}

// PaymentFailureInput reports a capture failure from the payment processor.
type PaymentFailureInput struct {
	OrderID uuid.UUID
	Reason  *string
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*orders.Snapshot, error) {
	if input.BuyerID == uuid.Nil || input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer and seller are required")
	}
	if input.BuyerID == input.SellerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer and seller must differ")
	}
	if input.TotalCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
	}

	order := &models.Order{
		ID:           uuid.New(),
		BuyerID:      input.BuyerID,
		SellerID:     input.SellerID,
		OrderState:   enums.OrderStatePlaced,
		PaymentState: enums.PaymentStatePending,
		TotalCents:   input.TotalCents,
		Currency:     input.Currency,
		Version:      1,
	}

	err := s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ordersRepo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderCreated,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Role: enums.ActorRoleBuyer.String()},
			Data: payloads.OrderCreatedEvent{
				OrderID:    order.ID,
				BuyerID:    order.BuyerID,
				SellerID:   order.SellerID,
				TotalCents: order.TotalCents,
				Currency:   order.Currency.String(),
				PlacedAt:   s.now(),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order placed")
	snapshot := orders.NewSnapshot(order)
	return &snapshot, nil
}

func (s *service) RequestOrderTransition(ctx context.Context, input OrderTransitionInput) (*orders.Snapshot, error) {
	order, err := s.runOrderTransition(ctx, input)
	s.metrics.IncAttempt(enums.AuditMachineOrder.String(), input.Action.String(), s.outcomeFor(err))
	if err != nil {
		return nil, err
	}
	snapshot := orders.NewSnapshot(order)
	return &snapshot, nil
}

func (s *service) runOrderTransition(ctx context.Context, input OrderTransitionInput) (*models.Order, error) {
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order action")
	}
	if !input.Actor.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown actor role")
	}
	if !input.Action.AllowsRole(input.Actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden,
			"actor role may not request this action").
			WithDetails(map[string]any{"action": input.Action.String(), "role": input.Actor.Role.String()})
	}
	if input.Action.IsAdministrative() {
		if err := requireReason(input.Action, input.Reason); err != nil {
			return nil, err
		}
	}

	ctx = s.logg.WithOrderID(ctx, input.OrderID.String())

	handle, err := s.lockOrder(ctx, enums.AuditMachineOrder.String(), input.OrderID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(ctx, handle)

	order, err := s.ordersRepo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	auditInput := audit.RecordTransitionInput{
		OrderID:   order.ID,
		Machine:   enums.AuditMachineOrder,
		Action:    input.Action.String(),
		ActorRole: input.Actor.Role,
		ActorID:   input.Actor.ID,
		FromState: order.OrderState.String(),
		ToState:   order.OrderState.String(),
		Reason:    input.Reason,
	}

	plan, err := orders.PlanTransition(order.OrderState, order.PaymentState, input.Action)
	if err != nil {
		s.recordOrderRejection(ctx, auditInput, err)
		return nil, err
	}

	if input.Action == enums.OrderActionRollbackDelivery {
		open, err := s.returnsRepo.FindOpenByOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if open != nil {
			err = pkgerrors.New(pkgerrors.CodeConflict,
				"cannot roll back delivery while a return is open").
				WithDetails(map[string]any{"returnId": open.ID.String()})
			s.recordOrderRejection(ctx, auditInput, err)
			return nil, err
		}
	}

	err = s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		expectedVersion := order.Version
		order.Version++
		plan.Apply(order, s.now())

		if plan.Payment != nil {
			err := s.coordinator.TransitionPayment(ctx, tx, order,
				plan.Payment.FromExpected, plan.Payment.To, payments.Cause{
					Action:    input.Action.String(),
					ActorRole: input.Actor.Role,
					ActorID:   input.Actor.ID,
					Reason:    input.Reason,
				})
			if err != nil {
				return err
			}
		}

		if err := orders.ValidatePair(order.OrderState, order.PaymentState); err != nil {
			return err
		}
		if err := s.ordersRepo.WithTx(tx).UpdateGuarded(ctx, order, expectedVersion); err != nil {
			return err
		}

		applied := auditInput
		applied.ToState = order.OrderState.String()
		applied.ResultingVersion = order.Version
		if err := s.auditSvc.RecordApplied(ctx, tx, applied); err != nil {
			return err
		}
		return s.emitOrderEvents(ctx, tx, order, input, plan.FromState)
	})
	if err != nil {
		// Reload so the rejected entry reports the untouched stored state.
		if stored, findErr := s.ordersRepo.FindByID(ctx, input.OrderID); findErr == nil {
			order = stored
		}
		auditInput.FromState = order.OrderState.String()
		auditInput.ToState = order.OrderState.String()
		s.recordOrderRejection(ctx, auditInput, err)
		return nil, err
	}

	s.logg.Info(s.logg.WithActorRole(ctx, input.Actor.Role.String()), "order transition applied")
	return order, nil
}

func (s *service) emitOrderEvents(ctx context.Context, tx *gorm.DB, order *models.Order, input OrderTransitionInput, fromState enums.OrderState) error {
	actor := &outbox.ActorRef{ActorID: input.Actor.ID, Role: input.Actor.Role.String()}
	data := payloads.OrderStateChangedEvent{
		OrderID:      order.ID,
		Action:       input.Action.String(),
		FromState:    fromState.String(),
		ToState:      order.OrderState.String(),
		PaymentState: order.PaymentState.String(),
		Version:      order.Version,
	}

	emit := func(eventType enums.OutboxEventType) error {
		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data:          data,
			Version:       1,
		})
	}

	if err := emit(enums.OutboxEventOrderStateChanged); err != nil {
		return err
	}
	switch order.OrderState {
	case enums.OrderStateCancelled:
		return emit(enums.OutboxEventOrderCancelled)
	case enums.OrderStateCompleted:
		return emit(enums.OutboxEventOrderCompleted)
	}
	return nil
}

func (s *service) recordOrderRejection(ctx context.Context, input audit.RecordTransitionInput, cause error) {
	code := rejectionCode(cause)
	if code == "" {
		return
	}
	s.auditSvc.RecordRejected(ctx, input, code)
}

func (s *service) GetOrderSnapshot(ctx context.Context, orderID uuid.UUID) (*orders.Snapshot, error) {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	snapshot := orders.NewSnapshot(order)
	return &snapshot, nil
}

func (s *service) ListAuditLog(ctx context.Context, orderID uuid.UUID, params pagination.Params) (*audit.ListView, error) {
	if _, err := s.ordersRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	entries, next, err := s.auditSvc.ListByOrder(ctx, orderID, params)
	if err != nil {
		return nil, err
	}
	view := audit.NewListView(entries, next)
	return &view, nil
}

// RecordPaymentFailure handles the processor reporting a failed capture. The
// payment moves pending to failed and the order is force-cancelled, both as
// the system actor.
func (s *service) RecordPaymentFailure(ctx context.Context, input PaymentFailureInput) (*orders.Snapshot, error) {
	const action = "fail_payment"

	ctx = s.logg.WithOrderID(ctx, input.OrderID.String())

	handle, err := s.lockOrder(ctx, enums.AuditMachinePayment.String(), input.OrderID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(ctx, handle)

	order, err := s.ordersRepo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	auditInput := audit.RecordTransitionInput{
		OrderID:   order.ID,
		Machine:   enums.AuditMachineOrder,
		Action:    action,
		ActorRole: enums.ActorRoleSystem,
		FromState: order.OrderState.String(),
		ToState:   order.OrderState.String(),
		Reason:    input.Reason,
	}

	if order.PaymentState != enums.PaymentStatePending {
		err := pkgerrors.New(pkgerrors.CodeInvalidTransition,
			"payment already advanced past pending").
			WithDetails(map[string]any{"paymentState": order.PaymentState.String()})
		s.recordOrderRejection(ctx, auditInput, err)
		return nil, err
	}
	if order.OrderState.IsTerminal() {
		err := pkgerrors.New(pkgerrors.CodeInvalidTransition, "order already closed")
		s.recordOrderRejection(ctx, auditInput, err)
		return nil, err
	}

	err = s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		expectedVersion := order.Version
		order.Version++
		now := s.now()
		order.OrderState = enums.OrderStateCancelled
		order.CancelledAt = &now

		err := s.coordinator.TransitionPayment(ctx, tx, order,
			enums.PaymentStatePending, enums.PaymentStateFailed, payments.Cause{
				Action:    action,
				ActorRole: enums.ActorRoleSystem,
				Reason:    input.Reason,
			})
		if err != nil {
			return err
		}

		if err := orders.ValidatePair(order.OrderState, order.PaymentState); err != nil {
			return err
		}
		if err := s.ordersRepo.WithTx(tx).UpdateGuarded(ctx, order, expectedVersion); err != nil {
			return err
		}

		applied := auditInput
		applied.ToState = order.OrderState.String()
		applied.ResultingVersion = order.Version
		if err := s.auditSvc.RecordApplied(ctx, tx, applied); err != nil {
			return err
		}
		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderCancelled,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Role: enums.ActorRoleSystem.String()},
			Data: payloads.OrderStateChangedEvent{
				OrderID:      order.ID,
				Action:       action,
				FromState:    auditInput.FromState,
				ToState:      order.OrderState.String(),
				PaymentState: order.PaymentState.String(),
				Version:      order.Version,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Warn(ctx, "payment capture failed, order cancelled")
	snapshot := orders.NewSnapshot(order)
	return &snapshot, nil
}
