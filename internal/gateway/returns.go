package gateway

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafaelortiz/tradeyard-backend/internal/audit"
	"github.com/rafaelortiz/tradeyard-backend/internal/orders"
	"github.com/rafaelortiz/tradeyard-backend/internal/payments"
	"github.com/rafaelortiz/tradeyard-backend/internal/returns"
	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/outbox"
	"github.com/rafaelortiz/tradeyard-backend/pkg/outbox/payloads"
)

// CreateReturnInput opens a return against a delivered or completed order.
type CreateReturnInput struct {
	OrderID     uuid.UUID
	Actor       Actor
	AmountCents int
	Reason      string
}

// ReturnTransitionInput asks the gateway to run one return action.
type ReturnTransitionInput struct {
	ReturnID uuid.UUID
	Action   enums.ReturnAction
	Actor    Actor
	Reason   *string
}

const actionRequestReturn = "request_return"

func (s *service) CreateReturn(ctx context.Context, input CreateReturnInput) (*returns.View, error) {
	ret, err := s.runCreateReturn(ctx, input)
	s.metrics.IncAttempt(enums.AuditMachineReturn.String(), actionRequestReturn, s.outcomeFor(err))
	if err != nil {
		return nil, err
	}
	view := returns.NewView(ret)
	return &view, nil
}

func (s *service) runCreateReturn(ctx context.Context, input CreateReturnInput) (*models.Return, error) {
	if input.Actor.Role != enums.ActorRoleBuyer && input.Actor.Role != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer may open a return")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMissingReason, "a return requires a reason")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return amount must be positive")
	}

	ctx = s.logg.WithOrderID(ctx, input.OrderID.String())

	handle, err := s.lockOrder(ctx, enums.AuditMachineReturn.String(), input.OrderID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(ctx, handle)

	order, err := s.ordersRepo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.OrderState != enums.OrderStateDelivered && order.OrderState != enums.OrderStateCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			"returns require a delivered or completed order").
			WithDetails(map[string]any{"orderState": order.OrderState.String()})
	}
	if remaining := order.TotalCents - order.RefundedCents; input.AmountCents > remaining {
		return nil, pkgerrors.New(pkgerrors.CodeAmountExceeded, "return exceeds refundable balance").
			WithDetails(map[string]any{"remainingCents": remaining, "requestedCents": input.AmountCents})
	}
	if open, err := s.returnsRepo.FindOpenByOrder(ctx, order.ID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has an open return").
			WithDetails(map[string]any{"returnId": open.ID.String()})
	}

	ret := &models.Return{
		ID:          uuid.New(),
		OrderID:     order.ID,
		State:       enums.ReturnStateRequested,
		AmountCents: input.AmountCents,
		Reason:      input.Reason,
		Version:     1,
	}

	err = s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.returnsRepo.WithTx(tx).Create(ctx, ret); err != nil {
			return err
		}
		reason := input.Reason
		err := s.auditSvc.RecordApplied(ctx, tx, audit.RecordTransitionInput{
			OrderID:          order.ID,
			ReturnID:         &ret.ID,
			Machine:          enums.AuditMachineReturn,
			Action:           actionRequestReturn,
			ActorRole:        input.Actor.Role,
			ActorID:          input.Actor.ID,
			FromState:        "",
			ToState:          ret.State.String(),
			Reason:           &reason,
			ResultingVersion: ret.Version,
		})
		if err != nil {
			return err
		}
		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventReturnOpened,
			AggregateType: enums.OutboxAggregateReturn,
			AggregateID:   ret.ID,
			Actor:         &outbox.ActorRef{ActorID: input.Actor.ID, Role: input.Actor.Role.String()},
			Data: payloads.ReturnStateChangedEvent{
				ReturnID:    ret.ID,
				OrderID:     order.ID,
				Action:      actionRequestReturn,
				FromState:   "",
				ToState:     ret.State.String(),
				AmountCents: ret.AmountCents,
				Version:     ret.Version,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithReturnID(ctx, ret.ID.String()), "return opened")
	return ret, nil
}

func (s *service) RequestReturnTransition(ctx context.Context, input ReturnTransitionInput) (*returns.View, error) {
	ret, err := s.runReturnTransition(ctx, input)
	s.metrics.IncAttempt(enums.AuditMachineReturn.String(), input.Action.String(), s.outcomeFor(err))
	if err != nil {
		return nil, err
	}
	view := returns.NewView(ret)
	return &view, nil
}

func (s *service) runReturnTransition(ctx context.Context, input ReturnTransitionInput) (*models.Return, error) {
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown return action")
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

	// The unlocked read only resolves the owning order; state is re-read
	// under the lock.
	ret, err := s.returnsRepo.FindByID(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}
	orderID := ret.OrderID

	ctx = s.logg.WithReturnID(s.logg.WithOrderID(ctx, orderID.String()), input.ReturnID.String())

	handle, err := s.lockOrder(ctx, enums.AuditMachineReturn.String(), orderID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(ctx, handle)

	ret, err = s.returnsRepo.FindByID(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	auditInput := audit.RecordTransitionInput{
		OrderID:   order.ID,
		ReturnID:  &ret.ID,
		Machine:   enums.AuditMachineReturn,
		Action:    input.Action.String(),
		ActorRole: input.Actor.Role,
		ActorID:   input.Actor.ID,
		FromState: ret.State.String(),
		ToState:   ret.State.String(),
		Reason:    input.Reason,
	}

	plan, err := returns.PlanTransition(ret.State, input.Action)
	if err != nil {
		s.recordOrderRejection(ctx, auditInput, err)
		return nil, err
	}

	if plan.Refund {
		// refunded -> refunded covers a later partial return, the coordinator
		// bounds the accumulated amount against the order total.
		if order.PaymentState != enums.PaymentStateHeld &&
			order.PaymentState != enums.PaymentStateReleased &&
			order.PaymentState != enums.PaymentStateRefunded {
			err := pkgerrors.New(pkgerrors.CodeInvalidTransition,
				"refund requires a held, released or refunded payment").
				WithDetails(map[string]any{"paymentState": order.PaymentState.String()})
			s.recordOrderRejection(ctx, auditInput, err)
			return nil, err
		}
	}

	err = s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		expectedVersion := ret.Version
		ret.Version++
		plan.Apply(ret, s.now())
		if input.Action.IsAdministrative() {
			ret.AdminReason = input.Reason
		}

		if plan.Refund {
			orderExpected := order.Version
			order.Version++
			err := s.coordinator.TransitionPayment(ctx, tx, order,
				order.PaymentState, enums.PaymentStateRefunded, payments.Cause{
					Action:      input.Action.String(),
					ActorRole:   input.Actor.Role,
					ActorID:     input.Actor.ID,
					Reason:      input.Reason,
					ReturnID:    &ret.ID,
					AmountCents: ret.AmountCents,
				})
			if err != nil {
				return err
			}
			if err := orders.ValidatePair(order.OrderState, order.PaymentState); err != nil {
				return err
			}
			if err := s.ordersRepo.WithTx(tx).UpdateGuarded(ctx, order, orderExpected); err != nil {
				return err
			}
		}

		if err := s.returnsRepo.WithTx(tx).UpdateGuarded(ctx, ret, expectedVersion); err != nil {
			return err
		}

		applied := auditInput
		applied.ToState = ret.State.String()
		applied.ResultingVersion = ret.Version
		if err := s.auditSvc.RecordApplied(ctx, tx, applied); err != nil {
			return err
		}
		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventReturnStateChanged,
			AggregateType: enums.OutboxAggregateReturn,
			AggregateID:   ret.ID,
			Actor:         &outbox.ActorRef{ActorID: input.Actor.ID, Role: input.Actor.Role.String()},
			Data: payloads.ReturnStateChangedEvent{
				ReturnID:    ret.ID,
				OrderID:     order.ID,
				Action:      input.Action.String(),
				FromState:   plan.FromState.String(),
				ToState:     ret.State.String(),
				AmountCents: ret.AmountCents,
				Version:     ret.Version,
			},
			Version: 1,
		})
	})
	if err != nil {
		if stored, findErr := s.returnsRepo.FindByID(ctx, input.ReturnID); findErr == nil {
			ret = stored
		}
		auditInput.FromState = ret.State.String()
		auditInput.ToState = ret.State.String()
		s.recordOrderRejection(ctx, auditInput, err)
		return nil, err
	}

	s.logg.Info(s.logg.WithActorRole(ctx, input.Actor.Role.String()), "return transition applied")
	return ret, nil
}
