package orders

import (
	"fmt"
	"time"

	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
)

// PaymentMove describes the payment-state change an order transition requires.
// FromExpected is what the coordinator must observe before writing To.
type PaymentMove struct {
	FromExpected enums.PaymentState
	To           enums.PaymentState
}

// Plan is the outcome of evaluating an action against the current order state.
// The machine is pure; persisting the plan is the gateway's job.
type Plan struct {
	Action    enums.OrderAction
	FromState enums.OrderState
	NextState enums.OrderState
	Payment   *PaymentMove
	// ClearDeliveredAt is set by rollback_delivery so the delivery timestamp
	// can be taken again on the next deliver.
	ClearDeliveredAt bool
}

type transitionKey struct {
	from   enums.OrderState
	action enums.OrderAction
}

var orderTransitions = map[transitionKey]enums.OrderState{
	{enums.OrderStatePlaced, enums.OrderActionAccept}:      enums.OrderStateAccepted,
	{enums.OrderStateAccepted, enums.OrderActionConfirm}:   enums.OrderStateConfirmed,
	{enums.OrderStateConfirmed, enums.OrderActionShip}:     enums.OrderStateShipped,
	{enums.OrderStateShipped, enums.OrderActionDeliver}:    enums.OrderStateDelivered,
	{enums.OrderStateDelivered, enums.OrderActionComplete}: enums.OrderStateCompleted,
	{enums.OrderStatePlaced, enums.OrderActionCancel}:      enums.OrderStateCancelled,
	{enums.OrderStateAccepted, enums.OrderActionCancel}:    enums.OrderStateCancelled,
	{enums.OrderStateConfirmed, enums.OrderActionCancel}:   enums.OrderStateCancelled,
}

// PlanTransition evaluates an action against the current (order, payment)
// state and returns what should change. It never mutates anything.
func PlanTransition(orderState enums.OrderState, paymentState enums.PaymentState, action enums.OrderAction) (*Plan, error) {
	switch action {
	case enums.OrderActionForceDeliver:
		return planForceDeliver(orderState, paymentState)
	case enums.OrderActionRollbackDelivery:
		return planRollbackDelivery(orderState, paymentState)
	}

	next, ok := orderTransitions[transitionKey{orderState, action}]
	if !ok {
		return nil, invalidTransition(orderState, action)
	}

	plan := &Plan{Action: action, FromState: orderState, NextState: next}
	switch action {
	case enums.OrderActionShip:
		plan.Payment = &PaymentMove{FromExpected: enums.PaymentStatePending, To: enums.PaymentStateHeld}
	case enums.OrderActionComplete:
		// force_deliver releases the payout early, completing from
		// delivered/released needs no payment move.
		if paymentState == enums.PaymentStateHeld {
			plan.Payment = &PaymentMove{FromExpected: enums.PaymentStateHeld, To: enums.PaymentStateReleased}
		}
	case enums.OrderActionCancel:
		// Nothing was captured before shipment, the payment stays pending.
		if paymentState != enums.PaymentStatePending {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot cancel order with payment already %s, open a return instead", paymentState))
		}
	}
	return plan, nil
}

// planForceDeliver collapses deliver + complete's payout into one admin step:
// shipped -> delivered with the payment released immediately.
func planForceDeliver(orderState enums.OrderState, paymentState enums.PaymentState) (*Plan, error) {
	if orderState != enums.OrderStateShipped {
		return nil, invalidTransition(orderState, enums.OrderActionForceDeliver)
	}
	if paymentState != enums.PaymentStateHeld {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("force_deliver requires a held payment, found %s", paymentState))
	}
	return &Plan{
		Action:    enums.OrderActionForceDeliver,
		FromState: orderState,
		NextState: enums.OrderStateDelivered,
		Payment:   &PaymentMove{FromExpected: enums.PaymentStateHeld, To: enums.PaymentStateReleased},
	}, nil
}

// planRollbackDelivery undoes a delivery: delivered -> shipped, pulling a
// released payout back to held. The gateway rejects it separately when an
// open return exists.
func planRollbackDelivery(orderState enums.OrderState, paymentState enums.PaymentState) (*Plan, error) {
	if orderState != enums.OrderStateDelivered {
		return nil, invalidTransition(orderState, enums.OrderActionRollbackDelivery)
	}
	plan := &Plan{
		Action:           enums.OrderActionRollbackDelivery,
		FromState:        orderState,
		NextState:        enums.OrderStateShipped,
		ClearDeliveredAt: true,
	}
	switch paymentState {
	case enums.PaymentStateReleased:
		plan.Payment = &PaymentMove{FromExpected: enums.PaymentStateReleased, To: enums.PaymentStateHeld}
	case enums.PaymentStateHeld:
		// Payment already where shipped requires it.
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("rollback_delivery cannot run with payment %s", paymentState))
	}
	return plan, nil
}

// Apply writes the planned state onto the order and stamps the lifecycle
// timestamp for the new state. Timestamps already taken are left alone so a
// rollback followed by a second deliver keeps the original shipped time.
func (p *Plan) Apply(order *models.Order, now time.Time) {
	order.OrderState = p.NextState
	if p.ClearDeliveredAt {
		order.DeliveredAt = nil
	}
	switch p.NextState {
	case enums.OrderStateAccepted:
		if order.AcceptedAt == nil {
			order.AcceptedAt = &now
		}
	case enums.OrderStateConfirmed:
		if order.ConfirmedAt == nil {
			order.ConfirmedAt = &now
		}
	case enums.OrderStateShipped:
		if order.ShippedAt == nil {
			order.ShippedAt = &now
		}
	case enums.OrderStateDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	case enums.OrderStateCompleted:
		if order.CompletedAt == nil {
			order.CompletedAt = &now
		}
	case enums.OrderStateCancelled:
		if order.CancelledAt == nil {
			order.CancelledAt = &now
		}
	}
}

func invalidTransition(state enums.OrderState, action enums.OrderAction) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition,
		fmt.Sprintf("action %s is not allowed while order is %s", action, state)).
		WithDetails(map[string]any{"state": state.String(), "action": action.String()})
}
