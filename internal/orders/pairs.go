package orders

import (
	"fmt"

	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
)

type statePair struct {
	order   enums.OrderState
	payment enums.PaymentState
}

// allowedPairs is the exhaustive list of combined states an order may rest in.
// Every mutation is checked against it before commit.
var allowedPairs = map[statePair]struct{}{
	{enums.OrderStatePlaced, enums.PaymentStatePending}:     {},
	{enums.OrderStateAccepted, enums.PaymentStatePending}:   {},
	{enums.OrderStateConfirmed, enums.PaymentStatePending}:  {},
	{enums.OrderStateShipped, enums.PaymentStateHeld}:       {},
	{enums.OrderStateDelivered, enums.PaymentStateHeld}:     {},
	{enums.OrderStateDelivered, enums.PaymentStateReleased}: {},
	{enums.OrderStateDelivered, enums.PaymentStateRefunded}: {},
	{enums.OrderStateCompleted, enums.PaymentStateReleased}: {},
	{enums.OrderStateCompleted, enums.PaymentStateRefunded}: {},
	{enums.OrderStateCancelled, enums.PaymentStatePending}:  {},
	{enums.OrderStateCancelled, enums.PaymentStateRefunded}: {},
	{enums.OrderStateCancelled, enums.PaymentStateFailed}:   {},
}

// ValidatePair rejects combined states outside the allow-list.
func ValidatePair(orderState enums.OrderState, paymentState enums.PaymentState) error {
	if _, ok := allowedPairs[statePair{orderState, paymentState}]; ok {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeInternal,
		fmt.Sprintf("disallowed state pair %s/%s", orderState, paymentState)).
		WithDetails(map[string]any{
			"order_state":   orderState.String(),
			"payment_state": paymentState.String(),
		})
}
