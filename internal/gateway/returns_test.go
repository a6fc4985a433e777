package gateway

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelortiz/tradeyard-backend/internal/returns"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
)

func (f *fixture) openReturn(t *testing.T, orderID string, amountCents int) *returns.View {
	t.Helper()
	view, err := f.svc.CreateReturn(context.Background(), CreateReturnInput{
		OrderID:     uuid.MustParse(orderID),
		Actor:       buyerActor(),
		AmountCents: amountCents,
		Reason:      "arrived damaged",
	})
	require.NoError(t, err)
	return view
}

func (f *fixture) returnTransition(t *testing.T, returnID string, action enums.ReturnAction, actor Actor, reason *string) *returns.View {
	t.Helper()
	view, err := f.svc.RequestReturnTransition(context.Background(), ReturnTransitionInput{
		ReturnID: uuid.MustParse(returnID),
		Action:   action,
		Actor:    actor,
		Reason:   reason,
	})
	require.NoError(t, err, "action %s", action)
	return view
}

func TestReturnFullLifecycle(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)
	opened := f.openReturn(t, delivered.ID, 4_000)

	assert.Equal(t, "requested", opened.State)
	assert.Equal(t, "40.00", opened.Amount)

	seller := sellerActor()
	approved := f.returnTransition(t, opened.ID, enums.ReturnActionApprove, seller, nil)
	assert.Equal(t, "approved", approved.State)

	returned := f.returnTransition(t, opened.ID, enums.ReturnActionMarkReturned, seller, nil)
	assert.Equal(t, "returned", returned.State)

	refunded := f.returnTransition(t, opened.ID, enums.ReturnActionForceRefund, adminActor(), strptr("item received back"))
	assert.Equal(t, "refunded", refunded.State)
	require.NotNil(t, refunded.RefundedAt)

	snapshot, err := f.svc.GetOrderSnapshot(context.Background(), uuid.MustParse(delivered.ID))
	require.NoError(t, err)
	assert.Equal(t, "delivered", snapshot.OrderState)
	assert.Equal(t, "refunded", snapshot.PaymentState)
	assert.Equal(t, "40.00", snapshot.RefundedTotal)
}

func TestReturnRejectLeavesPaymentAlone(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)
	opened := f.openReturn(t, delivered.ID, 4_000)

	rejected := f.returnTransition(t, opened.ID, enums.ReturnActionReject, sellerActor(), nil)
	assert.Equal(t, "rejected", rejected.State)

	snapshot, err := f.svc.GetOrderSnapshot(context.Background(), uuid.MustParse(delivered.ID))
	require.NoError(t, err)
	assert.Equal(t, "held", snapshot.PaymentState)
	assert.Equal(t, "0.00", snapshot.RefundedTotal)
}

func TestSecondReturnAfterCloseAllowed(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)
	first := f.openReturn(t, delivered.ID, 4_000)
	f.returnTransition(t, first.ID, enums.ReturnActionReject, sellerActor(), nil)

	second := f.openReturn(t, delivered.ID, 3_000)
	assert.Equal(t, "requested", second.State)
}

func TestSecondReturnAfterPartialRefund(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)

	first := f.openReturn(t, delivered.ID, 4_000)
	f.returnTransition(t, first.ID, enums.ReturnActionForceRefund, adminActor(), strptr("item received back"))

	second := f.openReturn(t, delivered.ID, 3_000)
	refunded := f.returnTransition(t, second.ID, enums.ReturnActionForceRefund, adminActor(), strptr("second item received back"))
	assert.Equal(t, "refunded", refunded.State)

	snapshot, err := f.svc.GetOrderSnapshot(context.Background(), uuid.MustParse(delivered.ID))
	require.NoError(t, err)
	assert.Equal(t, "refunded", snapshot.PaymentState)
	assert.Equal(t, "70.00", snapshot.RefundedTotal)
}

func TestOpenReturnConflict(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)
	f.openReturn(t, delivered.ID, 4_000)

	_, err := f.svc.CreateReturn(context.Background(), CreateReturnInput{
		OrderID:     uuid.MustParse(delivered.ID),
		Actor:       buyerActor(),
		AmountCents: 1_000,
		Reason:      "changed my mind",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestReturnAmountExceedsRemainder(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)

	first := f.openReturn(t, delivered.ID, 8_000)
	f.returnTransition(t, first.ID, enums.ReturnActionForceRefund, adminActor(), strptr("goodwill refund"))

	_, err := f.svc.CreateReturn(context.Background(), CreateReturnInput{
		OrderID:     uuid.MustParse(delivered.ID),
		Actor:       buyerActor(),
		AmountCents: 3_000,
		Reason:      "second item broken",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAmountExceeded))
}

func TestReturnRequiresDeliveredOrder(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)

	_, err := f.svc.CreateReturn(context.Background(), CreateReturnInput{
		OrderID:     uuid.MustParse(placed.ID),
		Actor:       buyerActor(),
		AmountCents: 1_000,
		Reason:      "never shipped",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))
}

func TestReturnOnCompletedOrder(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)
	f.transition(t, delivered.ID, enums.OrderActionComplete, buyerActor(), nil)

	opened := f.openReturn(t, delivered.ID, 2_000)
	refunded := f.returnTransition(t, opened.ID, enums.ReturnActionForceRefund, adminActor(), strptr("seller agreed"))
	assert.Equal(t, "refunded", refunded.State)

	snapshot, err := f.svc.GetOrderSnapshot(context.Background(), uuid.MustParse(delivered.ID))
	require.NoError(t, err)
	assert.Equal(t, "completed", snapshot.OrderState)
	assert.Equal(t, "refunded", snapshot.PaymentState)
	assert.Equal(t, "20.00", snapshot.RefundedTotal)
}

func TestSellerCannotAdminReject(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)
	opened := f.openReturn(t, delivered.ID, 4_000)

	_, err := f.svc.RequestReturnTransition(context.Background(), ReturnTransitionInput{
		ReturnID: uuid.MustParse(opened.ID),
		Action:   enums.ReturnActionAdminReject,
		Actor:    sellerActor(),
		Reason:   strptr("spam request"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestAdminRejectSurfacesReason(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)
	opened := f.openReturn(t, delivered.ID, 4_000)

	rejected := f.returnTransition(t, opened.ID, enums.ReturnActionAdminReject, adminActor(), strptr("photos show no damage"))
	assert.Equal(t, "rejected", rejected.State)
	require.NotNil(t, rejected.AdminReason)
	assert.Equal(t, "photos show no damage", *rejected.AdminReason)
}
