package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rafaelortiz/tradeyard-backend/internal/audit"
	"github.com/rafaelortiz/tradeyard-backend/internal/orders"
	"github.com/rafaelortiz/tradeyard-backend/internal/payments"
	"github.com/rafaelortiz/tradeyard-backend/internal/returns"
	"github.com/rafaelortiz/tradeyard-backend/pkg/config"
	"github.com/rafaelortiz/tradeyard-backend/pkg/db"
	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/lock"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
	"github.com/rafaelortiz/tradeyard-backend/pkg/metrics"
	"github.com/rafaelortiz/tradeyard-backend/pkg/outbox"
	"github.com/rafaelortiz/tradeyard-backend/pkg/pagination"
)

type mapLockStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMapLockStore() *mapLockStore {
	return &mapLockStore{values: map[string]string{}}
}

func (s *mapLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.values[key]; held {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *mapLockStore) Eval(_ context.Context, _ string, keys []string, args ...any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, _ := args[0].(string)
	if len(keys) == 1 && s.values[keys[0]] == owner {
		delete(s.values, keys[0])
		return int64(1), nil
	}
	return int64(0), nil
}

func (s *mapLockStore) LockKey(scope, id string) string {
	return "test:lock:" + scope + ":" + id
}

type fixture struct {
	db    *gorm.DB
	store *mapLockStore
	svc   Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.Order{}, &models.Return{}, &models.AuditLogEntry{}, &models.OutboxEvent{},
	))

	logg := logger.New(logger.Options{ServiceName: "test"})
	auditSvc, err := audit.NewService(audit.NewRepository(gdb), logg)
	require.NoError(t, err)
	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)
	coordinator, err := payments.NewCoordinator(auditSvc, outboxSvc, logg)
	require.NoError(t, err)

	store := newMapLockStore()
	locks, err := lock.NewManager(store, config.LockConfig{
		TTL:           time.Second,
		WaitTimeout:   50 * time.Millisecond,
		RetryInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	svc, err := NewService(
		db.NewWithConn(gdb),
		orders.NewRepository(gdb),
		returns.NewRepository(gdb),
		auditSvc,
		coordinator,
		outboxSvc,
		locks,
		metrics.NewTransitionMetrics(nil),
		logg,
	)
	require.NoError(t, err)

	return &fixture{db: gdb, store: store, svc: svc}
}

func buyerActor() Actor {
	id := uuid.New()
	return Actor{Role: enums.ActorRoleBuyer, ID: &id}
}

func sellerActor() Actor {
	id := uuid.New()
	return Actor{Role: enums.ActorRoleSeller, ID: &id}
}

func adminActor() Actor {
	id := uuid.New()
	return Actor{Role: enums.ActorRoleAdmin, ID: &id}
}

func strptr(s string) *string { return &s }

func (f *fixture) placeOrder(t *testing.T) *orders.Snapshot {
	t.Helper()
	snapshot, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID:    uuid.New(),
		SellerID:   uuid.New(),
		TotalCents: 10_000,
		Currency:   enums.CurrencyUSD,
	})
	require.NoError(t, err)
	return snapshot
}

func (f *fixture) transition(t *testing.T, orderID string, action enums.OrderAction, actor Actor, reason *string) *orders.Snapshot {
	t.Helper()
	snapshot, err := f.svc.RequestOrderTransition(context.Background(), OrderTransitionInput{
		OrderID: uuid.MustParse(orderID),
		Action:  action,
		Actor:   actor,
		Reason:  reason,
	})
	require.NoError(t, err, "action %s", action)
	return snapshot
}

func (f *fixture) deliverOrder(t *testing.T) *orders.Snapshot {
	t.Helper()
	placed := f.placeOrder(t)
	seller := sellerActor()
	f.transition(t, placed.ID, enums.OrderActionAccept, seller, nil)
	f.transition(t, placed.ID, enums.OrderActionConfirm, seller, nil)
	f.transition(t, placed.ID, enums.OrderActionShip, seller, nil)
	return f.transition(t, placed.ID, enums.OrderActionDeliver, seller, nil)
}

func TestOrderHappyPath(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)

	assert.Equal(t, "delivered", delivered.OrderState)
	assert.Equal(t, "held", delivered.PaymentState)
	assert.Equal(t, 5, delivered.Version)
	require.NotNil(t, delivered.DeliveredAt)

	completed := f.transition(t, delivered.ID, enums.OrderActionComplete, buyerActor(), nil)
	assert.Equal(t, "completed", completed.OrderState)
	assert.Equal(t, "released", completed.PaymentState)
	assert.Equal(t, 6, completed.Version)

	history, err := f.svc.ListAuditLog(context.Background(), uuid.MustParse(delivered.ID), pagination.Params{})
	require.NoError(t, err)
	// 5 order transitions plus the ship and complete payment moves.
	assert.Len(t, history.Entries, 7)
	for _, entry := range history.Entries {
		assert.Equal(t, "applied", entry.Outcome)
	}

	var events int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Greater(t, events, int64(6))
}

func TestCompleteAsSystemTimer(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)

	completed, err := f.svc.RequestOrderTransition(context.Background(), OrderTransitionInput{
		OrderID: uuid.MustParse(delivered.ID),
		Action:  enums.OrderActionComplete,
		Actor:   Actor{Role: enums.ActorRoleSystem},
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", completed.OrderState)
}

func TestForbiddenRole(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)

	_, err := f.svc.RequestOrderTransition(context.Background(), OrderTransitionInput{
		OrderID: uuid.MustParse(placed.ID),
		Action:  enums.OrderActionAccept,
		Actor:   buyerActor(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.RequestOrderTransition(context.Background(), OrderTransitionInput{
		OrderID: uuid.MustParse(placed.ID),
		Action:  enums.OrderActionForceDeliver,
		Actor:   sellerActor(),
		Reason:  strptr("because"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestAdminActionRequiresReason(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)

	_, err := f.svc.RequestOrderTransition(context.Background(), OrderTransitionInput{
		OrderID: uuid.MustParse(placed.ID),
		Action:  enums.OrderActionForceDeliver,
		Actor:   adminActor(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMissingReason))

	_, err = f.svc.RequestOrderTransition(context.Background(), OrderTransitionInput{
		OrderID: uuid.MustParse(placed.ID),
		Action:  enums.OrderActionForceDeliver,
		Actor:   adminActor(),
		Reason:  strptr("   "),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMissingReason))
}

func TestInvalidTransitionRecordsRejection(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)

	_, err := f.svc.RequestOrderTransition(context.Background(), OrderTransitionInput{
		OrderID: uuid.MustParse(placed.ID),
		Action:  enums.OrderActionShip,
		Actor:   sellerActor(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))

	history, err := f.svc.ListAuditLog(context.Background(), uuid.MustParse(placed.ID), pagination.Params{})
	require.NoError(t, err)
	require.Len(t, history.Entries, 1)
	assert.Equal(t, "rejected", history.Entries[0].Outcome)
	require.NotNil(t, history.Entries[0].RejectionCode)
	assert.Equal(t, "INVALID_TRANSITION", *history.Entries[0].RejectionCode)

	snapshot, err := f.svc.GetOrderSnapshot(context.Background(), uuid.MustParse(placed.ID))
	require.NoError(t, err)
	assert.Equal(t, "placed", snapshot.OrderState)
	assert.Equal(t, 1, snapshot.Version)
}

func TestBuyerCancelBeforeCapture(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)

	cancelled := f.transition(t, placed.ID, enums.OrderActionCancel, buyerActor(), nil)
	assert.Equal(t, "cancelled", cancelled.OrderState)
	assert.Equal(t, "pending", cancelled.PaymentState)
	require.NotNil(t, cancelled.CancelledAt)
}

func TestCancelAfterCaptureDirectsToReturns(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)
	seller := sellerActor()
	f.transition(t, placed.ID, enums.OrderActionAccept, seller, nil)
	f.transition(t, placed.ID, enums.OrderActionConfirm, seller, nil)
	f.transition(t, placed.ID, enums.OrderActionShip, seller, nil)

	_, err := f.svc.RequestOrderTransition(context.Background(), OrderTransitionInput{
		OrderID: uuid.MustParse(placed.ID),
		Action:  enums.OrderActionCancel,
		Actor:   buyerActor(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))
}

func TestForceDeliverAndRollback(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)
	seller := sellerActor()
	f.transition(t, placed.ID, enums.OrderActionAccept, seller, nil)
	f.transition(t, placed.ID, enums.OrderActionConfirm, seller, nil)
	f.transition(t, placed.ID, enums.OrderActionShip, seller, nil)

	admin := adminActor()
	forced := f.transition(t, placed.ID, enums.OrderActionForceDeliver, admin, strptr("carrier confirmed drop-off"))
	assert.Equal(t, "delivered", forced.OrderState)
	assert.Equal(t, "released", forced.PaymentState)

	rolled := f.transition(t, placed.ID, enums.OrderActionRollbackDelivery, admin, strptr("carrier scan was wrong"))
	assert.Equal(t, "shipped", rolled.OrderState)
	assert.Equal(t, "held", rolled.PaymentState)
	assert.Nil(t, rolled.DeliveredAt)
}

func TestCompleteAfterForceDeliver(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)
	seller := sellerActor()
	f.transition(t, placed.ID, enums.OrderActionAccept, seller, nil)
	f.transition(t, placed.ID, enums.OrderActionConfirm, seller, nil)
	f.transition(t, placed.ID, enums.OrderActionShip, seller, nil)

	forced := f.transition(t, placed.ID, enums.OrderActionForceDeliver, adminActor(), strptr("carrier confirmed drop-off"))
	assert.Equal(t, "delivered", forced.OrderState)
	assert.Equal(t, "released", forced.PaymentState)

	// The payout is already released, so completion carries no payment move.
	completed := f.transition(t, placed.ID, enums.OrderActionComplete, buyerActor(), nil)
	assert.Equal(t, "completed", completed.OrderState)
	assert.Equal(t, "released", completed.PaymentState)
}

func TestRollbackBlockedByOpenReturn(t *testing.T) {
	f := newFixture(t)
	delivered := f.deliverOrder(t)

	_, err := f.svc.CreateReturn(context.Background(), CreateReturnInput{
		OrderID:     uuid.MustParse(delivered.ID),
		Actor:       buyerActor(),
		AmountCents: 2_500,
		Reason:      "wrong size",
	})
	require.NoError(t, err)

	_, err = f.svc.RequestOrderTransition(context.Background(), OrderTransitionInput{
		OrderID: uuid.MustParse(delivered.ID),
		Action:  enums.OrderActionRollbackDelivery,
		Actor:   adminActor(),
		Reason:  strptr("carrier scan was wrong"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestPaymentFailureCancelsOrder(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)

	snapshot, err := f.svc.RecordPaymentFailure(context.Background(), PaymentFailureInput{
		OrderID: uuid.MustParse(placed.ID),
		Reason:  strptr("card declined"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", snapshot.OrderState)
	assert.Equal(t, "failed", snapshot.PaymentState)

	// Reporting the same failure twice is rejected, not re-applied.
	_, err = f.svc.RecordPaymentFailure(context.Background(), PaymentFailureInput{
		OrderID: uuid.MustParse(placed.ID),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition))
}

func TestOrderBusyWhenLockHeld(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)

	key := f.store.LockKey(lockScopeOrder, placed.ID)
	ok, err := f.store.SetNX(context.Background(), key, "someone-else", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.RequestOrderTransition(context.Background(), OrderTransitionInput{
		OrderID: uuid.MustParse(placed.ID),
		Action:  enums.OrderActionAccept,
		Actor:   sellerActor(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeBusy))
}
