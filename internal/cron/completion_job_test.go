package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rafaelortiz/tradeyard-backend/internal/audit"
	"github.com/rafaelortiz/tradeyard-backend/internal/gateway"
	"github.com/rafaelortiz/tradeyard-backend/internal/orders"
	"github.com/rafaelortiz/tradeyard-backend/internal/returns"
	"github.com/rafaelortiz/tradeyard-backend/pkg/config"
	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
	"github.com/rafaelortiz/tradeyard-backend/pkg/pagination"
)

type stubGateway struct {
	completed   []uuid.UUID
	failWith    error
	failOrderID uuid.UUID
}

func (s *stubGateway) RequestOrderTransition(_ context.Context, input gateway.OrderTransitionInput) (*orders.Snapshot, error) {
	if s.failWith != nil && input.OrderID == s.failOrderID {
		return nil, s.failWith
	}
	s.completed = append(s.completed, input.OrderID)
	return &orders.Snapshot{}, nil
}

func (s *stubGateway) CreateOrder(context.Context, gateway.CreateOrderInput) (*orders.Snapshot, error) {
	panic("not used")
}

func (s *stubGateway) GetOrderSnapshot(context.Context, uuid.UUID) (*orders.Snapshot, error) {
	panic("not used")
}

func (s *stubGateway) ListAuditLog(context.Context, uuid.UUID, pagination.Params) (*audit.ListView, error) {
	panic("not used")
}

func (s *stubGateway) CreateReturn(context.Context, gateway.CreateReturnInput) (*returns.View, error) {
	panic("not used")
}

func (s *stubGateway) RequestReturnTransition(context.Context, gateway.ReturnTransitionInput) (*returns.View, error) {
	panic("not used")
}

func (s *stubGateway) RecordPaymentFailure(context.Context, gateway.PaymentFailureInput) (*orders.Snapshot, error) {
	panic("not used")
}

type stubOrdersRepo struct {
	batches [][]models.Order
	calls   int
	cutoffs []time.Time
}

func (s *stubOrdersRepo) ListDeliveredBefore(_ context.Context, cutoff time.Time, _ int) ([]models.Order, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	if s.calls >= len(s.batches) {
		return nil, nil
	}
	batch := s.batches[s.calls]
	s.calls++
	return batch, nil
}

func (s *stubOrdersRepo) WithTx(*gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) Create(context.Context, *models.Order) error { panic("not used") }

func (s *stubOrdersRepo) FindByID(context.Context, uuid.UUID) (*models.Order, error) {
	panic("not used")
}

func (s *stubOrdersRepo) UpdateGuarded(context.Context, *models.Order, int) error {
	panic("not used")
}

func deliveredOrder() models.Order {
	return models.Order{ID: uuid.New(), OrderState: enums.OrderStateDelivered}
}

func TestCompletionSweepCompletesBatches(t *testing.T) {
	gw := &stubGateway{}
	repo := &stubOrdersRepo{batches: [][]models.Order{
		{deliveredOrder(), deliveredOrder()},
		{deliveredOrder()},
	}}

	job, err := NewCompletionSweepJob(gw, repo, config.CompletionConfig{
		GracePeriod: 14 * 24 * time.Hour,
		BatchSize:   2,
	}, logger.New(logger.Options{ServiceName: "cron-test"}))
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, gw.completed, 3)
	require.NotEmpty(t, repo.cutoffs)
	assert.WithinDuration(t, time.Now().Add(-14*24*time.Hour), repo.cutoffs[0], time.Minute)
}

func TestCompletionSweepSkipsBusyOrders(t *testing.T) {
	busy := deliveredOrder()
	gw := &stubGateway{
		failWith:    pkgerrors.New(pkgerrors.CodeBusy, "order is busy"),
		failOrderID: busy.ID,
	}
	other := deliveredOrder()
	repo := &stubOrdersRepo{batches: [][]models.Order{{busy, other}}}

	job, err := NewCompletionSweepJob(gw, repo, config.CompletionConfig{},
		logger.New(logger.Options{ServiceName: "cron-test"}))
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []uuid.UUID{other.ID}, gw.completed)
}

func TestCompletionSweepStopsWhenNothingCompletes(t *testing.T) {
	busy := deliveredOrder()
	gw := &stubGateway{
		failWith:    pkgerrors.New(pkgerrors.CodeInvalidTransition, "already closed"),
		failOrderID: busy.ID,
	}
	repo := &stubOrdersRepo{batches: [][]models.Order{{busy}, {busy}, {busy}}}

	job, err := NewCompletionSweepJob(gw, repo, config.CompletionConfig{},
		logger.New(logger.Options{ServiceName: "cron-test"}))
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, gw.completed)
	assert.Equal(t, 1, repo.calls)
}

func TestCompletionSweepSurfacesHardErrors(t *testing.T) {
	failing := deliveredOrder()
	gw := &stubGateway{
		failWith:    pkgerrors.New(pkgerrors.CodeInternal, "db down"),
		failOrderID: failing.ID,
	}
	repo := &stubOrdersRepo{batches: [][]models.Order{{failing}}}

	job, err := NewCompletionSweepJob(gw, repo, config.CompletionConfig{},
		logger.New(logger.Options{ServiceName: "cron-test"}))
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInternal))
}
