package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rafaelortiz/tradeyard-backend/internal/audit"
	"github.com/rafaelortiz/tradeyard-backend/internal/orders"
	"github.com/rafaelortiz/tradeyard-backend/internal/payments"
	"github.com/rafaelortiz/tradeyard-backend/internal/returns"
	"github.com/rafaelortiz/tradeyard-backend/pkg/db"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/lock"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
	"github.com/rafaelortiz/tradeyard-backend/pkg/metrics"
	"github.com/rafaelortiz/tradeyard-backend/pkg/outbox"
	"github.com/rafaelortiz/tradeyard-backend/pkg/pagination"
)

const lockScopeOrder = "order"

// Actor identifies who is requesting an operation.
type Actor struct {
	Role enums.ActorRole
	ID   *uuid.UUID
}

// Service is the single entry point for every state mutation. It serializes
// writes per order behind a redis lock, delegates the decision to the pure
// machines, and persists state, audit entries and outbox rows in one
// transaction.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*orders.Snapshot, error)
	RequestOrderTransition(ctx context.Context, input OrderTransitionInput) (*orders.Snapshot, error)
	GetOrderSnapshot(ctx context.Context, orderID uuid.UUID) (*orders.Snapshot, error)
	ListAuditLog(ctx context.Context, orderID uuid.UUID, params pagination.Params) (*audit.ListView, error)
	CreateReturn(ctx context.Context, input CreateReturnInput) (*returns.View, error)
	RequestReturnTransition(ctx context.Context, input ReturnTransitionInput) (*returns.View, error)
	RecordPaymentFailure(ctx context.Context, input PaymentFailureInput) (*orders.Snapshot, error)
}

type service struct {
	dbc         *db.Client
	ordersRepo  orders.Repository
	returnsRepo returns.Repository
	auditSvc    audit.Service
	coordinator payments.Coordinator
	outboxSvc   *outbox.Service
	locks       *lock.Manager
	metrics     *metrics.TransitionMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// NewService wires the gateway with its collaborators.
func NewService(
	dbc *db.Client,
	ordersRepo orders.Repository,
	returnsRepo returns.Repository,
	auditSvc audit.Service,
	coordinator payments.Coordinator,
	outboxSvc *outbox.Service,
	locks *lock.Manager,
	transitionMetrics *metrics.TransitionMetrics,
	logg *logger.Logger,
) (Service, error) {
	if dbc == nil {
		return nil, fmt.Errorf("db client required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if returnsRepo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if coordinator == nil {
		return nil, fmt.Errorf("payment coordinator required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if locks == nil {
		return nil, fmt.Errorf("lock manager required")
	}
	if transitionMetrics == nil {
		return nil, fmt.Errorf("transition metrics required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		dbc:         dbc,
		ordersRepo:  ordersRepo,
		returnsRepo: returnsRepo,
		auditSvc:    auditSvc,
		coordinator: coordinator,
		outboxSvc:   outboxSvc,
		locks:       locks,
		metrics:     transitionMetrics,
		logg:        logg,
		now:         time.Now,
	}, nil
}

// lockOrder serializes writers on a single order. A bounded wait that still
// fails surfaces as a retryable busy error, never as a queue.
func (s *service) lockOrder(ctx context.Context, machine string, orderID uuid.UUID) (*lock.Handle, error) {
	start := s.now()
	handle, err := s.locks.Acquire(ctx, lockScopeOrder, orderID.String())
	s.metrics.ObserveLockWait(machine, s.now().Sub(start))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, pkgerrors.New(pkgerrors.CodeBusy, "order is busy, retry shortly")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to acquire order lock")
	}
	return handle, nil
}

func (s *service) releaseLock(ctx context.Context, handle *lock.Handle) {
	if err := handle.Release(ctx); err != nil {
		s.logg.Error(ctx, "failed to release order lock", err)
	}
}

// rejectionCode maps engine rejections to the code recorded on the audit
// trail. Infrastructure failures return empty, they are not decisions.
func rejectionCode(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return ""
	}
	switch typed.Code() {
	case pkgerrors.CodeInvalidTransition,
		pkgerrors.CodeConflict,
		pkgerrors.CodeAmountExceeded,
		pkgerrors.CodeStaleState,
		pkgerrors.CodeMissingReason,
		pkgerrors.CodeForbidden:
		return string(typed.Code())
	}
	return ""
}

func (s *service) outcomeFor(err error) string {
	if err == nil {
		return string(enums.AuditOutcomeApplied)
	}
	if rejectionCode(err) != "" {
		return string(enums.AuditOutcomeRejected)
	}
	return "error"
}

func requireReason(action fmt.Stringer, reason *string) error {
	if reason == nil || strings.TrimSpace(*reason) == "" {
		return pkgerrors.New(pkgerrors.CodeMissingReason,
			fmt.Sprintf("action %s requires a reason", action))
	}
	return nil
}
