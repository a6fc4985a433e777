package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
	"github.com/rafaelortiz/tradeyard-backend/pkg/pagination"
)

// Service records transition attempts and serves order history.
type Service interface {
	// RecordApplied writes an applied entry inside the caller's transaction so
	// it commits or rolls back with the state change itself.
	RecordApplied(ctx context.Context, tx *gorm.DB, input RecordTransitionInput) error
	// RecordRejected writes a rejected entry outside any transaction, after
	// the attempted mutation has been rolled back. Failures are logged, not
	// returned, so a full audit log never masks the original rejection.
	RecordRejected(ctx context.Context, input RecordTransitionInput, rejectionCode string)
	ListByOrder(ctx context.Context, orderID uuid.UUID, params pagination.Params) ([]models.AuditLogEntry, string, error)
}

// RecordTransitionInput captures the immutable data an audit entry requires.
type RecordTransitionInput struct {
	OrderID          uuid.UUID
	ReturnID         *uuid.UUID
	Machine          enums.AuditMachine
	Action           string
	ActorRole        enums.ActorRole
	ActorID          *uuid.UUID
	FromState        string
	ToState          string
	Reason           *string
	ResultingVersion int
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) RecordApplied(ctx context.Context, tx *gorm.DB, input RecordTransitionInput) error {
	entry, err := buildEntry(input, enums.AuditOutcomeApplied)
	if err != nil {
		return err
	}
	return s.repo.WithTx(tx).Create(ctx, entry)
}

func (s *service) RecordRejected(ctx context.Context, input RecordTransitionInput, rejectionCode string) {
	entry, err := buildEntry(input, enums.AuditOutcomeRejected)
	if err != nil {
		s.logg.Error(ctx, "invalid rejected audit entry", err)
		return
	}
	entry.RejectionCode = &rejectionCode
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logg.Error(ctx, "failed to record rejected transition", err)
	}
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID, params pagination.Params) ([]models.AuditLogEntry, string, error) {
	if orderID == uuid.Nil {
		return nil, "", fmt.Errorf("order id is required")
	}
	return s.repo.ListByOrder(ctx, orderID, params)
}

func buildEntry(input RecordTransitionInput, outcome enums.AuditOutcome) (*models.AuditLogEntry, error) {
	if input.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if !input.Machine.IsValid() {
		return nil, fmt.Errorf("invalid audit machine %q", input.Machine)
	}
	if !input.ActorRole.IsValid() {
		return nil, fmt.Errorf("invalid actor role %q", input.ActorRole)
	}
	if input.Action == "" {
		return nil, fmt.Errorf("action is required")
	}

	return &models.AuditLogEntry{
		OrderID:          input.OrderID,
		ReturnID:         input.ReturnID,
		Machine:          input.Machine,
		Action:           input.Action,
		ActorRole:        input.ActorRole,
		ActorID:          input.ActorID,
		FromState:        input.FromState,
		ToState:          input.ToState,
		Outcome:          outcome,
		Reason:           input.Reason,
		ResultingVersion: input.ResultingVersion,
	}, nil
}
