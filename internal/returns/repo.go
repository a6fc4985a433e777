package returns

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafaelortiz/tradeyard-backend/pkg/db"
	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a returns repository bound to the provided DB.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ret *models.Return) error {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Create(ret).Error
	if err != nil && db.IsUniqueViolation(err) {
		return pkgerrors.New(pkgerrors.CodeConflict, "order already has an open return")
	}
	return err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ret).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
		}
		return nil, err
	}
	return &ret, nil
}

func (r *repository) FindOpenByOrder(ctx context.Context, orderID uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND state NOT IN ?", orderID, []enums.ReturnState{
			enums.ReturnStateRejected,
			enums.ReturnStateRefunded,
		}).
		First(&ret).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ret, nil
}

func (r *repository) UpdateGuarded(ctx context.Context, ret *models.Return, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Return{}).
		Where("id = ? AND version = ?", ret.ID, expectedVersion).
		Updates(map[string]any{
			"state":        ret.State,
			"admin_reason": ret.AdminReason,
			"version":      ret.Version,
			"approved_at":  ret.ApprovedAt,
			"rejected_at":  ret.RejectedAt,
			"returned_at":  ret.ReturnedAt,
			"refunded_at":  ret.RefundedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStaleState, "return changed concurrently")
	}
	return nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Return, error) {
	var rows []models.Return
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
