package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
	"github.com/rafaelortiz/tradeyard-backend/pkg/enums"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateGuarded(ctx context.Context, order *models.Order, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(map[string]any{
			"order_state":    order.OrderState,
			"payment_state":  order.PaymentState,
			"refunded_cents": order.RefundedCents,
			"version":        order.Version,
			"accepted_at":    order.AcceptedAt,
			"confirmed_at":   order.ConfirmedAt,
			"shipped_at":     order.ShippedAt,
			"delivered_at":   order.DeliveredAt,
			"completed_at":   order.CompletedAt,
			"cancelled_at":   order.CancelledAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStaleState, "order changed concurrently")
	}
	return nil
}

func (r *repository) ListDeliveredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("order_state = ? AND delivered_at IS NOT NULL AND delivered_at <= ?", enums.OrderStateDelivered, cutoff).
		Order("delivered_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
