package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
)

// Repository covers order persistence for the lifecycle engine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// UpdateGuarded persists the order's mutable fields only while the stored
	// version still matches expectedVersion, bumping the version by one.
	UpdateGuarded(ctx context.Context, order *models.Order, expectedVersion int) error
	// ListDeliveredBefore returns delivered orders whose delivery happened at
	// or before the cutoff, for the completion sweep.
	ListDeliveredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}
