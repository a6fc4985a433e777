package returns

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
)

// Repository covers return persistence for the lifecycle engine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ret *models.Return) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Return, error)
	// FindOpenByOrder returns the order's single non-terminal return, or nil
	// when every return on the order is closed.
	FindOpenByOrder(ctx context.Context, orderID uuid.UUID) (*models.Return, error)
	// UpdateGuarded persists the return's mutable fields only while the stored
	// version still matches expectedVersion.
	UpdateGuarded(ctx context.Context, ret *models.Return, expectedVersion int) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Return, error)
}
