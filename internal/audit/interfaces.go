package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
	"github.com/rafaelortiz/tradeyard-backend/pkg/pagination"
)

// Repository covers the append-only audit log storage.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	// ListByOrder pages the order's history oldest first. The second return
	// value is the cursor for the next page, empty when exhausted.
	ListByOrder(ctx context.Context, orderID uuid.UUID, params pagination.Params) ([]models.AuditLogEntry, string, error)
}
