package components

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
)

// Repository defines persistence operations for the component catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, component *models.Component) (*models.Component, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Component, error)
	ListByCategory(ctx context.Context, category string) ([]models.Component, error)
	ListAll(ctx context.Context) ([]models.Component, error)
	SetStock(ctx context.Context, id uuid.UUID, inStock int) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service defines the admin-facing catalog operations. Stock counters are only
// mutated here through AdjustStock; lifecycle transitions go through the ledger.
type Service interface {
	Create(ctx context.Context, input CreateComponentInput) (*models.Component, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Component, error)
	List(ctx context.Context, actor Actor, category string) ([]models.Component, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (*models.Component, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}
