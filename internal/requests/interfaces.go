package requests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/internal/components"
	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
)

// Repository defines persistence operations for borrow requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.Request) (*models.Request, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	ListByCategory(ctx context.Context, category string, status *enums.RequestStatus) ([]models.Request, error)
	ListAll(ctx context.Context, status *enums.RequestStatus) ([]models.Request, error)
	ListByRequester(ctx context.Context, requesterID string) ([]models.Request, error)
	MarkStatus(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus) (int64, error)
	MarkReturned(ctx context.Context, id uuid.UUID, project *string) (int64, error)
	CountByStatus(ctx context.Context, category string, status enums.RequestStatus) (int64, error)
	CountOverdue(ctx context.Context, category string, now time.Time) (int64, error)
}

// StockLedger is the slice of the component ledger the engine drives.
// Every method is tx-scoped so a transition's three writes share one commit.
type StockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, input components.ReserveInput) error
	Release(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error
	AttributeToProject(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, projectRef string) error
}

// MirrorWriter keeps the per-requester inventory mirror in step with every
// request transition.
type MirrorWriter interface {
	CreateFromRequest(ctx context.Context, tx *gorm.DB, request *models.Request) error
	SetStatus(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, status enums.RequestStatus) error
	MarkReturned(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error
}

// ComponentReader loads catalog rows for request creation.
type ComponentReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Component, error)
}

// Service is the reconciliation engine: it owns every lifecycle transition of
// a borrow request and the invariant-preserving writes those transitions make
// against the stock ledger and the mirror.
type Service interface {
	Create(ctx context.Context, input CreateRequestInput) (*models.Request, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Request, error)
	List(ctx context.Context, input ListRequestsInput) (*RequestList, error)
	Approve(ctx context.Context, input TransitionInput) (*models.Request, error)
	Reject(ctx context.Context, input TransitionInput) (*models.Request, error)
	ReturnAsComponent(ctx context.Context, input TransitionInput) (*models.Request, error)
	ReturnAsProject(ctx context.Context, input ReturnAsProjectInput) (*models.Request, error)
}
