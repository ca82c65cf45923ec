package userinventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
)

// Repository defines persistence operations for the per-requester mirror.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.UserInventoryRecord) error
	SetStatus(ctx context.Context, requestID uuid.UUID, status enums.RequestStatus) (int64, error)
	MarkReturned(ctx context.Context, requestID uuid.UUID) (int64, error)
	ListByRequester(ctx context.Context, requesterID string) ([]models.UserInventoryRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a mirror repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.UserInventoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) SetStatus(ctx context.Context, requestID uuid.UUID, status enums.RequestStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserInventoryRecord{}).
		Where("request_id = ?", requestID).
		UpdateColumn("status", status)
	return res.RowsAffected, res.Error
}

func (r *repository) MarkReturned(ctx context.Context, requestID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserInventoryRecord{}).
		Where("request_id = ?", requestID).
		UpdateColumn("returned", true)
	return res.RowsAffected, res.Error
}

func (r *repository) ListByRequester(ctx context.Context, requesterID string) ([]models.UserInventoryRecord, error) {
	var out []models.UserInventoryRecord
	err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
