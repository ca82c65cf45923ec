package requests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a request repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.Request) (*models.Request, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var request models.Request
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListByCategory(ctx context.Context, category string, status *enums.RequestStatus) ([]models.Request, error) {
	q := r.db.WithContext(ctx).Where("category = ?", category)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []models.Request
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListAll(ctx context.Context, status *enums.RequestStatus) ([]models.Request, error) {
	q := r.db.WithContext(ctx)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []models.Request
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListByRequester(ctx context.Context, requesterID string) ([]models.Request, error) {
	var out []models.Request
	err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkStatus flips status only when the row still carries the expected source
// state, so a stale client view loses the race instead of double-transitioning.
func (r *repository) MarkStatus(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumn("status", to)
	return res.RowsAffected, res.Error
}

// MarkReturned closes an approved, unreturned request. A non-nil project also
// records the consuming project.
func (r *repository) MarkReturned(ctx context.Context, id uuid.UUID, project *string) (int64, error) {
	updates := map[string]any{"returned": true}
	if project != nil {
		updates["returned_project"] = *project
	}
	res := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ? AND status = ? AND returned = ?", id, enums.RequestStatusApproved, false).
		UpdateColumns(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) CountByStatus(ctx context.Context, category string, status enums.RequestStatus) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Request{}).Where("status = ?", status)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CountOverdue(ctx context.Context, category string, now time.Time) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("status = ? AND returned = ? AND due_date < ?", enums.RequestStatusApproved, false, now)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
