package components

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a component repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, component *models.Component) (*models.Component, error) {
	if err := r.db.WithContext(ctx).Create(component).Error; err != nil {
		return nil, err
	}
	return component, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Component, error) {
	var component models.Component
	err := r.db.WithContext(ctx).
		Preload("UsedWhere").
		Where("id = ?", id).
		First(&component).Error
	if err != nil {
		return nil, err
	}
	return &component, nil
}

func (r *repository) ListByCategory(ctx context.Context, category string) ([]models.Component, error) {
	var out []models.Component
	err := r.db.WithContext(ctx).
		Preload("UsedWhere").
		Where("category = ?", category).
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Component, error) {
	var out []models.Component
	err := r.db.WithContext(ctx).
		Preload("UsedWhere").
		Order("category ASC, name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetStock writes the total-owned counter only when the new value keeps
// in_use <= in_stock. Returns the number of rows touched so the caller can
// distinguish a missing component from a disallowed value.
func (r *repository) SetStock(ctx context.Context, id uuid.UUID, inStock int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Component{}).
		Where("id = ? AND in_use <= ?", id, inStock).
		UpdateColumn("in_stock", inStock)
	return res.RowsAffected, res.Error
}

// Delete removes a component only while no units are lent out.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND in_use = 0", id).
		Delete(&models.Component{})
	return res.RowsAffected, res.Error
}
