package components

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("components repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateComponentInput) (*models.Component, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "component name required")
	}
	if input.Category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category required")
	}
	if input.InStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "in_stock must be non-negative")
	}
	if !input.Actor.Role.CanManageCategory(input.Actor.Category, input.Category) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not an admin for this category")
	}

	component := &models.Component{
		ID:       uuid.New(),
		Category: input.Category,
		Name:     input.Name,
		Link:     input.Link,
		ImageKey: input.ImageKey,
		InStock:  input.InStock,
	}
	created, err := s.repo.Create(ctx, component)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create component")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Component, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "component id required")
	}
	component, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "component not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load component")
	}
	return component, nil
}

// List scopes visibility by category: everyone below co-super admin sees only
// their own category, regardless of the requested filter.
func (s *service) List(ctx context.Context, actor Actor, category string) ([]models.Component, error) {
	if actor.Role < enums.RoleCoSuperAdmin {
		if category != "" && category != actor.Category {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "components in another category are not visible")
		}
		category = actor.Category
	}
	if category == "" {
		out, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list components")
		}
		return out, nil
	}
	out, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list components")
	}
	return out, nil
}

// AdjustStock is the admin correction path for in_stock. Values below the
// current in_use are rejected rather than clamped, since accepting them would
// break the ledger invariant for already-lent units.
func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*models.Component, error) {
	if input.ComponentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "component id required")
	}
	if input.NewInStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "in_stock must be non-negative")
	}

	var updated *models.Component
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByID(ctx, input.ComponentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "component not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load component")
		}
		if !input.Actor.Role.CanManageCategory(input.Actor.Category, current.Category) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not an admin for this category")
		}

		rows, err := repo.SetStock(ctx, input.ComponentID, input.NewInStock)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "in_stock cannot drop below units in use").
				WithDetails(map[string]any{"in_use": current.InUse})
		}

		updated, err = repo.FindByID(ctx, input.ComponentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload component")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "component id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "component not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load component")
		}
		if !actor.Role.CanManageCategory(actor.Category, current.Category) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not an admin for this category")
		}

		rows, err := repo.Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete component")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "component has units in use").
				WithDetails(map[string]any{"in_use": current.InUse})
		}
		return nil
	})
}
