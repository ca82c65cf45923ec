package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/pkg/db"
	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
)

// Actor identifies who is managing the registry.
type Actor struct {
	UserID   string
	Role     enums.Role
	Category string
}

// CreateProjectInput registers a named sink for consumed components.
type CreateProjectInput struct {
	Actor       Actor
	Category    string `validate:"required"`
	Name        string `validate:"required"`
	Description *string
}

// Repository defines persistence operations for the project registry.
type Repository interface {
	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	ListByCategory(ctx context.Context, category string) ([]models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// Service owns project registry CRUD. The registry is only a name book: the
// reconciliation engine validates project references as non-empty strings and
// never reads it.
type Service interface {
	Create(ctx context.Context, input CreateProjectInput) (*models.Project, error)
	List(ctx context.Context, actor Actor, category string) ([]models.Project, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a project repository bound to the provided DB.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (r *repository) ListByCategory(ctx context.Context, category string) ([]models.Project, error) {
	var out []models.Project
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Project{})
	return res.RowsAffected, res.Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

type service struct {
	repo Repository
}

// NewService builds the registry service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("projects repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project name required")
	}
	if input.Category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category required")
	}
	if !input.Actor.Role.CanManageCategory(input.Actor.Category, input.Category) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not an admin for this category")
	}

	project := &models.Project{
		ID:          uuid.New(),
		Category:    input.Category,
		Name:        input.Name,
		Description: input.Description,
	}
	created, err := s.repo.Create(ctx, project)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "project name already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create project")
	}
	return created, nil
}

// List scopes visibility the same way the catalog does: below co-super admin
// only the actor's own category is readable.
func (s *service) List(ctx context.Context, actor Actor, category string) ([]models.Project, error) {
	if actor.Role < enums.RoleCoSuperAdmin {
		if category != "" && category != actor.Category {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "projects in another category are not visible")
		}
		category = actor.Category
	}
	if category == "" {
		category = actor.Category
	}
	out, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list projects")
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}

	project, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
	}
	if !actor.Role.CanManageCategory(actor.Category, project.Category) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not an admin for this category")
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete project")
	}
	return nil
}
