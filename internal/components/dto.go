package components

import (
	"github.com/google/uuid"

	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
)

// Actor identifies who is performing a catalog operation.
type Actor struct {
	UserID   string
	Role     enums.Role
	Category string
}

// CreateComponentInput carries the fields required to register a component.
type CreateComponentInput struct {
	Actor    Actor
	Category string  `validate:"required"`
	Name     string  `validate:"required"`
	Link     *string `validate:"omitempty,url"`
	ImageKey *string
	InStock  int `validate:"gte=0"`
}

// AdjustStockInput is the admin correction path for the total-owned counter.
type AdjustStockInput struct {
	Actor       Actor
	ComponentID uuid.UUID `validate:"required"`
	NewInStock  int       `validate:"gte=0"`
}
