package requests

import (
	"time"

	"github.com/google/uuid"

	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
)

// Actor identifies who is driving a transition.
type Actor struct {
	UserID   string
	Role     enums.Role
	Category string
}

// CreateRequestInput captures a new borrow request. OnBehalfOf lets an admin
// file a request for another member; everyone else requests as themselves.
type CreateRequestInput struct {
	Actor       Actor
	ComponentID uuid.UUID `validate:"required"`
	Quantity    int       `validate:"required,gt=0"`
	Purpose     string    `validate:"required"`
	DueDate     time.Time `validate:"required"`
	HolderName  string    `validate:"required"`
	HolderEmail string    `validate:"required,email"`
	HolderPhone string
	OnBehalfOf  string
}

// TransitionInput drives approve, reject, and return-as-component.
type TransitionInput struct {
	Actor     Actor
	RequestID uuid.UUID `validate:"required"`
}

// ReturnAsProjectInput retires the borrowed units into a named project.
type ReturnAsProjectInput struct {
	Actor      Actor
	RequestID  uuid.UUID `validate:"required"`
	ProjectRef string    `validate:"required"`
}

// ListRequestsInput scopes the admin request view.
type ListRequestsInput struct {
	Actor    Actor
	Category string
	Status   *enums.RequestStatus
}

// Stats summarizes a category's request queue by bucket.
type Stats struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Overdue  int64 `json:"overdue"`
}

// RequestList is the admin view: the filtered rows, the overdue slice of the
// approved view, and queue stats. Overdue is derived at read time only.
type RequestList struct {
	Requests []models.Request `json:"requests"`
	Overdue  []models.Request `json:"overdue,omitempty"`
	Stats    Stats            `json:"stats"`
}
