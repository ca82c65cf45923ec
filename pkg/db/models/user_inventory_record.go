package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
)

// UserInventoryRecord is the denormalized per-requester mirror of a Request,
// kept in sync inside the same transaction as every request transition so a
// requester's dashboard never joins across categories.
type UserInventoryRecord struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RequesterID   string              `gorm:"column:requester_id;type:text;not null;index" json:"requester_id"`
	RequestID     uuid.UUID           `gorm:"column:request_id;type:uuid;not null;uniqueIndex" json:"request_id"`
	ComponentID   uuid.UUID           `gorm:"column:component_id;type:uuid;not null" json:"component_id"`
	ComponentName string              `gorm:"column:component_name;type:text;not null" json:"component_name"`
	ImageKey      *string             `gorm:"column:image_key;type:text" json:"image_key,omitempty"`
	Quantity      int                 `gorm:"column:quantity;not null" json:"quantity"`
	Purpose       string              `gorm:"column:purpose;type:text" json:"purpose"`
	DueDate       time.Time           `gorm:"column:due_date;not null" json:"due_date"`
	Status        enums.RequestStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	Returned      bool                `gorm:"column:returned;not null;default:false" json:"returned"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
