package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
)

// Request is one borrow request against a single Component.
// Returned==true implies Status==approved; ReturnedProject set implies
// Returned==true. Both are enforced by the reconciliation engine.
type Request struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RequesterID     string              `gorm:"column:requester_id;type:text;not null;index" json:"requester_id"`
	ComponentID     uuid.UUID           `gorm:"column:component_id;type:uuid;not null;index" json:"component_id"`
	Category        string              `gorm:"column:category;type:text;not null;index:idx_requests_category_status" json:"category"`
	ComponentName   string              `gorm:"column:component_name;type:text;not null" json:"component_name"`
	ImageKey        *string             `gorm:"column:image_key;type:text" json:"image_key,omitempty"`
	HolderName      string              `gorm:"column:holder_name;type:text;not null" json:"holder_name"`
	HolderEmail     string              `gorm:"column:holder_email;type:text;not null" json:"holder_email"`
	HolderPhone     string              `gorm:"column:holder_phone;type:text" json:"holder_phone,omitempty"`
	Quantity        int                 `gorm:"column:quantity;not null" json:"quantity"`
	Purpose         string              `gorm:"column:purpose;type:text" json:"purpose"`
	DueDate         time.Time           `gorm:"column:due_date;not null" json:"due_date"`
	Status          enums.RequestStatus `gorm:"column:status;type:text;not null;default:'pending';index:idx_requests_category_status" json:"status"`
	Returned        bool                `gorm:"column:returned;not null;default:false" json:"returned"`
	ReturnedProject *string             `gorm:"column:returned_project;type:text" json:"returned_project,omitempty"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsOverdue classifies an approved, unreturned request past its due date.
// Purely derived; nothing is stored for this state.
func (r Request) IsOverdue(now time.Time) bool {
	return r.Status == enums.RequestStatusApproved && !r.Returned && r.DueDate.Before(now)
}
