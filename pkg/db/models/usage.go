package models

import (
	"time"

	"github.com/google/uuid"
)

// Usage attributes reserved units of a Component to a holder or, once
// consumed, to a project. One row per request; the unique request id makes
// reserve/release idempotent across retries.
type Usage struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ComponentID uuid.UUID `gorm:"column:component_id;type:uuid;not null;index" json:"component_id"`
	RequestID   uuid.UUID `gorm:"column:request_id;type:uuid;not null;uniqueIndex" json:"request_id"`
	HolderName  string    `gorm:"column:holder_name;type:text;not null" json:"holder_name"`
	HolderEmail string    `gorm:"column:holder_email;type:text;not null" json:"holder_email"`
	HolderPhone string    `gorm:"column:holder_phone;type:text" json:"holder_phone,omitempty"`
	Quantity    int       `gorm:"column:quantity;not null" json:"quantity"`
	Project     *string   `gorm:"column:project;type:text" json:"project,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
