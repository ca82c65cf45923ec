package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a named sink for terminally consumed components.
type Project struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Category    string    `gorm:"column:category;type:text;not null;index" json:"category"`
	Name        string    `gorm:"column:name;type:text;not null" json:"name"`
	Description *string   `gorm:"column:description;type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
