package models

import (
	"time"

	"github.com/google/uuid"
)

// Component is one stock-keeping inventory item owned by a category.
// InStock and InUse are mutated only through the reconciliation transitions;
// 0 <= InUse <= InStock holds for every committed state.
type Component struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Category  string    `gorm:"column:category;type:text;not null;index" json:"category"`
	Name      string    `gorm:"column:name;type:text;not null" json:"name"`
	Link      *string   `gorm:"column:link;type:text" json:"link,omitempty"`
	ImageKey  *string   `gorm:"column:image_key;type:text" json:"image_key,omitempty"`
	InStock   int       `gorm:"column:in_stock;not null;default:0" json:"in_stock"`
	InUse     int       `gorm:"column:in_use;not null;default:0" json:"in_use"`
	UsedWhere []Usage   `gorm:"foreignKey:ComponentID;constraint:OnDelete:CASCADE" json:"used_where,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Available returns the units that can still be reserved.
func (c Component) Available() int {
	return c.InStock - c.InUse
}
