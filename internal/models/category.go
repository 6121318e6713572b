// internal/models/category.go
package models

import (
	"github.com/google/uuid"
)

type Category struct {
	BaseModel
	Name string `json:"name" gorm:"size:200;not null;uniqueIndex"`
	Slug string `json:"slug" gorm:"size:220;not null;uniqueIndex"`

	// Relationships
	Subcategories []SubCategory `json:"subcategories,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

// SubCategory names are unique within their category only.
type SubCategory struct {
	BaseModel
	CategoryID uuid.UUID `json:"category_id" gorm:"type:uuid;not null;uniqueIndex:idx_subcategories_category_name,priority:1"`
	Name       string    `json:"name" gorm:"size:200;not null;uniqueIndex:idx_subcategories_category_name,priority:2"`
}

func (SubCategory) TableName() string {
	return "subcategories"
}
