// internal/models/product.go
package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is identified by (category, name). Its slug is fixed at creation.
type Product struct {
	BaseModel
	Name          string     `json:"name" gorm:"size:200;not null;uniqueIndex:idx_products_category_name,priority:2"`
	Slug          string     `json:"slug" gorm:"size:220;not null;uniqueIndex"`
	CategoryID    uuid.UUID  `json:"category_id" gorm:"type:uuid;not null;uniqueIndex:idx_products_category_name,priority:1"`
	SubcategoryID *uuid.UUID `json:"subcategory_id" gorm:"type:uuid;index"`
	Description   string     `json:"description" gorm:"type:text"`
	IsNew         bool       `json:"is_new" gorm:"default:false"`

	// Relationships
	Category    *Category        `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	Subcategory *SubCategory     `json:"subcategory,omitempty" gorm:"foreignKey:SubcategoryID;constraint:OnDelete:SET NULL"`
	Variants    []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

type ProductVariant struct {
	BaseModel
	ProductID     uuid.UUID           `json:"product_id" gorm:"type:uuid;not null;index"`
	CatalogNumber string              `json:"catalog_number" gorm:"size:255;not null;uniqueIndex"`
	Quantity      string              `json:"quantity" gorm:"size:100;not null"`
	Unit          string              `json:"unit" gorm:"size:50"`
	Price         decimal.NullDecimal `json:"price" gorm:"type:decimal(12,2)"`
	IsDefault     bool                `json:"is_default" gorm:"default:false"`
}

// DisplayLabel renders "quantity unit", or the quantity alone when the unit is empty.
func (v *ProductVariant) DisplayLabel() string {
	if strings.TrimSpace(v.Unit) == "" {
		return v.Quantity
	}
	return v.Quantity + " " + v.Unit
}
