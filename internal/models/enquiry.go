// internal/models/enquiry.go
package models

import (
	"github.com/google/uuid"
)

type Enquiry struct {
	BaseModel
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	VariantID uuid.UUID `json:"variant_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" gorm:"size:254;not null"`
	Phone     string    `json:"phone" gorm:"size:20"`
	Message   string    `json:"message" gorm:"type:text"`

	// Relationships
	Product *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variant *ProductVariant `json:"variant,omitempty" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
}

func (Enquiry) TableName() string {
	return "enquiries"
}
