// internal/models/team_member.go
package models

type TeamMember struct {
	BaseModel
	Name     string `json:"name" gorm:"size:100;not null"`
	Role     string `json:"role" gorm:"size:100;not null"`
	ImageURL string `json:"image_url" gorm:"size:500"`
	Order    int    `json:"order" gorm:"column:display_order;default:0;index"`
	IsActive bool   `json:"is_active" gorm:"not null;index"`
}
