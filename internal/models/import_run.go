// internal/models/import_run.go
package models

import (
	"time"
)

// ImportRun records one execution of the spreadsheet import pipeline.
type ImportRun struct {
	BaseModel
	Source               string          `json:"source" gorm:"size:500;not null"`
	Checksum             string          `json:"checksum" gorm:"size:64;index"`
	Trigger              ImportTrigger   `json:"trigger" gorm:"type:varchar(20);not null"`
	Status               ImportRunStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	FallbackCategory     string          `json:"fallback_category" gorm:"size:200"`
	TotalRows            int             `json:"total_rows"`
	CategoriesCreated    int             `json:"categories_created"`
	SubcategoriesCreated int             `json:"subcategories_created"`
	ProductsCreated      int             `json:"products_created"`
	VariantsCreated      int             `json:"variants_created"`
	VariantsUpdated      int             `json:"variants_updated"`
	VariantsUnchanged    int             `json:"variants_unchanged"`
	RowsSkipped          int             `json:"rows_skipped"`
	RowsFailed           int             `json:"rows_failed"`
	Warnings             JSONArray       `json:"warnings" gorm:"type:jsonb"`
	Errors               JSONArray       `json:"errors" gorm:"type:jsonb"`
	FailureReason        string          `json:"failure_reason,omitempty" gorm:"type:text"`
	StartedAt            time.Time       `json:"started_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
}
