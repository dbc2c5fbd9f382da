package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportJob records one batch resolution run for auditing. Failures holds the
// per-record errors as JSON so partial failures stay visible after the run.
type ImportJob struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"` // uuid
	Source       Source         `gorm:"size:32;not null" json:"source"`
	Status       string         `gorm:"size:16;not null;default:running" json:"status"` // running, completed, failed
	TotalRecords int            `json:"total_records"`
	Resolved     int            `json:"resolved"`
	Created      int            `json:"created"`
	Unresolved   int            `json:"unresolved"`
	Failed       int            `json:"failed"`
	Failures     datatypes.JSON `json:"failures"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at"`
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
