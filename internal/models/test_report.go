package models

import (
	"time"

	"gorm.io/gorm"
)

// TestReport records one run of a system test suite for the health dashboard.
type TestReport struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Suite       string    `gorm:"not null;index" json:"suite"`
	RunAt       time.Time `gorm:"not null" json:"run_at"`
	DurationMs  int64     `json:"duration_ms"`
	Total       int       `gorm:"not null" json:"total"`
	Passed      int       `gorm:"not null" json:"passed"`
	Failed      int       `gorm:"not null" json:"failed"`
	Skipped     int       `json:"skipped"`
	Notes       string    `json:"notes"`
	TriggeredBy uint      `json:"triggered_by"`
}

func (r *TestReport) PassRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total) * 100
}

func (r *TestReport) Healthy() bool {
	return r.Failed == 0 && r.Total > 0
}
