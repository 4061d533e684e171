package models

import (
	"time"

	"gorm.io/gorm"
)

type CarePlanStatus string

const (
	CarePlanStatusDraft    CarePlanStatus = "draft"
	CarePlanStatusActive   CarePlanStatus = "active"
	CarePlanStatusArchived CarePlanStatus = "archived"
)

type CarePlan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrganisationID uint `gorm:"index" json:"organisation_id"`

	ResidentRef  string         `gorm:"not null;index" json:"resident_ref"`
	ResidentName string         `gorm:"not null" json:"resident_name"`
	Title        string         `gorm:"not null" json:"title"`
	Summary      string         `json:"summary"`
	Goals        string         `json:"goals"`
	Status       CarePlanStatus `gorm:"not null;default:'draft'" json:"status"`

	KeyWorkerID uint        `gorm:"not null" json:"key_worker_id"`
	KeyWorker   StaffMember `gorm:"foreignKey:KeyWorkerID" json:"key_worker,omitempty"`

	ReviewCycleDays int        `gorm:"not null;default:90" json:"review_cycle_days"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at"`
	NextReviewAt    *time.Time `json:"next_review_at"`

	Interventions []CareIntervention `json:"interventions,omitempty"`
}

func (p *CarePlan) IsDueForReview(t time.Time) bool {
	if p.NextReviewAt == nil {
		return p.Status == CarePlanStatusActive
	}
	return !t.Before(*p.NextReviewAt)
}

func (p *CarePlan) IsOverdue(t time.Time) bool {
	return p.NextReviewAt != nil && t.After(p.NextReviewAt.AddDate(0, 0, 7))
}

// MarkReviewed records a completed review and schedules the next one from
// the plan's review cycle.
func (p *CarePlan) MarkReviewed(t time.Time) {
	reviewedAt := t
	nextReview := t.AddDate(0, 0, p.ReviewCycleDays)
	p.LastReviewedAt = &reviewedAt
	p.NextReviewAt = &nextReview
}
