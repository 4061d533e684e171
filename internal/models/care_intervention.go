package models

import (
	"time"

	"gorm.io/gorm"
)

type InterventionCategory string

const (
	InterventionCategoryMedication InterventionCategory = "medication"
	InterventionCategoryMobility   InterventionCategory = "mobility"
	InterventionCategoryNutrition  InterventionCategory = "nutrition"
	InterventionCategoryHygiene    InterventionCategory = "hygiene"
	InterventionCategorySocial     InterventionCategory = "social"
	InterventionCategoryClinical   InterventionCategory = "clinical"
)

type CareIntervention struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CarePlanID uint     `gorm:"not null;index" json:"care_plan_id"`
	CarePlan   CarePlan `json:"care_plan,omitempty"`

	Name     string               `gorm:"not null" json:"name"`
	Category InterventionCategory `gorm:"not null;default:'clinical'" json:"category"`
	Notes    string               `json:"notes"`

	ScheduledAt time.Time  `gorm:"not null" json:"scheduled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy *uint      `json:"completed_by"`
	Outcome     string     `json:"outcome"`
}

func (i *CareIntervention) IsCompleted() bool {
	return i.CompletedAt != nil
}

func (i *CareIntervention) IsOverdue(t time.Time) bool {
	return i.CompletedAt == nil && t.After(i.ScheduledAt)
}

func (i *CareIntervention) Complete(staffID uint, outcome string, t time.Time) {
	completedAt := t
	i.CompletedAt = &completedAt
	i.CompletedBy = &staffID
	i.Outcome = outcome
}
