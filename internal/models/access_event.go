package models

import (
	"time"

	"gorm.io/gorm"
)

type AccessDecision string

const (
	AccessDecisionGranted AccessDecision = "granted"
	AccessDecisionDenied  AccessDecision = "denied"
)

// AccessEvent is the append-only audit record written for every policy
// evaluation performed on behalf of a subject.
type AccessEvent struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrganisationID uint `gorm:"index" json:"organisation_id"`

	SubjectRef string          `gorm:"not null;index" json:"subject_ref"`
	PolicyID   *uint           `gorm:"index" json:"policy_id,omitempty"`
	Policy     *SecurityPolicy `json:"policy,omitempty"`

	Resource string         `gorm:"index" json:"resource"`
	Action   string         `json:"action"`
	Decision AccessDecision `gorm:"not null;index" json:"decision"`
	Reason   string         `json:"reason,omitempty"`
	Actions  []string       `gorm:"serializer:json" json:"actions,omitempty"`

	CorrelationID string    `gorm:"not null;index" json:"correlation_id"`
	Timestamp     time.Time `gorm:"not null;index" json:"timestamp"`
	IPAddress     string    `json:"ip_address,omitempty"`
	DeviceUID     string    `json:"device_uid,omitempty"`
}
