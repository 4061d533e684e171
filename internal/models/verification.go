package models

import (
	"time"

	"gorm.io/gorm"
)

type DBSLevel string

const (
	DBSLevelBasic    DBSLevel = "basic"
	DBSLevelStandard DBSLevel = "standard"
	DBSLevelEnhanced DBSLevel = "enhanced"
)

type CheckStatus string

const (
	CheckStatusPending CheckStatus = "pending"
	CheckStatusClear   CheckStatus = "clear"
	CheckStatusFlagged CheckStatus = "flagged"
	CheckStatusExpired CheckStatus = "expired"
)

type DBSCheck struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StaffID uint        `gorm:"not null;index" json:"staff_id"`
	Staff   StaffMember `gorm:"foreignKey:StaffID" json:"staff,omitempty"`

	// Certificate numbers are stored encrypted; only the trailing digits are
	// exposed for display.
	EncryptedCertificate string `gorm:"not null" json:"-"`
	CertificateLast4     string `json:"certificate_last4"`

	Level     DBSLevel    `gorm:"not null;default:'enhanced'" json:"level"`
	Status    CheckStatus `gorm:"not null;default:'pending'" json:"status"`
	IssuedAt  time.Time   `gorm:"not null" json:"issued_at"`
	ExpiresAt *time.Time  `json:"expires_at"`
	CheckedBy uint        `json:"checked_by"`
}

func (d *DBSCheck) IsValid(t time.Time) bool {
	if d.Status != CheckStatusClear {
		return false
	}
	return d.ExpiresAt == nil || t.Before(*d.ExpiresAt)
}

func (d *DBSCheck) ExpiresWithin(t time.Time, days int) bool {
	if d.ExpiresAt == nil {
		return false
	}
	limit := t.AddDate(0, 0, days)
	return d.ExpiresAt.After(t) && !d.ExpiresAt.After(limit)
}

type RightToWorkCheck struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StaffID uint        `gorm:"not null;index" json:"staff_id"`
	Staff   StaffMember `gorm:"foreignKey:StaffID" json:"staff,omitempty"`

	DocumentType      string `gorm:"not null" json:"document_type"`
	EncryptedDocument string `gorm:"not null" json:"-"`
	DocumentLast4     string `json:"document_last4"`

	Status     CheckStatus `gorm:"not null;default:'pending'" json:"status"`
	VerifiedBy uint        `json:"verified_by"`
	VerifiedAt time.Time   `gorm:"not null" json:"verified_at"`
	ExpiresAt  *time.Time  `json:"expires_at"`
}

func (r *RightToWorkCheck) IsValid(t time.Time) bool {
	if r.Status != CheckStatusClear {
		return false
	}
	return r.ExpiresAt == nil || t.Before(*r.ExpiresAt)
}
