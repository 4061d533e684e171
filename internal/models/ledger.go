package models

import (
	"time"

	"gorm.io/gorm"
)

type LedgerAccountType string

const (
	LedgerAccountAsset     LedgerAccountType = "asset"
	LedgerAccountLiability LedgerAccountType = "liability"
	LedgerAccountIncome    LedgerAccountType = "income"
	LedgerAccountExpense   LedgerAccountType = "expense"
)

type LedgerAccount struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrganisationID uint `gorm:"index" json:"organisation_id"`

	Code   string            `gorm:"uniqueIndex;not null" json:"code"`
	Name   string            `gorm:"not null" json:"name"`
	Type   LedgerAccountType `gorm:"not null" json:"type"`
	Active bool              `gorm:"not null;default:true" json:"active"`

	Entries []LedgerEntry `gorm:"foreignKey:AccountID" json:"entries,omitempty"`
}

// LedgerEntry records one posting. Amounts are integer pence; the bookkeeping
// arithmetic itself lives outside this service.
type LedgerEntry struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	AccountID uint          `gorm:"not null;index" json:"account_id"`
	Account   LedgerAccount `gorm:"foreignKey:AccountID" json:"account,omitempty"`

	EntryDate   time.Time `gorm:"not null;index" json:"entry_date"`
	Reference   string    `gorm:"not null" json:"reference"`
	Description string    `json:"description"`
	ResidentRef string    `gorm:"index" json:"resident_ref,omitempty"`

	DebitPence  int64 `gorm:"not null;default:0" json:"debit_pence"`
	CreditPence int64 `gorm:"not null;default:0" json:"credit_pence"`

	PostedBy uint `json:"posted_by"`
}

func (e *LedgerEntry) NetPence() int64 {
	return e.DebitPence - e.CreditPence
}
