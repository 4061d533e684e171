package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type StaffRole string

const (
	StaffRoleCareWorker StaffRole = "care_worker"
	StaffRoleNurse      StaffRole = "nurse"
	StaffRoleManager    StaffRole = "manager"
	StaffRoleAdmin      StaffRole = "admin"
)

type StaffMember struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrganisationID uint `gorm:"index" json:"organisation_id"`

	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	FirstName string    `gorm:"not null" json:"first_name"`
	LastName  string    `gorm:"not null" json:"last_name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string    `json:"phone"`
	Role      StaffRole `gorm:"not null;default:'care_worker'" json:"role"`
	JobTitle  string    `json:"job_title"`

	EmploymentStart time.Time  `json:"employment_start"`
	EmploymentEnd   *time.Time `json:"employment_end"`

	IsAdmin bool `gorm:"not null;default:false" json:"is_admin"`
	Active  bool `gorm:"not null;default:true" json:"active"`

	DBSChecks         []DBSCheck         `json:"dbs_checks,omitempty"`
	RightToWorkChecks []RightToWorkCheck `json:"right_to_work_checks,omitempty"`
	CarePlans         []CarePlan         `gorm:"foreignKey:KeyWorkerID" json:"care_plans,omitempty"`
}

func (s *StaffMember) BeforeSave(tx *gorm.DB) error {
	if s.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		s.Password = string(hashedPassword)
	}
	return nil
}

func (s *StaffMember) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(s.Password), []byte(password))
	return err == nil
}

func (s *StaffMember) FullName() string {
	return s.FirstName + " " + s.LastName
}

func (s *StaffMember) IsEmployed(t time.Time) bool {
	if t.Before(s.EmploymentStart) {
		return false
	}
	return s.EmploymentEnd == nil || t.Before(*s.EmploymentEnd)
}

func (s *StaffMember) CanAccessDashboard() bool {
	return s.IsAdmin
}
