package models

import (
	"sort"
	"time"

	"gorm.io/gorm"
)

type SubjectType string

const (
	SubjectTypeStaff    SubjectType = "staff"
	SubjectTypeResident SubjectType = "resident"
	SubjectTypeVisitor  SubjectType = "visitor"
)

type BiometricStatus string

const (
	BiometricStatusActive   BiometricStatus = "active"
	BiometricStatusDisabled BiometricStatus = "disabled"
	BiometricStatusExpired  BiometricStatus = "expired"
)

const (
	maxAccessHistory     = 1000
	lockoutThreshold     = 5
	lockoutMinutes       = 30
	threatWindow         = 24 * time.Hour
	activityProfileDays  = 30
	topActivityRankCount = 3
)

type AccessControlUser struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrganisationID uint `gorm:"index" json:"organisation_id"`

	SubjectRef  string      `gorm:"uniqueIndex;not null" json:"subject_ref"`
	SubjectType SubjectType `gorm:"not null;default:'staff'" json:"subject_type"`
	DisplayName string      `gorm:"not null" json:"display_name"`
	AccessLevel AccessLevel `gorm:"not null;default:'standard'" json:"access_level"`
	Active      bool        `gorm:"not null;default:true" json:"active"`

	MFAEnabled        bool `gorm:"not null;default:false" json:"mfa_enabled"`
	BiometricRequired bool `gorm:"not null;default:false" json:"biometric_required"`

	Permissions       []SubjectPermission   `gorm:"serializer:json" json:"permissions"`
	AccessCards       []AccessCard          `gorm:"serializer:json" json:"access_cards"`
	BiometricData     []BiometricEnrollment `gorm:"serializer:json" json:"biometric_data"`
	AccessSchedule    []ScheduleWindow      `gorm:"serializer:json" json:"access_schedule"`
	SecurityClearance ClearanceGrant        `gorm:"serializer:json" json:"security_clearance"`
	IPRestrictions    []string              `gorm:"serializer:json" json:"ip_restrictions"`

	AccessHistory      []AccessAttempt    `gorm:"serializer:json" json:"-"`
	ThreatIntelligence ThreatIntelligence `gorm:"serializer:json" json:"threat_intelligence"`

	FailedAccessAttempts int        `gorm:"not null;default:0" json:"failed_access_attempts"`
	AccountLockedUntil   *time.Time `json:"account_locked_until"`
	LastAccessTime       *time.Time `json:"last_access_time"`
}

type SubjectPermission struct {
	Resource  string     `json:"resource"`
	Action    string     `json:"action"`
	RiskLevel string     `json:"risk_level,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (p SubjectPermission) IsValid(now time.Time) bool {
	return p.ExpiresAt == nil || now.Before(*p.ExpiresAt)
}

type AccessCard struct {
	CardNumber string     `json:"card_number"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Active     bool       `json:"active"`
}

type BiometricEnrollment struct {
	Type          string          `json:"type"`
	TemplateHash  string          `json:"template_hash"`
	QualityScore  float64         `json:"quality_score"`
	AccuracyScore float64         `json:"accuracy_score"`
	Status        BiometricStatus `json:"status"`
	EnrolledAt    time.Time       `json:"enrolled_at"`
}

type ScheduleWindow struct {
	DaysOfWeek    []int       `json:"days_of_week"`
	StartTime     string      `json:"start_time"`
	EndTime       string      `json:"end_time"`
	AccessLevel   AccessLevel `json:"access_level,omitempty"`
	EffectiveFrom time.Time   `json:"effective_from"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
}

func (w ScheduleWindow) Covers(t time.Time) bool {
	if t.Before(w.EffectiveFrom) {
		return false
	}

	if w.ExpiresAt != nil && t.After(*w.ExpiresAt) {
		return false
	}

	if len(w.DaysOfWeek) > 0 && !containsInt(w.DaysOfWeek, int(t.Weekday())) {
		return false
	}

	current := t.Format("15:04")
	if w.StartTime != "" && current < w.StartTime {
		return false
	}
	if w.EndTime != "" && current > w.EndTime {
		return false
	}

	return true
}

type ClearanceGrant struct {
	Level             SecurityLevel `json:"level,omitempty"`
	ExpiresAt         *time.Time    `json:"expires_at,omitempty"`
	BackgroundChecked bool          `json:"background_checked"`
}

func (c ClearanceGrant) IsValid(now time.Time) bool {
	if c.Level == "" {
		return false
	}

	if !c.BackgroundChecked {
		return false
	}

	return c.ExpiresAt == nil || now.Before(*c.ExpiresAt)
}

type AccessAttempt struct {
	AttemptTime time.Time `json:"attempt_time"`
	Success     bool      `json:"success"`
	Resource    string    `json:"resource,omitempty"`
	Location    string    `json:"location,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	DeviceUID   string    `json:"device_uid,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

type ThreatIntelligence struct {
	ThreatLevel    ThreatLevel `json:"threat_level"`
	LastAssessment *time.Time  `json:"last_assessment,omitempty"`
	SecurityScore  int         `json:"security_score"`
	FailedLast24h  int         `json:"failed_last_24h"`
}

// AddAccessAttempt folds one attempt into the subject's rolling history.
// History is bounded to the most recent 1000 attempts; a success resets the
// failure counter, the fifth consecutive failure locks the account for 30
// minutes. Threat intelligence is recomputed on every attempt.
func (u *AccessControlUser) AddAccessAttempt(attempt AccessAttempt, now time.Time) {
	u.AccessHistory = append(u.AccessHistory, attempt)
	if len(u.AccessHistory) > maxAccessHistory {
		u.AccessHistory = u.AccessHistory[len(u.AccessHistory)-maxAccessHistory:]
	}

	if attempt.Success {
		attemptTime := attempt.AttemptTime
		u.LastAccessTime = &attemptTime
		u.FailedAccessAttempts = 0
	} else {
		u.FailedAccessAttempts++
		if u.FailedAccessAttempts >= lockoutThreshold {
			u.LockAccount(lockoutMinutes, now)
		}
	}

	u.updateThreatIntelligence(attempt, now)
}

func (u *AccessControlUser) LockAccount(minutes int, now time.Time) {
	lockedUntil := now.Add(time.Duration(minutes) * time.Minute)
	u.AccountLockedUntil = &lockedUntil
}

func (u *AccessControlUser) UnlockAccount() {
	u.AccountLockedUntil = nil
	u.FailedAccessAttempts = 0
}

func (u *AccessControlUser) IsAccountLocked(now time.Time) bool {
	return u.AccountLockedUntil != nil && now.Before(*u.AccountLockedUntil)
}

// updateThreatIntelligence derives the threat level from failures in the
// trailing 24 hours, escalating one step when the attempt falls outside the
// subject's usual hours and locations.
func (u *AccessControlUser) updateThreatIntelligence(attempt AccessAttempt, now time.Time) {
	cutoff := now.Add(-threatWindow)

	failed := 0
	for _, a := range u.AccessHistory {
		if !a.Success && a.AttemptTime.After(cutoff) {
			failed++
		}
	}

	var level ThreatLevel
	switch {
	case failed >= 10:
		level = ThreatLevelCritical
	case failed >= 5:
		level = ThreatLevelHigh
	case failed >= 2:
		level = ThreatLevelMedium
	default:
		level = ThreatLevelLow
	}

	if u.isUnusualAttempt(attempt, now) {
		level = level.Escalate()
	}

	assessedAt := now
	u.ThreatIntelligence.ThreatLevel = level
	u.ThreatIntelligence.LastAssessment = &assessedAt
	u.ThreatIntelligence.FailedLast24h = failed
	u.ThreatIntelligence.SecurityScore = u.CalculateSecurityScore(now)
}

// isUnusualAttempt checks the attempt against the subject's activity profile:
// the top three most-active hours and locations over the trailing 30 days of
// successful attempts. An attempt outside both is unusual. The attempt under
// assessment is already the newest history entry and is excluded from the
// profile, otherwise it would always count itself as usual activity.
func (u *AccessControlUser) isUnusualAttempt(attempt AccessAttempt, now time.Time) bool {
	cutoff := now.AddDate(0, 0, -activityProfileDays)

	profile := u.AccessHistory
	if n := len(profile); n > 0 {
		profile = profile[:n-1]
	}

	hourCounts := map[int]int{}
	locationCounts := map[string]int{}
	for _, a := range profile {
		if !a.Success || a.AttemptTime.Before(cutoff) {
			continue
		}
		hourCounts[a.AttemptTime.Hour()]++
		if a.Location != "" {
			locationCounts[a.Location]++
		}
	}

	topHours := topIntKeys(hourCounts, topActivityRankCount)
	topLocations := topStringKeys(locationCounts, topActivityRankCount)

	unusualHour := !containsInt(topHours, attempt.AttemptTime.Hour())
	unusualLocation := !containsString(topLocations, attempt.Location)

	return unusualHour && unusualLocation
}

// CalculateSecurityScore produces the subject's score on a 0-100 scale from
// failure count, clearance, MFA and biometric posture and the current threat
// level. Visitor-level subjects are not penalised for missing MFA/biometrics.
func (u *AccessControlUser) CalculateSecurityScore(now time.Time) int {
	score := 100

	score -= 5 * u.FailedAccessAttempts

	if !u.SecurityClearance.IsValid(now) {
		score -= 20
	}

	if !u.MFAEnabled && u.AccessLevel != AccessLevelVisitor {
		score -= 15
	}

	if len(u.BiometricData) == 0 && u.AccessLevel != AccessLevelVisitor {
		score -= 10
	}

	switch u.ThreatIntelligence.ThreatLevel {
	case ThreatLevelHigh:
		score -= 25
	case ThreatLevelCritical:
		score -= 50
	}

	if u.BiometricRequired {
		score += 10
	}

	if u.distinctBiometricTypes() >= 2 {
		score += 5
	}

	if len(u.IPRestrictions) > 0 {
		score += 5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score
}

func (u *AccessControlUser) distinctBiometricTypes() int {
	types := map[string]bool{}
	for _, b := range u.BiometricData {
		types[b.Type] = true
	}
	return len(types)
}

// CanAccessAtTime reports whether any schedule window grants access at t.
// Inactive subjects never have access; with no windows configured access is
// denied rather than open.
func (u *AccessControlUser) CanAccessAtTime(t time.Time) bool {
	if !u.Active {
		return false
	}

	for _, window := range u.AccessSchedule {
		if window.Covers(t) {
			return true
		}
	}

	return false
}

func (u *AccessControlUser) ActivePermissions(now time.Time) []SubjectPermission {
	active := []SubjectPermission{}
	for _, p := range u.Permissions {
		if p.IsValid(now) {
			active = append(active, p)
		}
	}
	return active
}

func topIntKeys(counts map[int]int, n int) []int {
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func topStringKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
