package models

import (
	"time"

	"gorm.io/gorm"
)

type PolicyEnforcement string

const (
	EnforcementAdvisory  PolicyEnforcement = "advisory"
	EnforcementMandatory PolicyEnforcement = "mandatory"
	EnforcementCritical  PolicyEnforcement = "critical"
)

type SecurityPolicy struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrganisationID uint `gorm:"index" json:"organisation_id"`

	Name        string            `gorm:"uniqueIndex;not null" json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Enforcement PolicyEnforcement `gorm:"not null;default:'mandatory'" json:"enforcement"`
	Version     int               `gorm:"not null;default:1" json:"version"`

	Active        bool       `gorm:"not null;default:true" json:"active"`
	EffectiveFrom time.Time  `gorm:"not null" json:"effective_from"`
	ExpiresAt     *time.Time `json:"expires_at"`

	RequiresApproval bool       `gorm:"not null;default:false" json:"requires_approval"`
	ApprovedBy       *uint      `json:"approved_by"`
	ApprovedAt       *time.Time `json:"approved_at"`

	Conditions PolicyConditions  `gorm:"serializer:json" json:"conditions"`
	Actions    PolicyActions     `gorm:"serializer:json" json:"actions"`
	Exceptions []PolicyException `gorm:"serializer:json" json:"exceptions"`
	Metrics    PolicyMetrics     `gorm:"serializer:json" json:"metrics"`
}

// PolicyConditions groups the restriction categories of a policy. Every
// category is optional; a nil category places no restriction on that axis.
type PolicyConditions struct {
	Roles    *RoleConditions     `json:"roles,omitempty"`
	Time     *TimeConditions     `json:"time,omitempty"`
	Location *LocationConditions `json:"location,omitempty"`
	Device   *DeviceConditions   `json:"device,omitempty"`
	Resource *ResourceConditions `json:"resource,omitempty"`
	Risk     *RiskConditions     `json:"risk,omitempty"`
}

type RoleConditions struct {
	AllowedRoles  []string `json:"allowed_roles,omitempty"`
	AllowedGroups []string `json:"allowed_groups,omitempty"`
}

type TimeConditions struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

type LocationConditions struct {
	AllowedIPs       []string `json:"allowed_ips,omitempty"`
	BlockedIPs       []string `json:"blocked_ips,omitempty"`
	AllowedCountries []string `json:"allowed_countries,omitempty"`
	BlockedCountries []string `json:"blocked_countries,omitempty"`
}

type DeviceConditions struct {
	AllowedDeviceTypes    []string      `json:"allowed_device_types,omitempty"`
	RequiredSecurityLevel SecurityLevel `json:"required_security_level,omitempty"`
	BiometricRequired     bool          `json:"biometric_required"`
	MFARequired           bool          `json:"mfa_required"`
}

type ResourceConditions struct {
	AllowedResources []string `json:"allowed_resources,omitempty"`
	BlockedResources []string `json:"blocked_resources,omitempty"`
	ResourceTypes    []string `json:"resource_types,omitempty"`
}

type RiskConditions struct {
	MaxRiskScore               *float64      `json:"max_risk_score,omitempty"`
	RequiredClearance          SecurityLevel `json:"required_clearance,omitempty"`
	MaxSuspiciousActivityScore *float64      `json:"max_suspicious_activity_score,omitempty"`
}

type PolicyActions struct {
	Allow             bool     `json:"allow"`
	Deny              bool     `json:"deny"`
	RequireMFA        bool     `json:"require_mfa"`
	RequireBiometric  bool     `json:"require_biometric"`
	RequireApproval   bool     `json:"require_approval"`
	LogEvent          bool     `json:"log_event"`
	SendAlert         bool     `json:"send_alert"`
	BlockUser         bool     `json:"block_user"`
	QuarantineDevice  bool     `json:"quarantine_device"`
	EscalateToAdmin   bool     `json:"escalate_to_admin"`
	CustomActions     []string `json:"custom_actions,omitempty"`
}

// List returns the action names for every enabled flag in a stable order,
// followed by any custom actions.
func (a PolicyActions) List() []string {
	actions := []string{}
	flags := []struct {
		set  bool
		name string
	}{
		{a.Allow, "allow"},
		{a.Deny, "deny"},
		{a.RequireMFA, "requireMFA"},
		{a.RequireBiometric, "requireBiometric"},
		{a.RequireApproval, "requireApproval"},
		{a.LogEvent, "logEvent"},
		{a.SendAlert, "sendAlert"},
		{a.BlockUser, "blockUser"},
		{a.QuarantineDevice, "quarantineDevice"},
		{a.EscalateToAdmin, "escalateToAdmin"},
	}
	for _, f := range flags {
		if f.set {
			actions = append(actions, f.name)
		}
	}
	actions = append(actions, a.CustomActions...)
	return actions
}

type PolicyException struct {
	UserID     string     `json:"user_id,omitempty"`
	UserGroups []string   `json:"user_groups,omitempty"`
	Resource   string     `json:"resource,omitempty"`
	NotBefore  *time.Time `json:"not_before,omitempty"`
	NotAfter   *time.Time `json:"not_after,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	ApprovedBy string     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}

// Matches reports whether the exception covers the given context. A user ID,
// group overlap, resource match or an active time-range entry each suffice.
func (e PolicyException) Matches(ctx EvalContext, now time.Time) bool {
	if e.UserID != "" && ctx.UserID != "" && e.UserID == ctx.UserID {
		return true
	}

	if len(e.UserGroups) > 0 && containsAny(e.UserGroups, ctx.UserGroups) {
		return true
	}

	if e.Resource != "" && ctx.Resource != "" && e.Resource == ctx.Resource {
		return true
	}

	if e.NotBefore != nil && e.NotAfter != nil {
		if !now.Before(*e.NotBefore) && !now.After(*e.NotAfter) {
			return true
		}
	}

	return false
}

type PolicyMetrics struct {
	TotalEvaluations int64      `json:"total_evaluations"`
	Allowed          int64      `json:"allowed"`
	Denied           int64      `json:"denied"`
	MFARequired      int64      `json:"mfa_required"`
	AlertsRaised     int64      `json:"alerts_raised"`
	AvgEvaluationMs  float64    `json:"avg_evaluation_ms"`
	EffectivenessPct float64    `json:"effectiveness_pct"`
	LastEvaluatedAt  *time.Time `json:"last_evaluated_at,omitempty"`
}

// EvalContext is the runtime context a policy is evaluated against. Zero
// values mean the field was not supplied by the caller.
type EvalContext struct {
	UserID                  string        `json:"user_id,omitempty"`
	UserRoles               []string      `json:"user_roles,omitempty"`
	UserGroups              []string      `json:"user_groups,omitempty"`
	IPAddress               string        `json:"ip_address,omitempty"`
	Country                 string        `json:"country,omitempty"`
	DeviceType              string        `json:"device_type,omitempty"`
	DeviceSecurityLevel     SecurityLevel `json:"device_security_level,omitempty"`
	BiometricVerified       bool          `json:"biometric_verified"`
	MFAVerified             bool          `json:"mfa_verified"`
	Resource                string        `json:"resource,omitempty"`
	ResourceType            string        `json:"resource_type,omitempty"`
	RiskScore               *float64      `json:"risk_score,omitempty"`
	SecurityClearance       SecurityLevel `json:"security_clearance,omitempty"`
	SuspiciousActivityScore *float64      `json:"suspicious_activity_score,omitempty"`
}

type EvalResult struct {
	Allowed bool     `json:"allowed"`
	Actions []string `json:"actions"`
	Reason  string   `json:"reason,omitempty"`
}

func (p *SecurityPolicy) IsEffective(now time.Time) bool {
	if !p.Active {
		return false
	}

	if now.Before(p.EffectiveFrom) {
		return false
	}

	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return false
	}

	return true
}

func (p *SecurityPolicy) IsPending() bool {
	return p.RequiresApproval && p.ApprovedBy == nil
}

func (p *SecurityPolicy) IsApproved() bool {
	return !p.RequiresApproval || p.ApprovedBy != nil
}

// EvaluateAccess produces the access decision for the given context.
// Effectiveness is checked first, then exceptions in list order, then every
// condition category; a single failing category denies the evaluation.
// The function never returns an error: denial is a normal result.
func (p *SecurityPolicy) EvaluateAccess(ctx EvalContext, now time.Time) EvalResult {
	if !p.IsEffective(now) {
		return EvalResult{
			Allowed: false,
			Actions: []string{"deny"},
			Reason:  "Policy is not effective",
		}
	}

	for _, exception := range p.Exceptions {
		if exception.Matches(ctx, now) {
			return EvalResult{
				Allowed: true,
				Actions: []string{"allow"},
				Reason:  "Exception granted",
			}
		}
	}

	if ok, reason := p.Conditions.Evaluate(ctx, now); !ok {
		return EvalResult{
			Allowed: false,
			Actions: []string{"deny"},
			Reason:  reason,
		}
	}

	result := EvalResult{
		Allowed: p.Actions.Allow && !p.Actions.Deny,
		Actions: p.Actions.List(),
	}

	if !result.Allowed {
		result.Reason = "Denied by policy action"
	}

	return result
}

// UpdateMetrics folds one evaluation into the policy's running counters.
// Metrics are write-only telemetry: evaluation itself never reads them.
func (p *SecurityPolicy) UpdateMetrics(result EvalResult, elapsed time.Duration) {
	m := &p.Metrics

	m.TotalEvaluations++
	if result.Allowed {
		m.Allowed++
	} else {
		m.Denied++
	}

	for _, action := range result.Actions {
		switch action {
		case "requireMFA":
			m.MFARequired++
		case "sendAlert":
			m.AlertsRaised++
		}
	}

	elapsedMs := float64(elapsed.Microseconds()) / 1000.0
	m.AvgEvaluationMs = (m.AvgEvaluationMs*float64(m.TotalEvaluations-1) + elapsedMs) / float64(m.TotalEvaluations)
	m.EffectivenessPct = float64(m.Allowed) / float64(m.TotalEvaluations) * 100

	evaluatedAt := time.Now()
	m.LastEvaluatedAt = &evaluatedAt
}

// Evaluate applies every present condition category. Categories combine with
// logical AND; the first failing category's reason is returned.
func (c PolicyConditions) Evaluate(ctx EvalContext, now time.Time) (bool, string) {
	if c.Roles != nil && !c.Roles.evaluate(ctx) {
		return false, "Role conditions not met"
	}

	if c.Time != nil && !c.Time.evaluate(now) {
		return false, "Outside permitted time window"
	}

	if c.Location != nil && !c.Location.evaluate(ctx) {
		return false, "Location conditions not met"
	}

	if c.Device != nil && !c.Device.evaluate(ctx) {
		return false, "Device conditions not met"
	}

	if c.Resource != nil && !c.Resource.evaluate(ctx) {
		return false, "Resource conditions not met"
	}

	if c.Risk != nil && !c.Risk.evaluate(ctx) {
		return false, "Risk conditions not met"
	}

	return true, ""
}

func (rc *RoleConditions) evaluate(ctx EvalContext) bool {
	if len(rc.AllowedRoles) > 0 && !containsAny(rc.AllowedRoles, ctx.UserRoles) {
		return false
	}

	if len(rc.AllowedGroups) > 0 && !containsAny(rc.AllowedGroups, ctx.UserGroups) {
		return false
	}

	return true
}

// evaluate compares the wall clock as zero-padded HH:MM strings, which sort
// the same lexically and numerically, and checks the day-of-week list.
func (tc *TimeConditions) evaluate(now time.Time) bool {
	if tc.Timezone != "" {
		if loc, err := time.LoadLocation(tc.Timezone); err == nil {
			now = now.In(loc)
		}
	}

	current := now.Format("15:04")

	if tc.StartTime != "" && current < tc.StartTime {
		return false
	}

	if tc.EndTime != "" && current > tc.EndTime {
		return false
	}

	if len(tc.DaysOfWeek) > 0 && !containsInt(tc.DaysOfWeek, int(now.Weekday())) {
		return false
	}

	return true
}

// Location and the remaining evaluators skip a sub-check when the context
// field it examines is absent; only supplied fields can fail a check.
func (lc *LocationConditions) evaluate(ctx EvalContext) bool {
	if ctx.IPAddress != "" {
		if containsString(lc.BlockedIPs, ctx.IPAddress) {
			return false
		}

		if len(lc.AllowedIPs) > 0 && !containsString(lc.AllowedIPs, ctx.IPAddress) {
			return false
		}
	}

	if ctx.Country != "" {
		if containsString(lc.BlockedCountries, ctx.Country) {
			return false
		}

		if len(lc.AllowedCountries) > 0 && !containsString(lc.AllowedCountries, ctx.Country) {
			return false
		}
	}

	return true
}

func (dc *DeviceConditions) evaluate(ctx EvalContext) bool {
	if ctx.DeviceType != "" && len(dc.AllowedDeviceTypes) > 0 && !containsString(dc.AllowedDeviceTypes, ctx.DeviceType) {
		return false
	}

	if dc.RequiredSecurityLevel != "" && ctx.DeviceSecurityLevel != "" && !ctx.DeviceSecurityLevel.Meets(dc.RequiredSecurityLevel) {
		return false
	}

	if dc.BiometricRequired && !ctx.BiometricVerified {
		return false
	}

	if dc.MFARequired && !ctx.MFAVerified {
		return false
	}

	return true
}

func (rc *ResourceConditions) evaluate(ctx EvalContext) bool {
	if ctx.Resource != "" {
		if containsString(rc.BlockedResources, ctx.Resource) {
			return false
		}

		if len(rc.AllowedResources) > 0 && !containsString(rc.AllowedResources, ctx.Resource) {
			return false
		}
	}

	if ctx.ResourceType != "" && len(rc.ResourceTypes) > 0 && !containsString(rc.ResourceTypes, ctx.ResourceType) {
		return false
	}

	return true
}

func (rk *RiskConditions) evaluate(ctx EvalContext) bool {
	if rk.MaxRiskScore != nil && ctx.RiskScore != nil && *ctx.RiskScore > *rk.MaxRiskScore {
		return false
	}

	if rk.RequiredClearance != "" && ctx.SecurityClearance != "" && !ctx.SecurityClearance.Meets(rk.RequiredClearance) {
		return false
	}

	if rk.MaxSuspiciousActivityScore != nil && ctx.SuspiciousActivityScore != nil && *ctx.SuspiciousActivityScore > *rk.MaxSuspiciousActivityScore {
		return false
	}

	return true
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func containsInt(list []int, value int) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func containsAny(list []string, values []string) bool {
	for _, value := range values {
		if containsString(list, value) {
			return true
		}
	}
	return false
}
