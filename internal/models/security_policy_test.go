package models

import (
	"reflect"
	"testing"
	"time"
)

func floatPtr(f float64) *float64 {
	return &f
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// Monday 10:00 UTC.
func testClock() time.Time {
	return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
}

func basePolicy() SecurityPolicy {
	return SecurityPolicy{
		Name:          "test-policy",
		Active:        true,
		EffectiveFrom: testClock().AddDate(0, -1, 0),
		Actions:       PolicyActions{Allow: true, LogEvent: true},
	}
}

func TestEvaluateAccessInactivePolicy(t *testing.T) {
	policy := basePolicy()
	policy.Active = false

	result := policy.EvaluateAccess(EvalContext{}, testClock())

	if result.Allowed {
		t.Fatal("inactive policy must deny")
	}
	if result.Reason != "Policy is not effective" {
		t.Errorf("unexpected reason: %q", result.Reason)
	}
	if !reflect.DeepEqual(result.Actions, []string{"deny"}) {
		t.Errorf("unexpected actions: %v", result.Actions)
	}
}

func TestEvaluateAccessNotYetEffective(t *testing.T) {
	policy := basePolicy()
	policy.EffectiveFrom = testClock().AddDate(0, 0, 1)

	if result := policy.EvaluateAccess(EvalContext{}, testClock()); result.Allowed {
		t.Error("policy before its effective date must deny")
	}
}

func TestEvaluateAccessExpired(t *testing.T) {
	policy := basePolicy()
	policy.ExpiresAt = timePtr(testClock().AddDate(0, 0, -1))

	if result := policy.EvaluateAccess(EvalContext{}, testClock()); result.Allowed {
		t.Error("expired policy must deny")
	}
}

func TestEvaluateAccessExceptionOverridesConditions(t *testing.T) {
	policy := basePolicy()
	policy.Conditions.Roles = &RoleConditions{AllowedRoles: []string{"manager"}}
	policy.Exceptions = []PolicyException{
		{UserID: "STAFF-0042", Reason: "on-call override"},
	}

	ctx := EvalContext{UserID: "STAFF-0042", UserRoles: []string{"care_worker"}}
	result := policy.EvaluateAccess(ctx, testClock())

	if !result.Allowed {
		t.Fatalf("exception should grant access, got reason %q", result.Reason)
	}
	if result.Reason != "Exception granted" {
		t.Errorf("unexpected reason: %q", result.Reason)
	}

	// The same context without the exception fails on roles.
	policy.Exceptions = nil
	if result := policy.EvaluateAccess(ctx, testClock()); result.Allowed {
		t.Error("role condition should deny without the exception")
	}
}

func TestEvaluateAccessExceptionTimeRange(t *testing.T) {
	policy := basePolicy()
	policy.Conditions.Roles = &RoleConditions{AllowedRoles: []string{"manager"}}
	policy.Exceptions = []PolicyException{
		{
			NotBefore: timePtr(testClock().Add(-time.Hour)),
			NotAfter:  timePtr(testClock().Add(time.Hour)),
		},
	}

	if result := policy.EvaluateAccess(EvalContext{}, testClock()); !result.Allowed {
		t.Error("active time-range exception should grant access")
	}

	if result := policy.EvaluateAccess(EvalContext{}, testClock().Add(2*time.Hour)); result.Allowed {
		t.Error("lapsed time-range exception should not grant access")
	}
}

func TestEvaluateAccessTimeWindow(t *testing.T) {
	policy := basePolicy()
	policy.Conditions.Time = &TimeConditions{
		StartTime:  "09:00",
		EndTime:    "17:00",
		DaysOfWeek: []int{1, 2, 3, 4, 5},
	}

	// Monday 10:00 is inside the window.
	if result := policy.EvaluateAccess(EvalContext{}, testClock()); !result.Allowed {
		t.Errorf("weekday working hours should be allowed, got %q", result.Reason)
	}

	// Monday 08:00 is before the window opens.
	early := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	result := policy.EvaluateAccess(EvalContext{}, early)
	if result.Allowed {
		t.Error("attempt before start time should be denied")
	}
	if result.Reason != "Outside permitted time window" {
		t.Errorf("unexpected reason: %q", result.Reason)
	}

	// Sunday is not in the day list.
	sunday := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if result := policy.EvaluateAccess(EvalContext{}, sunday); result.Allowed {
		t.Error("Sunday should be denied")
	}
}

func TestEvaluateAccessDenyOverridesAllow(t *testing.T) {
	policy := basePolicy()
	policy.Actions = PolicyActions{Allow: true, Deny: true, LogEvent: true}

	result := policy.EvaluateAccess(EvalContext{}, testClock())

	if result.Allowed {
		t.Fatal("deny action must override allow")
	}
	if result.Reason != "Denied by policy action" {
		t.Errorf("unexpected reason: %q", result.Reason)
	}
}

func TestEvaluateAccessRoleConditionEmptyContext(t *testing.T) {
	policy := basePolicy()
	policy.Conditions.Roles = &RoleConditions{AllowedRoles: []string{"nurse"}}

	// Role lists are not guarded by context presence: a caller that supplies
	// no roles fails a role-restricted policy.
	if result := policy.EvaluateAccess(EvalContext{}, testClock()); result.Allowed {
		t.Error("empty role context should fail a role-restricted policy")
	}
}

func TestEvaluateAccessLocationGuards(t *testing.T) {
	policy := basePolicy()
	policy.Conditions.Location = &LocationConditions{
		AllowedIPs:       []string{"10.0.0.5"},
		BlockedCountries: []string{"XX"},
	}

	// IP and country checks only run when the context supplies them.
	if result := policy.EvaluateAccess(EvalContext{}, testClock()); !result.Allowed {
		t.Errorf("absent location context should skip location checks, got %q", result.Reason)
	}

	if result := policy.EvaluateAccess(EvalContext{IPAddress: "10.0.0.5"}, testClock()); !result.Allowed {
		t.Errorf("allow-listed IP should pass, got %q", result.Reason)
	}

	if result := policy.EvaluateAccess(EvalContext{IPAddress: "192.168.1.9"}, testClock()); result.Allowed {
		t.Error("IP outside the allow list should be denied")
	}

	if result := policy.EvaluateAccess(EvalContext{Country: "XX"}, testClock()); result.Allowed {
		t.Error("blocked country should be denied")
	}
}

func TestEvaluateAccessDeviceConditions(t *testing.T) {
	policy := basePolicy()
	policy.Conditions.Device = &DeviceConditions{
		RequiredSecurityLevel: SecurityLevelHigh,
		MFARequired:           true,
	}

	ctx := EvalContext{DeviceSecurityLevel: SecurityLevelCritical, MFAVerified: true}
	if result := policy.EvaluateAccess(ctx, testClock()); !result.Allowed {
		t.Errorf("critical device with MFA should pass, got %q", result.Reason)
	}

	ctx.DeviceSecurityLevel = SecurityLevelStandard
	if result := policy.EvaluateAccess(ctx, testClock()); result.Allowed {
		t.Error("standard device should not meet a high requirement")
	}

	ctx.DeviceSecurityLevel = SecurityLevelHigh
	ctx.MFAVerified = false
	if result := policy.EvaluateAccess(ctx, testClock()); result.Allowed {
		t.Error("missing MFA should be denied")
	}
}

func TestEvaluateAccessRiskConditions(t *testing.T) {
	policy := basePolicy()
	policy.Conditions.Risk = &RiskConditions{
		MaxRiskScore:      floatPtr(50),
		RequiredClearance: SecurityLevelStandard,
	}

	ctx := EvalContext{RiskScore: floatPtr(30), SecurityClearance: SecurityLevelHigh}
	if result := policy.EvaluateAccess(ctx, testClock()); !result.Allowed {
		t.Errorf("low risk with clearance should pass, got %q", result.Reason)
	}

	ctx.RiskScore = floatPtr(80)
	if result := policy.EvaluateAccess(ctx, testClock()); result.Allowed {
		t.Error("risk score above the ceiling should be denied")
	}

	ctx.RiskScore = nil
	ctx.SecurityClearance = SecurityLevelLow
	if result := policy.EvaluateAccess(ctx, testClock()); result.Allowed {
		t.Error("clearance below the requirement should be denied")
	}

	// Absent risk fields skip their checks.
	if result := policy.EvaluateAccess(EvalContext{}, testClock()); !result.Allowed {
		t.Errorf("absent risk context should skip risk checks, got %q", result.Reason)
	}
}

func TestEvaluateAccessConditionRoundTrip(t *testing.T) {
	policy := basePolicy()
	policy.Conditions.Resource = &ResourceConditions{
		AllowedResources: []string{"medication_room"},
	}

	ctx := EvalContext{Resource: "medication_room"}
	if result := policy.EvaluateAccess(ctx, testClock()); !result.Allowed {
		t.Fatalf("allowed resource should pass, got %q", result.Reason)
	}

	policy.Conditions.Resource.BlockedResources = []string{"medication_room"}
	if result := policy.EvaluateAccess(ctx, testClock()); result.Allowed {
		t.Error("blocking the same resource must flip the decision")
	}
}

func TestPolicyActionsListOrder(t *testing.T) {
	actions := PolicyActions{
		Allow:            true,
		RequireMFA:       true,
		RequireBiometric: true,
		LogEvent:         true,
		SendAlert:        true,
		EscalateToAdmin:  true,
		CustomActions:    []string{"notifyFamily"},
	}

	want := []string{"allow", "requireMFA", "requireBiometric", "logEvent", "sendAlert", "escalateToAdmin", "notifyFamily"}
	if got := actions.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("action order mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestUpdateMetrics(t *testing.T) {
	policy := basePolicy()

	policy.UpdateMetrics(EvalResult{Allowed: true, Actions: []string{"allow", "requireMFA"}}, 2*time.Millisecond)
	policy.UpdateMetrics(EvalResult{Allowed: false, Actions: []string{"deny", "sendAlert"}}, 4*time.Millisecond)

	m := policy.Metrics
	if m.TotalEvaluations != 2 {
		t.Errorf("TotalEvaluations = %d, want 2", m.TotalEvaluations)
	}
	if m.Allowed != 1 || m.Denied != 1 {
		t.Errorf("Allowed/Denied = %d/%d, want 1/1", m.Allowed, m.Denied)
	}
	if m.MFARequired != 1 {
		t.Errorf("MFARequired = %d, want 1", m.MFARequired)
	}
	if m.AlertsRaised != 1 {
		t.Errorf("AlertsRaised = %d, want 1", m.AlertsRaised)
	}
	if m.AvgEvaluationMs < 2.9 || m.AvgEvaluationMs > 3.1 {
		t.Errorf("AvgEvaluationMs = %f, want ~3", m.AvgEvaluationMs)
	}
	if m.EffectivenessPct != 50 {
		t.Errorf("EffectivenessPct = %f, want 50", m.EffectivenessPct)
	}
	if m.LastEvaluatedAt == nil {
		t.Error("LastEvaluatedAt not set")
	}
}

func TestSecurityLevelOrdering(t *testing.T) {
	ordered := []SecurityLevel{
		SecurityLevelLow,
		SecurityLevelMedium,
		SecurityLevelStandard,
		SecurityLevelHigh,
		SecurityLevelCritical,
	}

	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("%s should rank above %s", ordered[i], ordered[i-1])
		}
		if !ordered[i].Meets(ordered[i-1]) {
			t.Errorf("%s should meet %s", ordered[i], ordered[i-1])
		}
		if ordered[i-1].Meets(ordered[i]) {
			t.Errorf("%s should not meet %s", ordered[i-1], ordered[i])
		}
	}

	if !SecurityLevelHigh.Meets(SecurityLevelHigh) {
		t.Error("a level should meet itself")
	}
}

func TestThreatLevelEscalate(t *testing.T) {
	if got := ThreatLevelLow.Escalate(); got != ThreatLevelMedium {
		t.Errorf("low escalates to %s, want medium", got)
	}
	if got := ThreatLevelMedium.Escalate(); got != ThreatLevelHigh {
		t.Errorf("medium escalates to %s, want high", got)
	}
	if got := ThreatLevelCritical.Escalate(); got != ThreatLevelHigh {
		t.Errorf("critical escalates to %s, want high", got)
	}
}
