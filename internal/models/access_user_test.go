package models

import (
	"fmt"
	"testing"
	"time"
)

func testSubject() AccessControlUser {
	return AccessControlUser{
		SubjectRef:  "STAFF-0001",
		SubjectType: SubjectTypeStaff,
		DisplayName: "Test Subject",
		AccessLevel: AccessLevelStandard,
		Active:      true,
	}
}

func TestAddAccessAttemptLockout(t *testing.T) {
	subject := testSubject()
	now := testClock()

	for i := 0; i < 4; i++ {
		subject.AddAccessAttempt(AccessAttempt{AttemptTime: now, Success: false}, now)
		if subject.IsAccountLocked(now) {
			t.Fatalf("account locked after %d failures", i+1)
		}
	}

	subject.AddAccessAttempt(AccessAttempt{AttemptTime: now, Success: false}, now)

	if !subject.IsAccountLocked(now) {
		t.Fatal("account should lock on the fifth failure")
	}
	if subject.AccountLockedUntil == nil {
		t.Fatal("AccountLockedUntil not set")
	}
	if got := subject.AccountLockedUntil.Sub(now); got != 30*time.Minute {
		t.Errorf("lockout duration = %v, want 30m", got)
	}

	if subject.IsAccountLocked(now.Add(31 * time.Minute)) {
		t.Error("lockout should expire after 30 minutes")
	}
}

func TestAddAccessAttemptSuccessResetsFailures(t *testing.T) {
	subject := testSubject()
	now := testClock()

	for i := 0; i < 3; i++ {
		subject.AddAccessAttempt(AccessAttempt{AttemptTime: now, Success: false}, now)
	}
	if subject.FailedAccessAttempts != 3 {
		t.Fatalf("FailedAccessAttempts = %d, want 3", subject.FailedAccessAttempts)
	}

	subject.AddAccessAttempt(AccessAttempt{AttemptTime: now, Success: true}, now)

	if subject.FailedAccessAttempts != 0 {
		t.Errorf("success should reset the failure counter, got %d", subject.FailedAccessAttempts)
	}
	if subject.LastAccessTime == nil || !subject.LastAccessTime.Equal(now) {
		t.Error("LastAccessTime not updated on success")
	}
}

func TestAccessHistoryBounded(t *testing.T) {
	subject := testSubject()
	now := testClock()

	for i := 0; i < 1050; i++ {
		subject.AddAccessAttempt(AccessAttempt{
			AttemptTime: now.Add(time.Duration(i) * time.Minute),
			Success:     true,
			Resource:    fmt.Sprintf("resource-%d", i),
		}, now)
	}

	if len(subject.AccessHistory) != 1000 {
		t.Fatalf("history length = %d, want 1000", len(subject.AccessHistory))
	}

	// Oldest entries are evicted first.
	if subject.AccessHistory[0].Resource != "resource-50" {
		t.Errorf("oldest retained entry = %s, want resource-50", subject.AccessHistory[0].Resource)
	}
	if subject.AccessHistory[999].Resource != "resource-1049" {
		t.Errorf("newest entry = %s, want resource-1049", subject.AccessHistory[999].Resource)
	}
}

func TestThreatLevelFromRecentFailures(t *testing.T) {
	cases := []struct {
		failures int
		want     ThreatLevel
	}{
		{1, ThreatLevelLow},
		{2, ThreatLevelMedium},
		{5, ThreatLevelHigh},
		{10, ThreatLevelCritical},
	}

	for _, tc := range cases {
		subject := testSubject()
		now := testClock()

		// Establish a usual activity profile so escalation does not kick in.
		for i := 0; i < 10; i++ {
			subject.AddAccessAttempt(AccessAttempt{
				AttemptTime: now.AddDate(0, 0, -i-1),
				Success:     true,
				Location:    "Main Building",
			}, now)
		}

		for i := 0; i < tc.failures; i++ {
			subject.AddAccessAttempt(AccessAttempt{
				AttemptTime: now.Add(-time.Duration(i) * time.Minute),
				Success:     false,
				Location:    "Main Building",
			}, now)
		}

		if got := subject.ThreatIntelligence.ThreatLevel; got != tc.want {
			t.Errorf("%d failures: threat level = %s, want %s", tc.failures, got, tc.want)
		}
		if subject.ThreatIntelligence.FailedLast24h != tc.failures {
			t.Errorf("%d failures: FailedLast24h = %d", tc.failures, subject.ThreatIntelligence.FailedLast24h)
		}
	}
}

func TestUnusualAttemptEscalatesThreatLevel(t *testing.T) {
	subject := testSubject()
	now := testClock()

	// Build a profile: successes at 10:00 from one location over prior days.
	for i := 1; i <= 10; i++ {
		subject.AddAccessAttempt(AccessAttempt{
			AttemptTime: now.AddDate(0, 0, -i),
			Success:     true,
			Location:    "Main Building",
		}, now)
	}

	if subject.ThreatIntelligence.ThreatLevel != ThreatLevelLow {
		t.Fatalf("baseline threat level = %s, want low", subject.ThreatIntelligence.ThreatLevel)
	}

	// 03:00 from an unknown location: outside both top hours and locations.
	nightAttempt := AccessAttempt{
		AttemptTime: time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC),
		Success:     true,
		Location:    "Rear Car Park",
	}
	subject.AddAccessAttempt(nightAttempt, now)

	if got := subject.ThreatIntelligence.ThreatLevel; got != ThreatLevelMedium {
		t.Errorf("unusual attempt: threat level = %s, want medium", got)
	}
}

// A subject with fewer than three distinct active hours or locations must not
// have the attempt under assessment fill out its own top-3 profile.
func TestSparseProfileFlagsUnusualAttempt(t *testing.T) {
	subject := testSubject()
	now := testClock()

	for i := 1; i <= 5; i++ {
		subject.AddAccessAttempt(AccessAttempt{
			AttemptTime: time.Date(2025, 6, 2-i, 9, 0, 0, 0, time.UTC),
			Success:     true,
			Location:    "Main Building",
		}, now)
		subject.AddAccessAttempt(AccessAttempt{
			AttemptTime: time.Date(2025, 6, 2-i, 10, 0, 0, 0, time.UTC),
			Success:     true,
			Location:    "East Wing",
		}, now)
	}

	if subject.ThreatIntelligence.ThreatLevel != ThreatLevelLow {
		t.Fatalf("baseline threat level = %s, want low", subject.ThreatIntelligence.ThreatLevel)
	}

	subject.AddAccessAttempt(AccessAttempt{
		AttemptTime: time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC),
		Success:     true,
		Location:    "Rear Car Park",
	}, now)

	if got := subject.ThreatIntelligence.ThreatLevel; got != ThreatLevelMedium {
		t.Errorf("threat level = %s, want medium", got)
	}

	// The same attempt from a profiled hour and location is not unusual.
	usual := testSubject()
	usual.AccessHistory = append([]AccessAttempt{}, subject.AccessHistory[:10]...)
	usual.AddAccessAttempt(AccessAttempt{
		AttemptTime: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
		Success:     true,
		Location:    "East Wing",
	}, now)

	if got := usual.ThreatIntelligence.ThreatLevel; got != ThreatLevelLow {
		t.Errorf("usual attempt: threat level = %s, want low", got)
	}
}

func TestCalculateSecurityScoreClamped(t *testing.T) {
	subject := testSubject()
	subject.FailedAccessAttempts = 40
	subject.ThreatIntelligence.ThreatLevel = ThreatLevelCritical

	if got := subject.CalculateSecurityScore(testClock()); got != 0 {
		t.Errorf("score = %d, want floor of 0", got)
	}

	strong := testSubject()
	strong.MFAEnabled = true
	strong.BiometricRequired = true
	strong.BiometricData = []BiometricEnrollment{
		{Type: "fingerprint", Status: BiometricStatusActive},
		{Type: "face", Status: BiometricStatusActive},
	}
	strong.IPRestrictions = []string{"10.0.0.0/8"}
	strong.SecurityClearance = ClearanceGrant{
		Level:             SecurityLevelHigh,
		BackgroundChecked: true,
	}

	if got := strong.CalculateSecurityScore(testClock()); got != 100 {
		t.Errorf("score = %d, want ceiling of 100", got)
	}
}

func TestCalculateSecurityScoreVisitorExemption(t *testing.T) {
	visitor := testSubject()
	visitor.AccessLevel = AccessLevelVisitor

	staff := testSubject()

	now := testClock()
	if visitor.CalculateSecurityScore(now) <= staff.CalculateSecurityScore(now) {
		t.Error("visitors should not be penalised for missing MFA and biometrics")
	}
}

func TestCanAccessAtTime(t *testing.T) {
	subject := testSubject()
	now := testClock()

	// No schedule windows: access is denied at the model level.
	if subject.CanAccessAtTime(now) {
		t.Error("subject without windows should have no scheduled access")
	}

	subject.AccessSchedule = []ScheduleWindow{
		{
			DaysOfWeek:    []int{1, 2, 3, 4, 5},
			StartTime:     "07:00",
			EndTime:       "19:00",
			EffectiveFrom: now.AddDate(0, -1, 0),
		},
	}

	if !subject.CanAccessAtTime(now) {
		t.Error("Monday 10:00 should be within the window")
	}

	evening := time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC)
	if subject.CanAccessAtTime(evening) {
		t.Error("21:00 should be outside the window")
	}

	sunday := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if subject.CanAccessAtTime(sunday) {
		t.Error("Sunday should be outside the window")
	}

	subject.Active = false
	if subject.CanAccessAtTime(now) {
		t.Error("inactive subject never has access")
	}
}

func TestScheduleWindowExpiry(t *testing.T) {
	now := testClock()
	window := ScheduleWindow{
		StartTime:     "00:00",
		EndTime:       "23:59",
		EffectiveFrom: now.AddDate(0, -1, 0),
		ExpiresAt:     timePtr(now.AddDate(0, 0, -1)),
	}

	if window.Covers(now) {
		t.Error("expired window should not cover the current time")
	}
}

func TestClearanceGrantValidity(t *testing.T) {
	now := testClock()

	grant := ClearanceGrant{Level: SecurityLevelHigh, BackgroundChecked: true}
	if !grant.IsValid(now) {
		t.Error("checked grant without expiry should be valid")
	}

	grant.BackgroundChecked = false
	if grant.IsValid(now) {
		t.Error("grant without background check should be invalid")
	}

	grant.BackgroundChecked = true
	grant.ExpiresAt = timePtr(now.Add(-time.Hour))
	if grant.IsValid(now) {
		t.Error("expired grant should be invalid")
	}

	empty := ClearanceGrant{BackgroundChecked: true}
	if empty.IsValid(now) {
		t.Error("grant without a level should be invalid")
	}
}

func TestUnlockAccount(t *testing.T) {
	subject := testSubject()
	now := testClock()

	subject.FailedAccessAttempts = 5
	subject.LockAccount(30, now)

	subject.UnlockAccount()

	if subject.IsAccountLocked(now) {
		t.Error("unlocked account reported as locked")
	}
	if subject.FailedAccessAttempts != 0 {
		t.Error("unlock should reset the failure counter")
	}
}

func TestActivePermissions(t *testing.T) {
	now := testClock()
	subject := testSubject()
	subject.Permissions = []SubjectPermission{
		{Resource: "records", Action: "read"},
		{Resource: "medication_room", Action: "enter", ExpiresAt: timePtr(now.Add(-time.Hour))},
	}

	active := subject.ActivePermissions(now)
	if len(active) != 1 || active[0].Resource != "records" {
		t.Errorf("unexpected active permissions: %v", active)
	}
}
