package models

import (
	"testing"
	"time"
)

func TestCarePlanReviewCycle(t *testing.T) {
	now := testClock()

	plan := CarePlan{
		Status:          CarePlanStatusActive,
		ReviewCycleDays: 90,
	}

	// No next review scheduled: an active plan is due immediately.
	if !plan.IsDueForReview(now) {
		t.Error("active plan without a scheduled review should be due")
	}

	plan.MarkReviewed(now)

	if plan.LastReviewedAt == nil || !plan.LastReviewedAt.Equal(now) {
		t.Error("LastReviewedAt not recorded")
	}
	if plan.NextReviewAt == nil || !plan.NextReviewAt.Equal(now.AddDate(0, 0, 90)) {
		t.Error("NextReviewAt not scheduled one cycle ahead")
	}

	if plan.IsDueForReview(now.AddDate(0, 0, 89)) {
		t.Error("plan should not be due before the cycle ends")
	}
	if !plan.IsDueForReview(now.AddDate(0, 0, 90)) {
		t.Error("plan should be due when the cycle ends")
	}

	if plan.IsOverdue(now.AddDate(0, 0, 95)) {
		t.Error("plan is not overdue within the grace week")
	}
	if !plan.IsOverdue(now.AddDate(0, 0, 98)) {
		t.Error("plan should be overdue a week past the review date")
	}
}

func TestCareInterventionComplete(t *testing.T) {
	now := testClock()

	intervention := CareIntervention{
		Name:        "Evening medication round",
		Category:    InterventionCategoryMedication,
		ScheduledAt: now.Add(-time.Hour),
	}

	if intervention.IsCompleted() {
		t.Fatal("new intervention reported completed")
	}
	if !intervention.IsOverdue(now) {
		t.Error("past schedule without completion should be overdue")
	}

	intervention.Complete(7, "Administered as prescribed", now)

	if !intervention.IsCompleted() {
		t.Error("Complete did not mark the intervention")
	}
	if intervention.CompletedBy == nil || *intervention.CompletedBy != 7 {
		t.Error("CompletedBy not recorded")
	}
	if intervention.IsOverdue(now.Add(time.Hour)) {
		t.Error("completed intervention cannot be overdue")
	}
}

func TestStaffMemberEmployment(t *testing.T) {
	now := testClock()

	staff := StaffMember{EmploymentStart: now.AddDate(-1, 0, 0)}

	if !staff.IsEmployed(now) {
		t.Error("staff within employment period should be employed")
	}
	if staff.IsEmployed(now.AddDate(-2, 0, 0)) {
		t.Error("staff before the start date should not be employed")
	}

	end := now.AddDate(0, 0, -1)
	staff.EmploymentEnd = &end
	if staff.IsEmployed(now) {
		t.Error("staff past the end date should not be employed")
	}
}

func TestDeviceStaleness(t *testing.T) {
	now := testClock()

	device := Device{Status: DeviceStatusOffline}

	if !device.IsStale(now, 15*time.Minute) {
		t.Error("device that never reported should be stale")
	}

	device.MarkSeen(now.Add(-10 * time.Minute))
	if device.IsStale(now, 15*time.Minute) {
		t.Error("device seen within the window should not be stale")
	}
	if device.Status != DeviceStatusOnline {
		t.Error("MarkSeen should bring an offline device online")
	}

	if !device.IsStale(now.Add(20*time.Minute), 15*time.Minute) {
		t.Error("device should go stale after the window passes")
	}
}

func TestDBSCheckValidity(t *testing.T) {
	now := testClock()

	check := DBSCheck{Status: CheckStatusClear}
	if !check.IsValid(now) {
		t.Error("clear check without expiry should be valid")
	}

	expiry := now.AddDate(0, 0, 30)
	check.ExpiresAt = &expiry
	if !check.ExpiresWithin(now, 60) {
		t.Error("check expiring in 30 days should be within a 60 day horizon")
	}
	if check.ExpiresWithin(now, 14) {
		t.Error("check expiring in 30 days is outside a 14 day horizon")
	}

	check.Status = CheckStatusFlagged
	if check.IsValid(now) {
		t.Error("flagged check should not be valid")
	}
}
