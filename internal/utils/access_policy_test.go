package utils

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// cache=shared keeps the in-memory database visible across the pooled
	// connections.
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	if err := db.AutoMigrate(&models.SecurityPolicy{}, &models.AccessControlUser{}, &models.AccessEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func TestEvaluateAccessCachedDecisionStillAudited(t *testing.T) {
	db := openTestDB(t)
	service := NewAccessPolicyService(db)

	policy := models.SecurityPolicy{
		Name:          "Front Door Access",
		Active:        true,
		EffectiveFrom: time.Now().Add(-time.Hour),
		Actions:       models.PolicyActions{Allow: true},
	}
	if err := db.Create(&policy).Error; err != nil {
		t.Fatalf("create policy: %v", err)
	}

	ctx := models.EvalContext{UserID: "STAFF-0001", Resource: "front_door"}

	first, err := service.EvaluateAccess(policy.ID, ctx)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if !first.Allowed {
		t.Fatalf("first check denied: %s", first.Reason)
	}

	// Cache writes are applied asynchronously.
	service.decisions.Wait()

	second, err := service.EvaluateAccess(policy.ID, ctx)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if second.Allowed != first.Allowed || second.Reason != first.Reason {
		t.Errorf("cached decision differs: %+v vs %+v", second, first)
	}

	var events int64
	if err := db.Model(&models.AccessEvent{}).Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 2 {
		t.Errorf("access events = %d, want one per check", events)
	}

	var stored models.SecurityPolicy
	if err := db.First(&stored, policy.ID).Error; err != nil {
		t.Fatalf("reload policy: %v", err)
	}
	if stored.Metrics.TotalEvaluations != 1 {
		t.Errorf("TotalEvaluations = %d, want 1 with the second check served from cache", stored.Metrics.TotalEvaluations)
	}
	if !stored.UpdatedAt.Equal(policy.UpdatedAt) {
		t.Errorf("metrics persistence changed UpdatedAt, invalidating the decision key")
	}
}
