package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
)

const seedYAML = `policies:
  - name: Medication Room Access
    description: Clinical staff only
    category: clinical
    enforcement: critical
    conditions:
      roles:
        allowed_roles: [nurse, manager]
      time:
        start_time: "06:00"
        end_time: "22:00"
        days_of_week: [1, 2, 3, 4, 5]
      device:
        required_security_level: high
        mfa_required: true
    actions:
      allow: true
      log_event: true
  - name: Night Lockdown
    category: physical
    active: false
    conditions:
      risk:
        max_risk_score: 40.5
    actions:
      deny: true
      send_alert: true
      custom_actions: [notifyOnCall]
`

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing seed file: %v", err)
	}
	return path
}

func TestLoadPolicySeeds(t *testing.T) {
	seeds, err := LoadPolicySeeds(writeSeedFile(t, seedYAML))
	if err != nil {
		t.Fatalf("LoadPolicySeeds: %v", err)
	}

	if len(seeds) != 2 {
		t.Fatalf("got %d seeds, want 2", len(seeds))
	}

	first := seeds[0]
	if first.Name != "Medication Room Access" {
		t.Errorf("name = %q", first.Name)
	}
	if first.Conditions.Roles == nil || len(first.Conditions.Roles.AllowedRoles) != 2 {
		t.Error("role conditions not parsed")
	}
	if first.Conditions.Time == nil || first.Conditions.Time.StartTime != "06:00" {
		t.Error("time conditions not parsed")
	}
	if first.Conditions.Device == nil || !first.Conditions.Device.MFARequired {
		t.Error("device conditions not parsed")
	}

	second := seeds[1]
	if second.Active == nil || *second.Active {
		t.Error("explicit active: false not parsed")
	}
	if second.Conditions.Risk == nil || second.Conditions.Risk.MaxRiskScore == nil || *second.Conditions.Risk.MaxRiskScore != 40.5 {
		t.Error("risk conditions not parsed")
	}
}

func TestLoadPolicySeedsRejectsUnnamed(t *testing.T) {
	content := `policies:
  - category: clinical
    actions:
      allow: true
`
	if _, err := LoadPolicySeeds(writeSeedFile(t, content)); err == nil {
		t.Fatal("seed without a name should be rejected")
	}
}

func TestLoadPolicySeedsMissingFile(t *testing.T) {
	if _, err := LoadPolicySeeds(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file should return an error")
	}
}

func TestSeedToPolicy(t *testing.T) {
	seeds, err := LoadPolicySeeds(writeSeedFile(t, seedYAML))
	if err != nil {
		t.Fatalf("LoadPolicySeeds: %v", err)
	}

	policy := seeds[0].toPolicy()

	if policy.Enforcement != models.EnforcementCritical {
		t.Errorf("enforcement = %s", policy.Enforcement)
	}
	if !policy.Active {
		t.Error("seed without active flag should default to active")
	}
	if policy.Conditions.Device == nil || policy.Conditions.Device.RequiredSecurityLevel != models.SecurityLevelHigh {
		t.Error("device security level not mapped")
	}
	if !policy.Actions.Allow || !policy.Actions.LogEvent {
		t.Error("actions not mapped")
	}

	lockdown := seeds[1].toPolicy()
	if lockdown.Active {
		t.Error("explicitly inactive seed should map inactive")
	}
	if !lockdown.Actions.Deny || !lockdown.Actions.SendAlert {
		t.Error("deny actions not mapped")
	}
	if len(lockdown.Actions.CustomActions) != 1 || lockdown.Actions.CustomActions[0] != "notifyOnCall" {
		t.Errorf("custom actions = %v", lockdown.Actions.CustomActions)
	}
	if lockdown.Enforcement != models.EnforcementMandatory {
		t.Errorf("missing enforcement should default to mandatory, got %s", lockdown.Enforcement)
	}
}
