package utils

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
)

// PolicySeed is the YAML shape for bootstrapping security policies. Seeds are
// applied once per policy name; existing policies are never overwritten.
type PolicySeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Enforcement string `yaml:"enforcement"`
	Active      *bool  `yaml:"active"`

	Conditions struct {
		Roles *struct {
			AllowedRoles  []string `yaml:"allowed_roles"`
			AllowedGroups []string `yaml:"allowed_groups"`
		} `yaml:"roles"`
		Time *struct {
			StartTime  string `yaml:"start_time"`
			EndTime    string `yaml:"end_time"`
			DaysOfWeek []int  `yaml:"days_of_week"`
			Timezone   string `yaml:"timezone"`
		} `yaml:"time"`
		Location *struct {
			AllowedIPs       []string `yaml:"allowed_ips"`
			BlockedIPs       []string `yaml:"blocked_ips"`
			AllowedCountries []string `yaml:"allowed_countries"`
			BlockedCountries []string `yaml:"blocked_countries"`
		} `yaml:"location"`
		Device *struct {
			AllowedDeviceTypes    []string `yaml:"allowed_device_types"`
			RequiredSecurityLevel string   `yaml:"required_security_level"`
			BiometricRequired     bool     `yaml:"biometric_required"`
			MFARequired           bool     `yaml:"mfa_required"`
		} `yaml:"device"`
		Resource *struct {
			AllowedResources []string `yaml:"allowed_resources"`
			BlockedResources []string `yaml:"blocked_resources"`
			ResourceTypes    []string `yaml:"resource_types"`
		} `yaml:"resource"`
		Risk *struct {
			MaxRiskScore               *float64 `yaml:"max_risk_score"`
			RequiredClearance          string   `yaml:"required_clearance"`
			MaxSuspiciousActivityScore *float64 `yaml:"max_suspicious_activity_score"`
		} `yaml:"risk"`
	} `yaml:"conditions"`

	Actions struct {
		Allow            bool     `yaml:"allow"`
		Deny             bool     `yaml:"deny"`
		RequireMFA       bool     `yaml:"require_mfa"`
		RequireBiometric bool     `yaml:"require_biometric"`
		RequireApproval  bool     `yaml:"require_approval"`
		LogEvent         bool     `yaml:"log_event"`
		SendAlert        bool     `yaml:"send_alert"`
		BlockUser        bool     `yaml:"block_user"`
		QuarantineDevice bool     `yaml:"quarantine_device"`
		EscalateToAdmin  bool     `yaml:"escalate_to_admin"`
		CustomActions    []string `yaml:"custom_actions"`
	} `yaml:"actions"`
}

type policySeedFile struct {
	Policies []PolicySeed `yaml:"policies"`
}

func LoadPolicySeeds(path string) ([]PolicySeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file policySeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse policy seed file: %w", err)
	}

	for _, seed := range file.Policies {
		if seed.Name == "" {
			return nil, fmt.Errorf("policy seed without a name in %s", path)
		}
	}

	return file.Policies, nil
}

// ApplyPolicySeeds creates every seeded policy that does not yet exist.
// It returns the number of policies created.
func ApplyPolicySeeds(db *gorm.DB, seeds []PolicySeed) (int, error) {
	created := 0

	for _, seed := range seeds {
		var count int64
		if err := db.Model(&models.SecurityPolicy{}).Where("name = ?", seed.Name).Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}

		policy := seed.toPolicy()
		if err := db.Create(&policy).Error; err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}

func (s PolicySeed) toPolicy() models.SecurityPolicy {
	active := true
	if s.Active != nil {
		active = *s.Active
	}

	enforcement := models.EnforcementMandatory
	if s.Enforcement != "" {
		enforcement = models.PolicyEnforcement(s.Enforcement)
	}

	policy := models.SecurityPolicy{
		Name:          s.Name,
		Description:   s.Description,
		Category:      s.Category,
		Enforcement:   enforcement,
		Active:        active,
		EffectiveFrom: time.Now(),
		Actions: models.PolicyActions{
			Allow:            s.Actions.Allow,
			Deny:             s.Actions.Deny,
			RequireMFA:       s.Actions.RequireMFA,
			RequireBiometric: s.Actions.RequireBiometric,
			RequireApproval:  s.Actions.RequireApproval,
			LogEvent:         s.Actions.LogEvent,
			SendAlert:        s.Actions.SendAlert,
			BlockUser:        s.Actions.BlockUser,
			QuarantineDevice: s.Actions.QuarantineDevice,
			EscalateToAdmin:  s.Actions.EscalateToAdmin,
			CustomActions:    s.Actions.CustomActions,
		},
	}

	if c := s.Conditions.Roles; c != nil {
		policy.Conditions.Roles = &models.RoleConditions{
			AllowedRoles:  c.AllowedRoles,
			AllowedGroups: c.AllowedGroups,
		}
	}

	if c := s.Conditions.Time; c != nil {
		policy.Conditions.Time = &models.TimeConditions{
			StartTime:  c.StartTime,
			EndTime:    c.EndTime,
			DaysOfWeek: c.DaysOfWeek,
			Timezone:   c.Timezone,
		}
	}

	if c := s.Conditions.Location; c != nil {
		policy.Conditions.Location = &models.LocationConditions{
			AllowedIPs:       c.AllowedIPs,
			BlockedIPs:       c.BlockedIPs,
			AllowedCountries: c.AllowedCountries,
			BlockedCountries: c.BlockedCountries,
		}
	}

	if c := s.Conditions.Device; c != nil {
		policy.Conditions.Device = &models.DeviceConditions{
			AllowedDeviceTypes:    c.AllowedDeviceTypes,
			RequiredSecurityLevel: models.SecurityLevel(c.RequiredSecurityLevel),
			BiometricRequired:     c.BiometricRequired,
			MFARequired:           c.MFARequired,
		}
	}

	if c := s.Conditions.Resource; c != nil {
		policy.Conditions.Resource = &models.ResourceConditions{
			AllowedResources: c.AllowedResources,
			BlockedResources: c.BlockedResources,
			ResourceTypes:    c.ResourceTypes,
		}
	}

	if c := s.Conditions.Risk; c != nil {
		policy.Conditions.Risk = &models.RiskConditions{
			MaxRiskScore:               c.MaxRiskScore,
			RequiredClearance:          models.SecurityLevel(c.RequiredClearance),
			MaxSuspiciousActivityScore: c.MaxSuspiciousActivityScore,
		}
	}

	return policy
}
