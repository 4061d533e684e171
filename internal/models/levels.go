package models

type SecurityLevel string

const (
	SecurityLevelLow      SecurityLevel = "low"
	SecurityLevelMedium   SecurityLevel = "medium"
	SecurityLevelStandard SecurityLevel = "standard"
	SecurityLevelHigh     SecurityLevel = "high"
	SecurityLevelCritical SecurityLevel = "critical"
)

// securityLevelRanks defines the total ordering used for device security
// and clearance comparisons. Unknown values rank below "low".
var securityLevelRanks = map[SecurityLevel]int{
	SecurityLevelLow:      1,
	SecurityLevelMedium:   2,
	SecurityLevelStandard: 3,
	SecurityLevelHigh:     4,
	SecurityLevelCritical: 5,
}

func (l SecurityLevel) Rank() int {
	return securityLevelRanks[l]
}

func (l SecurityLevel) Meets(required SecurityLevel) bool {
	return l.Rank() >= required.Rank()
}

type AccessLevel string

const (
	AccessLevelVisitor     AccessLevel = "visitor"
	AccessLevelLow         AccessLevel = "low"
	AccessLevelStandard    AccessLevel = "standard"
	AccessLevelElevated    AccessLevel = "elevated"
	AccessLevelAdmin       AccessLevel = "admin"
	AccessLevelSystemAdmin AccessLevel = "system_admin"
)

type ThreatLevel string

const (
	ThreatLevelLow      ThreatLevel = "low"
	ThreatLevelMedium   ThreatLevel = "medium"
	ThreatLevelHigh     ThreatLevel = "high"
	ThreatLevelCritical ThreatLevel = "critical"
)

// Escalate raises the threat level one step for unusual activity:
// low becomes medium, everything else becomes high.
func (t ThreatLevel) Escalate() ThreatLevel {
	if t == ThreatLevelLow {
		return ThreatLevelMedium
	}
	return ThreatLevelHigh
}
