package websocket

import "time"

type SecurityAlertEvent struct {
	SubjectRef string   `json:"subjectRef"`
	PolicyName string   `json:"policyName"`
	Resource   string   `json:"resource,omitempty"`
	Decision   string   `json:"decision"`
	Reason     string   `json:"reason,omitempty"`
	Actions    []string `json:"actions,omitempty"`
	Timestamp  string   `json:"timestamp"`
}

type LockoutEvent struct {
	SubjectRef  string `json:"subjectRef"`
	DisplayName string `json:"displayName,omitempty"`
	LockedUntil string `json:"lockedUntil"`
	ThreatLevel string `json:"threatLevel,omitempty"`
}

type DeviceEvent struct {
	DeviceUID string `json:"deviceUid"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status"`
	Battery   *int   `json:"battery,omitempty"`
	Location  string `json:"location,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (h *Hub) BroadcastSecurityAlert(event SecurityAlertEvent) {
	h.BroadcastToAdmins("security_alert", event)
}

func (h *Hub) BroadcastLockout(event LockoutEvent) {
	h.BroadcastToAdmins("account_lockout", event)
}

func (h *Hub) BroadcastDeviceEvent(event DeviceEvent) {
	h.BroadcastToAdmins("device_event", event)
}

func (h *Hub) BroadcastSystemEvent(message, severity, source string, adminOnly bool) {
	event := map[string]interface{}{
		"message":   message,
		"severity":  severity,
		"source":    source,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	if adminOnly {
		h.BroadcastToAdmins("system_event", event)
	} else {
		h.BroadcastToAll("system_event", event)
	}
}
