package models

import (
	"time"

	"gorm.io/gorm"
)

type DeviceProtocol string

const (
	DeviceProtocolWiFi      DeviceProtocol = "wifi"
	DeviceProtocolBluetooth DeviceProtocol = "bluetooth"
	DeviceProtocolZigbee    DeviceProtocol = "zigbee"
	DeviceProtocolZWave     DeviceProtocol = "zwave"
	DeviceProtocolCellular  DeviceProtocol = "cellular"
)

type DeviceStatus string

const (
	DeviceStatusOnline         DeviceStatus = "online"
	DeviceStatusOffline        DeviceStatus = "offline"
	DeviceStatusDegraded       DeviceStatus = "degraded"
	DeviceStatusDecommissioned DeviceStatus = "decommissioned"
)

type DeviceType string

const (
	DeviceTypeDoorController DeviceType = "door_controller"
	DeviceTypeWearable       DeviceType = "wearable"
	DeviceTypeSensor         DeviceType = "sensor"
	DeviceTypeGateway        DeviceType = "gateway"
	DeviceTypeCallPoint      DeviceType = "call_point"
)

type Device struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrganisationID uint `gorm:"index" json:"organisation_id"`

	DeviceUID string         `gorm:"uniqueIndex;not null" json:"device_uid"`
	Name      string         `gorm:"not null" json:"name"`
	Type      DeviceType     `gorm:"not null" json:"type"`
	Protocol  DeviceProtocol `gorm:"not null" json:"protocol"`
	Status    DeviceStatus   `gorm:"not null;default:'offline'" json:"status"`
	Location  string         `json:"location"`

	SecurityLevel   SecurityLevel `gorm:"not null;default:'standard'" json:"security_level"`
	FirmwareVersion string        `json:"firmware_version"`
	BatteryPercent  *int          `json:"battery_percent"`
	LastSeenAt      *time.Time    `json:"last_seen_at"`
}

func (d *Device) IsOnline() bool {
	return d.Status == DeviceStatusOnline
}

// IsStale reports whether the device has not been heard from within the
// window. Devices that never reported are always stale.
func (d *Device) IsStale(t time.Time, window time.Duration) bool {
	if d.LastSeenAt == nil {
		return true
	}
	return t.Sub(*d.LastSeenAt) > window
}

func (d *Device) MarkSeen(t time.Time) {
	seenAt := t
	d.LastSeenAt = &seenAt
	if d.Status == DeviceStatusOffline {
		d.Status = DeviceStatusOnline
	}
}

func (d *Device) LowBattery() bool {
	return d.BatteryPercent != nil && *d.BatteryPercent <= 15
}
