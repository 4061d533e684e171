package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/websocket"
)

type DeviceHandler struct {
	db          *gorm.DB
	wsHandler   *websocket.WebSocketHandler
	wsEnabled   bool
	staleWindow time.Duration
}

func NewDeviceHandler(db *gorm.DB, wsHandler *websocket.WebSocketHandler, wsEnabled bool, staleWindow time.Duration) *DeviceHandler {
	return &DeviceHandler{
		db:          db,
		wsHandler:   wsHandler,
		wsEnabled:   wsEnabled,
		staleWindow: staleWindow,
	}
}

func (h *DeviceHandler) GetDevices(c *gin.Context) {
	var devices []models.Device

	query := h.db
	if deviceType := c.Query("type"); deviceType != "" {
		query = query.Where("type = ?", deviceType)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("location = ?", location)
	}

	if err := query.Find(&devices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch devices"})
		return
	}

	c.JSON(http.StatusOK, devices)
}

func (h *DeviceHandler) GetDevice(c *gin.Context) {
	id := c.Param("id")

	var device models.Device
	if err := h.db.First(&device, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
		return
	}

	c.JSON(http.StatusOK, device)
}

func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	var input struct {
		DeviceUID       string                `json:"device_uid" binding:"required"`
		Name            string                `json:"name" binding:"required"`
		Type            models.DeviceType     `json:"type" binding:"required"`
		Protocol        models.DeviceProtocol `json:"protocol" binding:"required"`
		Location        string                `json:"location"`
		SecurityLevel   models.SecurityLevel  `json:"security_level"`
		FirmwareVersion string                `json:"firmware_version"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	securityLevel := input.SecurityLevel
	if securityLevel == "" {
		securityLevel = models.SecurityLevelStandard
	}
	if securityLevel.Rank() == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid security level"})
		return
	}

	device := models.Device{
		DeviceUID:       input.DeviceUID,
		Name:            input.Name,
		Type:            input.Type,
		Protocol:        input.Protocol,
		Status:          models.DeviceStatusOffline,
		Location:        input.Location,
		SecurityLevel:   securityLevel,
		FirmwareVersion: input.FirmwareVersion,
	}

	if err := h.db.Create(&device).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register device. UID may already exist."})
		return
	}

	c.JSON(http.StatusCreated, device)
}

func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	id := c.Param("id")

	var device models.Device
	if err := h.db.First(&device, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
		return
	}

	var input struct {
		Name            *string               `json:"name"`
		Location        *string               `json:"location"`
		Status          *models.DeviceStatus  `json:"status"`
		SecurityLevel   *models.SecurityLevel `json:"security_level"`
		FirmwareVersion *string               `json:"firmware_version"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name != nil {
		device.Name = *input.Name
	}
	if input.Location != nil {
		device.Location = *input.Location
	}
	if input.Status != nil {
		device.Status = *input.Status
	}
	if input.SecurityLevel != nil {
		if input.SecurityLevel.Rank() == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid security level"})
			return
		}
		device.SecurityLevel = *input.SecurityLevel
	}
	if input.FirmwareVersion != nil {
		device.FirmwareVersion = *input.FirmwareVersion
	}

	if err := h.db.Save(&device).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update device"})
		return
	}

	c.JSON(http.StatusOK, device)
}

// Heartbeat is called by the device bridge, authenticated with an API key
// rather than a staff token.
func (h *DeviceHandler) Heartbeat(c *gin.Context) {
	var input struct {
		DeviceUID      string               `json:"device_uid" binding:"required"`
		BatteryPercent *int                 `json:"battery_percent"`
		Status         *models.DeviceStatus `json:"status"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var device models.Device
	if err := h.db.Where("device_uid = ?", input.DeviceUID).First(&device).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
		return
	}

	wasOffline := device.Status == models.DeviceStatusOffline

	device.MarkSeen(time.Now())
	if input.BatteryPercent != nil {
		device.BatteryPercent = input.BatteryPercent
	}
	if input.Status != nil {
		device.Status = *input.Status
	}

	if err := h.db.Save(&device).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record heartbeat"})
		return
	}

	if h.wsEnabled && (wasOffline || device.LowBattery()) {
		h.wsHandler.NotifyDeviceEvent(device)
	}

	c.JSON(http.StatusOK, gin.H{
		"device_uid": device.DeviceUID,
		"status":     device.Status,
	})
}

func (h *DeviceHandler) GetStaleDevices(c *gin.Context) {
	var devices []models.Device
	if err := h.db.Where("status != ?", models.DeviceStatusDecommissioned).Find(&devices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch devices"})
		return
	}

	now := time.Now()
	stale := []models.Device{}
	for _, device := range devices {
		if device.IsStale(now, h.staleWindow) {
			stale = append(stale, device)
		}
	}

	c.JSON(http.StatusOK, stale)
}

func (h *DeviceHandler) DecommissionDevice(c *gin.Context) {
	id := c.Param("id")

	var device models.Device
	if err := h.db.First(&device, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
		return
	}

	device.Status = models.DeviceStatusDecommissioned

	if err := h.db.Save(&device).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decommission device"})
		return
	}

	if h.wsEnabled {
		h.wsHandler.GetHub().BroadcastSystemEvent(
			fmt.Sprintf("Device %s decommissioned", device.DeviceUID),
			"info", "devices", true)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device decommissioned", "device": device})
}
