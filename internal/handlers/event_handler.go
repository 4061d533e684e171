package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/utils"
)

type EventHandler struct {
	db         *gorm.DB
	statistics *utils.StatisticsService
}

func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{
		db:         db,
		statistics: utils.NewStatisticsService(db),
	}
}

func (h *EventHandler) GetEvents(c *gin.Context) {
	var events []models.AccessEvent

	query := h.db.Preload("Policy")
	if subjectRef := c.Query("subject_ref"); subjectRef != "" {
		query = query.Where("subject_ref = ?", subjectRef)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if decision := c.Query("decision"); decision != "" {
		query = query.Where("decision = ?", decision)
	}
	if policyID := c.Query("policy_id"); policyID != "" {
		query = query.Where("policy_id = ?", policyID)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("timestamp >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("timestamp <= ?", to)
	}

	limit := 100
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	if err := query.Order("timestamp DESC").Limit(limit).Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	id := c.Param("id")

	var event models.AccessEvent
	if err := h.db.Preload("Policy").First(&event, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) GetEventByCorrelation(c *gin.Context) {
	correlationID := c.Param("correlation_id")

	var events []models.AccessEvent
	if err := h.db.Where("correlation_id = ?", correlationID).Find(&events).Error; err != nil || len(events) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No events for correlation ID"})
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) statsRange(c *gin.Context) (time.Time, time.Time) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if from := c.Query("from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			start = parsed
		}
	}
	if to := c.Query("to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			end = parsed
		}
	}

	return start, end
}

func (h *EventHandler) GetResourceStats(c *gin.Context) {
	start, end := h.statsRange(c)

	stats, err := h.statistics.GetResourceUsageStats(c.Query("resource"), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute resource statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *EventHandler) GetSubjectStats(c *gin.Context) {
	start, end := h.statsRange(c)

	stats, err := h.statistics.GetSubjectUsageStats(c.Query("subject_ref"), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute subject statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *EventHandler) GetDecisionTimeSeries(c *gin.Context) {
	start, end := h.statsRange(c)

	interval := c.DefaultQuery("interval", "hour")
	data, err := h.statistics.GetDecisionTimeSeriesData(c.Query("resource"), interval, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute time series"})
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *EventHandler) GetMostDeniedResources(c *gin.Context) {
	start, end := h.statsRange(c)

	limit := 10
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	stats, err := h.statistics.GetMostDeniedResources(limit, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute denied resources"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *EventHandler) GetMostActiveSubjects(c *gin.Context) {
	start, end := h.statsRange(c)

	limit := 10
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	stats, err := h.statistics.GetMostActiveSubjects(limit, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute active subjects"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
