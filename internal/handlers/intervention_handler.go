package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
)

type InterventionHandler struct {
	db *gorm.DB
}

func NewInterventionHandler(db *gorm.DB) *InterventionHandler {
	return &InterventionHandler{db: db}
}

func (h *InterventionHandler) GetInterventions(c *gin.Context) {
	var interventions []models.CareIntervention

	query := h.db
	if planID := c.Query("care_plan_id"); planID != "" {
		query = query.Where("care_plan_id = ?", planID)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if c.Query("pending") == "true" {
		query = query.Where("completed_at IS NULL")
	}

	if err := query.Order("scheduled_at ASC").Find(&interventions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch interventions"})
		return
	}

	c.JSON(http.StatusOK, interventions)
}

func (h *InterventionHandler) CreateIntervention(c *gin.Context) {
	var input struct {
		CarePlanID  uint                        `json:"care_plan_id" binding:"required"`
		Name        string                      `json:"name" binding:"required"`
		Category    models.InterventionCategory `json:"category"`
		Notes       string                      `json:"notes"`
		ScheduledAt time.Time                   `json:"scheduled_at" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var plan models.CarePlan
	if err := h.db.First(&plan, input.CarePlanID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Care plan not found"})
		return
	}

	category := input.Category
	if category == "" {
		category = models.InterventionCategoryClinical
	}

	intervention := models.CareIntervention{
		CarePlanID:  input.CarePlanID,
		Name:        input.Name,
		Category:    category,
		Notes:       input.Notes,
		ScheduledAt: input.ScheduledAt,
	}

	if err := h.db.Create(&intervention).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create intervention"})
		return
	}

	c.JSON(http.StatusCreated, intervention)
}

func (h *InterventionHandler) CompleteIntervention(c *gin.Context) {
	id := c.Param("id")

	var intervention models.CareIntervention
	if err := h.db.First(&intervention, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Intervention not found"})
		return
	}

	if intervention.IsCompleted() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Intervention is already completed"})
		return
	}

	var input struct {
		Outcome string `json:"outcome"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	staffID, exists := c.Get("staffID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
		return
	}

	intervention.Complete(staffID.(uint), input.Outcome, time.Now())

	if err := h.db.Save(&intervention).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete intervention"})
		return
	}

	c.JSON(http.StatusOK, intervention)
}

func (h *InterventionHandler) GetOverdueInterventions(c *gin.Context) {
	var interventions []models.CareIntervention
	if err := h.db.Where("completed_at IS NULL AND scheduled_at < ?", time.Now()).Order("scheduled_at ASC").Find(&interventions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch interventions"})
		return
	}

	c.JSON(http.StatusOK, interventions)
}

func (h *InterventionHandler) DeleteIntervention(c *gin.Context) {
	id := c.Param("id")

	if err := h.db.Delete(&models.CareIntervention{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete intervention"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Intervention deleted"})
}
