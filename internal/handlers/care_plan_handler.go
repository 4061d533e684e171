package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
)

type CarePlanHandler struct {
	db *gorm.DB
}

func NewCarePlanHandler(db *gorm.DB) *CarePlanHandler {
	return &CarePlanHandler{db: db}
}

func (h *CarePlanHandler) GetCarePlans(c *gin.Context) {
	var plans []models.CarePlan

	query := h.db.Preload("KeyWorker")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if keyWorker := c.Query("key_worker_id"); keyWorker != "" {
		query = query.Where("key_worker_id = ?", keyWorker)
	}

	if err := query.Find(&plans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch care plans"})
		return
	}

	c.JSON(http.StatusOK, plans)
}

func (h *CarePlanHandler) GetCarePlan(c *gin.Context) {
	id := c.Param("id")

	var plan models.CarePlan
	if err := h.db.Preload("KeyWorker").Preload("Interventions").First(&plan, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Care plan not found"})
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *CarePlanHandler) CreateCarePlan(c *gin.Context) {
	var input struct {
		ResidentName    string `json:"resident_name" binding:"required"`
		ResidentRef     string `json:"resident_ref" binding:"required"`
		Title           string `json:"title" binding:"required"`
		Summary         string `json:"summary"`
		Goals           string `json:"goals"`
		KeyWorkerID     uint   `json:"key_worker_id" binding:"required"`
		ReviewCycleDays int    `json:"review_cycle_days"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var keyWorker models.StaffMember
	if err := h.db.First(&keyWorker, input.KeyWorkerID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Key worker not found"})
		return
	}

	cycle := input.ReviewCycleDays
	if cycle <= 0 {
		cycle = 90
	}

	nextReview := time.Now().AddDate(0, 0, cycle)
	plan := models.CarePlan{
		ResidentName:    input.ResidentName,
		ResidentRef:     input.ResidentRef,
		Title:           input.Title,
		Summary:         input.Summary,
		Goals:           input.Goals,
		Status:          models.CarePlanStatusDraft,
		KeyWorkerID:     input.KeyWorkerID,
		ReviewCycleDays: cycle,
		NextReviewAt:    &nextReview,
	}

	if err := h.db.Create(&plan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create care plan"})
		return
	}

	c.JSON(http.StatusCreated, plan)
}

func (h *CarePlanHandler) UpdateCarePlan(c *gin.Context) {
	id := c.Param("id")

	var plan models.CarePlan
	if err := h.db.First(&plan, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Care plan not found"})
		return
	}

	var input struct {
		Title           *string                `json:"title"`
		Summary         *string                `json:"summary"`
		Goals           *string                `json:"goals"`
		Status          *models.CarePlanStatus `json:"status"`
		KeyWorkerID     *uint                  `json:"key_worker_id"`
		ReviewCycleDays *int                   `json:"review_cycle_days"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Title != nil {
		plan.Title = *input.Title
	}
	if input.Summary != nil {
		plan.Summary = *input.Summary
	}
	if input.Goals != nil {
		plan.Goals = *input.Goals
	}
	if input.Status != nil {
		plan.Status = *input.Status
	}
	if input.KeyWorkerID != nil {
		var keyWorker models.StaffMember
		if err := h.db.First(&keyWorker, *input.KeyWorkerID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Key worker not found"})
			return
		}
		plan.KeyWorkerID = *input.KeyWorkerID
	}
	if input.ReviewCycleDays != nil && *input.ReviewCycleDays > 0 {
		plan.ReviewCycleDays = *input.ReviewCycleDays
	}

	if err := h.db.Save(&plan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update care plan"})
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *CarePlanHandler) ReviewCarePlan(c *gin.Context) {
	id := c.Param("id")

	var plan models.CarePlan
	if err := h.db.First(&plan, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Care plan not found"})
		return
	}

	plan.MarkReviewed(time.Now())

	if err := h.db.Save(&plan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Review recorded",
		"next_review_at": plan.NextReviewAt,
	})
}

func (h *CarePlanHandler) GetPlansDueForReview(c *gin.Context) {
	var plans []models.CarePlan
	if err := h.db.Preload("KeyWorker").Where("status = ?", models.CarePlanStatusActive).Find(&plans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch care plans"})
		return
	}

	now := time.Now()
	due := []gin.H{}
	for _, plan := range plans {
		if plan.IsDueForReview(now) {
			due = append(due, gin.H{
				"plan":    plan,
				"overdue": plan.IsOverdue(now),
			})
		}
	}

	c.JSON(http.StatusOK, due)
}

func (h *CarePlanHandler) DeleteCarePlan(c *gin.Context) {
	id := c.Param("id")

	if err := h.db.Delete(&models.CarePlan{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete care plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Care plan deleted"})
}
