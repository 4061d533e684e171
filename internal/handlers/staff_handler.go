package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
)

type StaffHandler struct {
	db *gorm.DB
}

func NewStaffHandler(db *gorm.DB) *StaffHandler {
	return &StaffHandler{db: db}
}

func (h *StaffHandler) GetStaff(c *gin.Context) {
	var staff []models.StaffMember

	query := h.db
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if active := c.Query("active"); active == "true" {
		query = query.Where("active = ?", true)
	}

	if err := query.Find(&staff).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch staff"})
		return
	}

	c.JSON(http.StatusOK, staff)
}

func (h *StaffHandler) GetStaffMember(c *gin.Context) {
	id := c.Param("id")

	var staff models.StaffMember
	if err := h.db.Preload("DBSChecks").Preload("RightToWorkChecks").Preload("CarePlans").First(&staff, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Staff member not found"})
		return
	}

	c.JSON(http.StatusOK, staff)
}

func (h *StaffHandler) UpdateStaffMember(c *gin.Context) {
	id := c.Param("id")

	var staff models.StaffMember
	if err := h.db.First(&staff, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Staff member not found"})
		return
	}

	var input struct {
		FirstName *string           `json:"first_name"`
		LastName  *string           `json:"last_name"`
		Email     *string           `json:"email"`
		Role      *models.StaffRole `json:"role"`
		JobTitle  *string           `json:"job_title"`
		IsAdmin   *bool             `json:"is_admin"`
		Active    *bool             `json:"active"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.FirstName != nil {
		staff.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		staff.LastName = *input.LastName
	}
	if input.Email != nil {
		staff.Email = *input.Email
	}
	if input.Role != nil {
		staff.Role = *input.Role
	}
	if input.JobTitle != nil {
		staff.JobTitle = *input.JobTitle
	}
	if input.IsAdmin != nil {
		staff.IsAdmin = *input.IsAdmin
	}
	if input.Active != nil {
		staff.Active = *input.Active
	}

	if err := h.db.Save(&staff).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update staff member"})
		return
	}

	c.JSON(http.StatusOK, staff)
}

func (h *StaffHandler) EndEmployment(c *gin.Context) {
	id := c.Param("id")

	var staff models.StaffMember
	if err := h.db.First(&staff, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Staff member not found"})
		return
	}

	now := time.Now()
	staff.EmploymentEnd = &now
	staff.Active = false

	if err := h.db.Save(&staff).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end employment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Employment ended", "staff": staff})
}

func (h *StaffHandler) DeleteStaffMember(c *gin.Context) {
	id := c.Param("id")

	if staffID, exists := c.Get("staffID"); exists && id == strconv.FormatUint(uint64(staffID.(uint)), 10) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	if err := h.db.Delete(&models.StaffMember{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete staff member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Staff member deleted"})
}
