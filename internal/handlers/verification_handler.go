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

type VerificationHandler struct {
	db *gorm.DB
}

func NewVerificationHandler(db *gorm.DB) *VerificationHandler {
	return &VerificationHandler{db: db}
}

func (h *VerificationHandler) CreateDBSCheck(c *gin.Context) {
	var input struct {
		StaffID           uint            `json:"staff_id" binding:"required"`
		CertificateNumber string          `json:"certificate_number" binding:"required"`
		Level             models.DBSLevel `json:"level"`
		IssuedAt          time.Time       `json:"issued_at" binding:"required"`
		ExpiresAt         *time.Time      `json:"expires_at"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var staff models.StaffMember
	if err := h.db.First(&staff, input.StaffID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Staff member not found"})
		return
	}

	encrypted, err := utils.EncryptDocumentRef(input.CertificateNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to protect certificate number"})
		return
	}

	level := input.Level
	if level == "" {
		level = models.DBSLevelEnhanced
	}

	staffID, _ := c.Get("staffID")

	check := models.DBSCheck{
		StaffID:              input.StaffID,
		EncryptedCertificate: encrypted,
		CertificateLast4:     utils.DocumentLast4(input.CertificateNumber),
		Level:                level,
		Status:               models.CheckStatusPending,
		IssuedAt:             input.IssuedAt,
		ExpiresAt:            input.ExpiresAt,
	}
	if staffID != nil {
		check.CheckedBy = staffID.(uint)
	}

	if err := h.db.Create(&check).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create DBS check"})
		return
	}

	c.JSON(http.StatusCreated, check)
}

func (h *VerificationHandler) UpdateDBSStatus(c *gin.Context) {
	id := c.Param("id")

	var check models.DBSCheck
	if err := h.db.First(&check, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "DBS check not found"})
		return
	}

	var input struct {
		Status models.CheckStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch input.Status {
	case models.CheckStatusPending, models.CheckStatusClear, models.CheckStatusFlagged, models.CheckStatusExpired:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	check.Status = input.Status
	if err := h.db.Save(&check).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update DBS check"})
		return
	}

	c.JSON(http.StatusOK, check)
}

func (h *VerificationHandler) GetDBSChecks(c *gin.Context) {
	var checks []models.DBSCheck

	query := h.db.Preload("Staff")
	if staffID := c.Query("staff_id"); staffID != "" {
		query = query.Where("staff_id = ?", staffID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("issued_at DESC").Find(&checks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch DBS checks"})
		return
	}

	c.JSON(http.StatusOK, checks)
}

func (h *VerificationHandler) GetExpiringDBSChecks(c *gin.Context) {
	days := 60
	if d := c.Query("days"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil && parsed > 0 {
			days = parsed
		}
	}

	var checks []models.DBSCheck
	if err := h.db.Preload("Staff").Where("status = ?", models.CheckStatusClear).Find(&checks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch DBS checks"})
		return
	}

	now := time.Now()
	expiring := []models.DBSCheck{}
	for _, check := range checks {
		if check.ExpiresWithin(now, days) {
			expiring = append(expiring, check)
		}
	}

	c.JSON(http.StatusOK, expiring)
}

func (h *VerificationHandler) CreateRightToWorkCheck(c *gin.Context) {
	var input struct {
		StaffID        uint       `json:"staff_id" binding:"required"`
		DocumentType   string     `json:"document_type" binding:"required"`
		DocumentNumber string     `json:"document_number" binding:"required"`
		ExpiresAt      *time.Time `json:"expires_at"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var staff models.StaffMember
	if err := h.db.First(&staff, input.StaffID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Staff member not found"})
		return
	}

	encrypted, err := utils.EncryptDocumentRef(input.DocumentNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to protect document number"})
		return
	}

	staffID, _ := c.Get("staffID")

	check := models.RightToWorkCheck{
		StaffID:           input.StaffID,
		DocumentType:      input.DocumentType,
		EncryptedDocument: encrypted,
		DocumentLast4:     utils.DocumentLast4(input.DocumentNumber),
		Status:            models.CheckStatusPending,
		VerifiedAt:        time.Now(),
		ExpiresAt:         input.ExpiresAt,
	}
	if staffID != nil {
		check.VerifiedBy = staffID.(uint)
	}

	if err := h.db.Create(&check).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create right to work check"})
		return
	}

	c.JSON(http.StatusCreated, check)
}

func (h *VerificationHandler) UpdateRightToWorkStatus(c *gin.Context) {
	id := c.Param("id")

	var check models.RightToWorkCheck
	if err := h.db.First(&check, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Right to work check not found"})
		return
	}

	var input struct {
		Status models.CheckStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch input.Status {
	case models.CheckStatusPending, models.CheckStatusClear, models.CheckStatusFlagged, models.CheckStatusExpired:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	check.Status = input.Status
	check.VerifiedAt = time.Now()
	if staffID, exists := c.Get("staffID"); exists {
		check.VerifiedBy = staffID.(uint)
	}

	if err := h.db.Save(&check).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update right to work check"})
		return
	}

	c.JSON(http.StatusOK, check)
}

func (h *VerificationHandler) GetRightToWorkChecks(c *gin.Context) {
	var checks []models.RightToWorkCheck

	query := h.db.Preload("Staff")
	if staffID := c.Query("staff_id"); staffID != "" {
		query = query.Where("staff_id = ?", staffID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("verified_at DESC").Find(&checks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch right to work checks"})
		return
	}

	c.JSON(http.StatusOK, checks)
}

// GetStaffComplianceStatus reports whether a staff member currently holds a
// valid DBS check and a valid right to work check.
func (h *VerificationHandler) GetStaffComplianceStatus(c *gin.Context) {
	id := c.Param("id")

	var staff models.StaffMember
	if err := h.db.Preload("DBSChecks").Preload("RightToWorkChecks").First(&staff, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Staff member not found"})
		return
	}

	now := time.Now()

	dbsValid := false
	for _, check := range staff.DBSChecks {
		if check.IsValid(now) {
			dbsValid = true
			break
		}
	}

	rtwValid := false
	for _, check := range staff.RightToWorkChecks {
		if check.IsValid(now) {
			rtwValid = true
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"staff_id":            staff.ID,
		"dbs_valid":           dbsValid,
		"right_to_work_valid": rtwValid,
		"compliant":           dbsValid && rtwValid,
	})
}
