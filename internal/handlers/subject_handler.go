package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/utils"
)

type SubjectHandler struct {
	db            *gorm.DB
	policyService *utils.AccessPolicyService
}

func NewSubjectHandler(db *gorm.DB, policyService *utils.AccessPolicyService) *SubjectHandler {
	return &SubjectHandler{db: db, policyService: policyService}
}

func (h *SubjectHandler) GetSubjects(c *gin.Context) {
	var subjects []models.AccessControlUser

	query := h.db
	if subjectType := c.Query("type"); subjectType != "" {
		query = query.Where("subject_type = ?", subjectType)
	}
	if accessLevel := c.Query("access_level"); accessLevel != "" {
		query = query.Where("access_level = ?", accessLevel)
	}
	if c.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	if err := query.Find(&subjects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subjects"})
		return
	}

	c.JSON(http.StatusOK, subjects)
}

func (h *SubjectHandler) GetSubject(c *gin.Context) {
	ref := c.Param("ref")

	var subject models.AccessControlUser
	if err := h.db.First(&subject, "subject_ref = ?", ref).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}

	c.JSON(http.StatusOK, subject)
}

func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var input struct {
		SubjectRef        string                     `json:"subject_ref" binding:"required"`
		SubjectType       models.SubjectType         `json:"subject_type"`
		DisplayName       string                     `json:"display_name" binding:"required"`
		AccessLevel       models.AccessLevel         `json:"access_level"`
		MFAEnabled        bool                       `json:"mfa_enabled"`
		BiometricRequired bool                       `json:"biometric_required"`
		Permissions       []models.SubjectPermission `json:"permissions"`
		AccessSchedule    []models.ScheduleWindow    `json:"access_schedule"`
		SecurityClearance models.ClearanceGrant      `json:"security_clearance"`
		IPRestrictions    []string                   `json:"ip_restrictions"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subjectType := input.SubjectType
	if subjectType == "" {
		subjectType = models.SubjectTypeStaff
	}

	accessLevel := input.AccessLevel
	if accessLevel == "" {
		accessLevel = models.AccessLevelStandard
	}

	subject := models.AccessControlUser{
		SubjectRef:        input.SubjectRef,
		SubjectType:       subjectType,
		DisplayName:       input.DisplayName,
		AccessLevel:       accessLevel,
		Active:            true,
		MFAEnabled:        input.MFAEnabled,
		BiometricRequired: input.BiometricRequired,
		Permissions:       input.Permissions,
		AccessSchedule:    input.AccessSchedule,
		SecurityClearance: input.SecurityClearance,
		IPRestrictions:    input.IPRestrictions,
	}
	subject.ThreatIntelligence.ThreatLevel = models.ThreatLevelLow
	subject.ThreatIntelligence.SecurityScore = subject.CalculateSecurityScore(time.Now())

	if err := h.db.Create(&subject).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subject. Reference may already exist."})
		return
	}

	c.JSON(http.StatusCreated, subject)
}

func (h *SubjectHandler) UpdateSubject(c *gin.Context) {
	ref := c.Param("ref")

	var subject models.AccessControlUser
	if err := h.db.First(&subject, "subject_ref = ?", ref).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}

	var input struct {
		DisplayName       *string                     `json:"display_name"`
		AccessLevel       *models.AccessLevel         `json:"access_level"`
		Active            *bool                       `json:"active"`
		MFAEnabled        *bool                       `json:"mfa_enabled"`
		BiometricRequired *bool                       `json:"biometric_required"`
		Permissions       *[]models.SubjectPermission `json:"permissions"`
		AccessSchedule    *[]models.ScheduleWindow    `json:"access_schedule"`
		SecurityClearance *models.ClearanceGrant      `json:"security_clearance"`
		IPRestrictions    *[]string                   `json:"ip_restrictions"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.DisplayName != nil {
		subject.DisplayName = *input.DisplayName
	}
	if input.AccessLevel != nil {
		subject.AccessLevel = *input.AccessLevel
	}
	if input.Active != nil {
		subject.Active = *input.Active
	}
	if input.MFAEnabled != nil {
		subject.MFAEnabled = *input.MFAEnabled
	}
	if input.BiometricRequired != nil {
		subject.BiometricRequired = *input.BiometricRequired
	}
	if input.Permissions != nil {
		subject.Permissions = *input.Permissions
	}
	if input.AccessSchedule != nil {
		subject.AccessSchedule = *input.AccessSchedule
	}
	if input.SecurityClearance != nil {
		subject.SecurityClearance = *input.SecurityClearance
	}
	if input.IPRestrictions != nil {
		subject.IPRestrictions = *input.IPRestrictions
	}

	subject.ThreatIntelligence.SecurityScore = subject.CalculateSecurityScore(time.Now())

	if err := h.db.Save(&subject).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subject"})
		return
	}

	c.JSON(http.StatusOK, subject)
}

// CheckAccess runs the full decision path for a subject against a policy:
// lockout and schedule gates, then policy evaluation, then attempt recording.
func (h *SubjectHandler) CheckAccess(c *gin.Context) {
	ref := c.Param("ref")

	var input struct {
		PolicyID uint               `json:"policy_id" binding:"required"`
		Context  models.EvalContext `json:"context"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.policyService.CheckSubjectAccess(ref, input.PolicyID, input.Context)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecordAttempt ingests an attempt observed outside the policy path, for
// example a door controller reporting a card swipe directly.
func (h *SubjectHandler) RecordAttempt(c *gin.Context) {
	ref := c.Param("ref")

	var attempt models.AccessAttempt
	if err := c.ShouldBindJSON(&attempt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject, err := h.policyService.RecordAttempt(ref, attempt)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subject_ref":         subject.SubjectRef,
		"failed_attempts":     subject.FailedAccessAttempts,
		"locked":              subject.IsAccountLocked(time.Now()),
		"threat_intelligence": subject.ThreatIntelligence,
	})
}

func (h *SubjectHandler) LockSubject(c *gin.Context) {
	ref := c.Param("ref")

	var subject models.AccessControlUser
	if err := h.db.First(&subject, "subject_ref = ?", ref).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}

	var input struct {
		Minutes int `json:"minutes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	minutes := input.Minutes
	if minutes <= 0 {
		minutes = 30
	}

	subject.LockAccount(minutes, time.Now())

	if err := h.db.Save(&subject).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to lock subject"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subject_ref":  subject.SubjectRef,
		"locked_until": subject.AccountLockedUntil,
	})
}

func (h *SubjectHandler) UnlockSubject(c *gin.Context) {
	ref := c.Param("ref")

	var subject models.AccessControlUser
	if err := h.db.First(&subject, "subject_ref = ?", ref).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}

	subject.UnlockAccount()

	if err := h.db.Save(&subject).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlock subject"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subject unlocked", "subject_ref": subject.SubjectRef})
}

func (h *SubjectHandler) GetSecurityScore(c *gin.Context) {
	ref := c.Param("ref")

	var subject models.AccessControlUser
	if err := h.db.First(&subject, "subject_ref = ?", ref).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subject_ref":         subject.SubjectRef,
		"security_score":      subject.CalculateSecurityScore(time.Now()),
		"threat_intelligence": subject.ThreatIntelligence,
		"failed_attempts":     subject.FailedAccessAttempts,
		"locked":              subject.IsAccountLocked(time.Now()),
	})
}

func (h *SubjectHandler) GetAccessHistory(c *gin.Context) {
	ref := c.Param("ref")

	var subject models.AccessControlUser
	if err := h.db.First(&subject, "subject_ref = ?", ref).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}

	history := subject.AccessHistory
	if len(history) > 100 {
		history = history[len(history)-100:]
	}

	c.JSON(http.StatusOK, gin.H{
		"subject_ref": subject.SubjectRef,
		"count":       len(history),
		"history":     history,
	})
}

func (h *SubjectHandler) DeleteSubject(c *gin.Context) {
	ref := c.Param("ref")

	if err := h.db.Where("subject_ref = ?", ref).Delete(&models.AccessControlUser{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete subject"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subject deleted"})
}
