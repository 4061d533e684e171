package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/utils"
)

type PolicyHandler struct {
	db            *gorm.DB
	policyService *utils.AccessPolicyService
}

func NewPolicyHandler(db *gorm.DB, policyService *utils.AccessPolicyService) *PolicyHandler {
	return &PolicyHandler{db: db, policyService: policyService}
}

func (h *PolicyHandler) GetPolicies(c *gin.Context) {
	var policies []models.SecurityPolicy

	query := h.db
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if c.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}
	if enforcement := c.Query("enforcement"); enforcement != "" {
		query = query.Where("enforcement = ?", enforcement)
	}

	if err := query.Find(&policies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch policies"})
		return
	}

	c.JSON(http.StatusOK, policies)
}

func (h *PolicyHandler) GetPolicy(c *gin.Context) {
	id := c.Param("id")

	var policy models.SecurityPolicy
	if err := h.db.First(&policy, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		return
	}

	c.JSON(http.StatusOK, policy)
}

func (h *PolicyHandler) CreatePolicy(c *gin.Context) {
	var input struct {
		Name             string                   `json:"name" binding:"required"`
		Description      string                   `json:"description"`
		Category         string                   `json:"category"`
		Enforcement      models.PolicyEnforcement `json:"enforcement"`
		EffectiveFrom    *time.Time               `json:"effective_from"`
		ExpiresAt        *time.Time               `json:"expires_at"`
		RequiresApproval bool                     `json:"requires_approval"`
		Conditions       models.PolicyConditions  `json:"conditions"`
		Actions          models.PolicyActions     `json:"actions"`
		Exceptions       []models.PolicyException `json:"exceptions"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enforcement := input.Enforcement
	if enforcement == "" {
		enforcement = models.EnforcementMandatory
	}

	effectiveFrom := time.Now()
	if input.EffectiveFrom != nil {
		effectiveFrom = *input.EffectiveFrom
	}

	if input.ExpiresAt != nil && !input.ExpiresAt.After(effectiveFrom) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expiry must be after the effective date"})
		return
	}

	policy := models.SecurityPolicy{
		Name:             input.Name,
		Description:      input.Description,
		Category:         input.Category,
		Enforcement:      enforcement,
		Version:          1,
		Active:           true,
		EffectiveFrom:    effectiveFrom,
		ExpiresAt:        input.ExpiresAt,
		RequiresApproval: input.RequiresApproval,
		Conditions:       input.Conditions,
		Actions:          input.Actions,
		Exceptions:       input.Exceptions,
	}

	if err := h.db.Create(&policy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create policy. Name may already exist."})
		return
	}

	c.JSON(http.StatusCreated, policy)
}

func (h *PolicyHandler) UpdatePolicy(c *gin.Context) {
	id := c.Param("id")

	var policy models.SecurityPolicy
	if err := h.db.First(&policy, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		return
	}

	var input struct {
		Description   *string                   `json:"description"`
		Category      *string                   `json:"category"`
		Enforcement   *models.PolicyEnforcement `json:"enforcement"`
		EffectiveFrom *time.Time                `json:"effective_from"`
		ExpiresAt     *time.Time                `json:"expires_at"`
		Conditions    *models.PolicyConditions  `json:"conditions"`
		Actions       *models.PolicyActions     `json:"actions"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Description != nil {
		policy.Description = *input.Description
	}
	if input.Category != nil {
		policy.Category = *input.Category
	}
	if input.Enforcement != nil {
		policy.Enforcement = *input.Enforcement
	}
	if input.EffectiveFrom != nil {
		policy.EffectiveFrom = *input.EffectiveFrom
	}
	if input.ExpiresAt != nil {
		policy.ExpiresAt = input.ExpiresAt
	}
	if input.Conditions != nil {
		policy.Conditions = *input.Conditions
	}
	if input.Actions != nil {
		policy.Actions = *input.Actions
	}

	// Any semantic change bumps the version and voids a prior approval.
	policy.Version++
	if policy.RequiresApproval {
		policy.ApprovedBy = nil
		policy.ApprovedAt = nil
	}

	if err := h.db.Save(&policy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update policy"})
		return
	}

	c.JSON(http.StatusOK, policy)
}

func (h *PolicyHandler) SetPolicyActive(c *gin.Context) {
	id := c.Param("id")

	var policy models.SecurityPolicy
	if err := h.db.First(&policy, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		return
	}

	var input struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	policy.Active = *input.Active

	if err := h.db.Save(&policy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update policy"})
		return
	}

	c.JSON(http.StatusOK, policy)
}

func (h *PolicyHandler) ApprovePolicy(c *gin.Context) {
	id := c.Param("id")

	var policy models.SecurityPolicy
	if err := h.db.First(&policy, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		return
	}

	if !policy.RequiresApproval {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Policy does not require approval"})
		return
	}

	if policy.ApprovedBy != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Policy is already approved"})
		return
	}

	staffID, exists := c.Get("staffID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
		return
	}

	approver := staffID.(uint)
	approvedAt := time.Now()
	policy.ApprovedBy = &approver
	policy.ApprovedAt = &approvedAt

	if err := h.db.Save(&policy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve policy"})
		return
	}

	c.JSON(http.StatusOK, policy)
}

func (h *PolicyHandler) AddException(c *gin.Context) {
	id := c.Param("id")

	var policy models.SecurityPolicy
	if err := h.db.First(&policy, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		return
	}

	var exception models.PolicyException
	if err := c.ShouldBindJSON(&exception); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if exception.UserID == "" && len(exception.UserGroups) == 0 && exception.Resource == "" &&
		(exception.NotBefore == nil || exception.NotAfter == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Exception must name a user, group, resource or complete time range"})
		return
	}

	if exception.ApprovedAt == nil {
		approvedAt := time.Now()
		exception.ApprovedAt = &approvedAt
	}

	policy.Exceptions = append(policy.Exceptions, exception)

	if err := h.db.Save(&policy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add exception"})
		return
	}

	c.JSON(http.StatusOK, policy)
}

func (h *PolicyHandler) RemoveException(c *gin.Context) {
	id := c.Param("id")

	var policy models.SecurityPolicy
	if err := h.db.First(&policy, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		return
	}

	var input struct {
		Index int `json:"index"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Index < 0 || input.Index >= len(policy.Exceptions) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Exception index out of range"})
		return
	}

	policy.Exceptions = append(policy.Exceptions[:input.Index], policy.Exceptions[input.Index+1:]...)

	if err := h.db.Save(&policy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove exception"})
		return
	}

	c.JSON(http.StatusOK, policy)
}

// EvaluatePolicy runs a live evaluation: metrics are updated and an audit
// event is written.
func (h *PolicyHandler) EvaluatePolicy(c *gin.Context) {
	id := c.Param("id")

	var policy models.SecurityPolicy
	if err := h.db.First(&policy, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		return
	}

	var ctx models.EvalContext
	if err := c.ShouldBindJSON(&ctx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.policyService.EvaluateAccess(policy.ID, ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate policy"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PolicyHandler) GetPolicyMetrics(c *gin.Context) {
	id := c.Param("id")

	var policy models.SecurityPolicy
	if err := h.db.First(&policy, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"policy_id": policy.ID,
		"name":      policy.Name,
		"metrics":   policy.Metrics,
	})
}

func (h *PolicyHandler) DeletePolicy(c *gin.Context) {
	id := c.Param("id")

	if err := h.db.Delete(&models.SecurityPolicy{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete policy"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Policy deleted"})
}
