package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
)

// SimulationHandler evaluates policies in dry-run mode: no metrics are
// updated, no audit event is written and no attempt is recorded against the
// subject. Used to preview the effect of a policy change before it goes live.
type SimulationHandler struct {
	db *gorm.DB
}

func NewSimulationHandler(db *gorm.DB) *SimulationHandler {
	return &SimulationHandler{db: db}
}

func (h *SimulationHandler) SimulatePolicy(c *gin.Context) {
	id := c.Param("id")

	var policy models.SecurityPolicy
	if err := h.db.First(&policy, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		return
	}

	var input struct {
		Context models.EvalContext `json:"context"`
		At      *time.Time         `json:"at"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	at := time.Now()
	if input.At != nil {
		at = *input.At
	}

	result := policy.EvaluateAccess(input.Context, at)

	c.JSON(http.StatusOK, gin.H{
		"policy_id":    policy.ID,
		"policy_name":  policy.Name,
		"evaluated_at": at,
		"result":       result,
	})
}

// SimulateDraft evaluates a policy definition supplied in the request body
// without persisting it.
func (h *SimulationHandler) SimulateDraft(c *gin.Context) {
	var input struct {
		Policy  models.SecurityPolicy `json:"policy" binding:"required"`
		Context models.EvalContext    `json:"context"`
		At      *time.Time            `json:"at"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	at := time.Now()
	if input.At != nil {
		at = *input.At
	}

	// Drafts are evaluated as if already live.
	policy := input.Policy
	policy.Active = true
	if policy.EffectiveFrom.IsZero() {
		policy.EffectiveFrom = at
	}

	result := policy.EvaluateAccess(input.Context, at)

	c.JSON(http.StatusOK, gin.H{
		"policy_name":  policy.Name,
		"evaluated_at": at,
		"result":       result,
	})
}
