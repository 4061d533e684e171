package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
)

type LedgerHandler struct {
	db *gorm.DB
}

func NewLedgerHandler(db *gorm.DB) *LedgerHandler {
	return &LedgerHandler{db: db}
}

func (h *LedgerHandler) GetAccounts(c *gin.Context) {
	var accounts []models.LedgerAccount

	query := h.db
	if accountType := c.Query("type"); accountType != "" {
		query = query.Where("type = ?", accountType)
	}
	if c.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	if err := query.Order("code ASC").Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch accounts"})
		return
	}

	c.JSON(http.StatusOK, accounts)
}

func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var input struct {
		Code string                   `json:"code" binding:"required"`
		Name string                   `json:"name" binding:"required"`
		Type models.LedgerAccountType `json:"type" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch input.Type {
	case models.LedgerAccountAsset, models.LedgerAccountLiability, models.LedgerAccountIncome, models.LedgerAccountExpense:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account type"})
		return
	}

	account := models.LedgerAccount{
		Code:   input.Code,
		Name:   input.Name,
		Type:   input.Type,
		Active: true,
	}

	if err := h.db.Create(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account. Code may already exist."})
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (h *LedgerHandler) PostEntry(c *gin.Context) {
	var input struct {
		AccountID   uint      `json:"account_id" binding:"required"`
		EntryDate   time.Time `json:"entry_date" binding:"required"`
		Reference   string    `json:"reference" binding:"required"`
		Description string    `json:"description"`
		ResidentRef string    `json:"resident_ref"`
		DebitPence  int64     `json:"debit_pence"`
		CreditPence int64     `json:"credit_pence"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.DebitPence < 0 || input.CreditPence < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amounts must not be negative"})
		return
	}

	if input.DebitPence == 0 && input.CreditPence == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Entry must have a debit or credit amount"})
		return
	}

	var account models.LedgerAccount
	if err := h.db.First(&account, input.AccountID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Account not found"})
		return
	}

	if !account.Active {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Account is inactive"})
		return
	}

	staffID, _ := c.Get("staffID")

	entry := models.LedgerEntry{
		AccountID:   input.AccountID,
		EntryDate:   input.EntryDate,
		Reference:   input.Reference,
		Description: input.Description,
		ResidentRef: input.ResidentRef,
		DebitPence:  input.DebitPence,
		CreditPence: input.CreditPence,
	}
	if staffID != nil {
		entry.PostedBy = staffID.(uint)
	}

	if err := h.db.Create(&entry).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post entry"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *LedgerHandler) GetEntries(c *gin.Context) {
	var entries []models.LedgerEntry

	query := h.db.Preload("Account")
	if accountID := c.Query("account_id"); accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	if residentRef := c.Query("resident_ref"); residentRef != "" {
		query = query.Where("resident_ref = ?", residentRef)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("entry_date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("entry_date <= ?", to)
	}

	if err := query.Order("entry_date DESC").Limit(500).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch entries"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *LedgerHandler) GetAccountBalance(c *gin.Context) {
	id := c.Param("id")

	var account models.LedgerAccount
	if err := h.db.First(&account, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	var result struct {
		TotalDebit  int64
		TotalCredit int64
	}
	if err := h.db.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(debit_pence), 0) as total_debit, COALESCE(SUM(credit_pence), 0) as total_credit").
		Where("account_id = ?", account.ID).
		Scan(&result).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id":    account.ID,
		"code":          account.Code,
		"name":          account.Name,
		"type":          account.Type,
		"debit_pence":   result.TotalDebit,
		"credit_pence":  result.TotalCredit,
		"balance_pence": result.TotalDebit - result.TotalCredit,
	})
}
