package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"sync"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/middleware"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
)

type loginAttempt struct {
	username  string
	ipAddress string
	timestamp time.Time
	success   bool
}

type AuthHandler struct {
	db               *gorm.DB
	authMiddleware   *middleware.AuthMiddleware
	loginAttempts    []loginAttempt
	rateLimitWindow  time.Duration
	maxLoginAttempts int
	blockDuration    time.Duration
	blockedIPs       map[string]time.Time
	blockedUsernames map[string]time.Time
	attemptsMutex    sync.Mutex
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		db:               db,
		authMiddleware:   middleware.NewAuthMiddleware(db),
		loginAttempts:    []loginAttempt{},
		rateLimitWindow:  10 * time.Minute,
		maxLoginAttempts: 3,
		blockDuration:    45 * time.Minute,
		blockedIPs:       make(map[string]time.Time),
		blockedUsernames: make(map[string]time.Time),
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ipAddress := c.ClientIP()

	if h.isIPBlocked(ipAddress) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed login attempts. Please try again later."})
		return
	}

	if h.isUsernameBlocked(input.Username) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed login attempts for this username. Please try again later."})
		return
	}

	var staff models.StaffMember
	if err := h.db.Where("username = ?", input.Username).First(&staff).Error; err != nil {
		h.recordLoginAttempt(input.Username, ipAddress, false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if !staff.Active {
		h.recordLoginAttempt(input.Username, ipAddress, false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is inactive"})
		return
	}

	if !staff.CheckPassword(input.Password) {
		h.recordLoginAttempt(input.Username, ipAddress, false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, err := h.authMiddleware.GenerateToken(staff)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	h.recordLoginAttempt(input.Username, ipAddress, true)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"staff": gin.H{
			"id":        staff.ID,
			"username":  staff.Username,
			"firstName": staff.FirstName,
			"lastName":  staff.LastName,
			"email":     staff.Email,
			"role":      staff.Role,
			"isAdmin":   staff.IsAdmin,
		},
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		Username  string           `json:"username" binding:"required"`
		Password  string           `json:"password" binding:"required"`
		FirstName string           `json:"first_name" binding:"required"`
		LastName  string           `json:"last_name" binding:"required"`
		Email     string           `json:"email" binding:"required,email"`
		Role      models.StaffRole `json:"role"`
		JobTitle  string           `json:"job_title"`
		IsAdmin   bool             `json:"is_admin"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validatePasswordStrength(input.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := input.Role
	if role == "" {
		role = models.StaffRoleCareWorker
	}

	staff := models.StaffMember{
		Username:        input.Username,
		Password:        input.Password,
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           input.Email,
		Role:            role,
		JobTitle:        input.JobTitle,
		EmploymentStart: time.Now(),
		IsAdmin:         input.IsAdmin,
		Active:          true,
	}

	if err := h.db.Create(&staff).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register staff member"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       staff.ID,
		"username": staff.Username,
		"message":  "Staff member registered successfully",
	})
}

func (h *AuthHandler) GetMe(c *gin.Context) {
	staff, exists := c.Get("staff")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
		return
	}

	c.JSON(http.StatusOK, staff)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var input struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validatePasswordStrength(input.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	staffInterface, exists := c.Get("staff")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
		return
	}

	staff := staffInterface.(models.StaffMember)

	if !staff.CheckPassword(input.OldPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	staff.Password = input.NewPassword

	if err := h.db.Save(&staff).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *AuthHandler) recordLoginAttempt(username, ipAddress string, success bool) {
	h.attemptsMutex.Lock()
	defer h.attemptsMutex.Unlock()

	attempt := loginAttempt{
		username:  username,
		ipAddress: ipAddress,
		timestamp: time.Now(),
		success:   success,
	}
	h.loginAttempts = append(h.loginAttempts, attempt)

	if success {
		delete(h.blockedIPs, ipAddress)
		delete(h.blockedUsernames, username)
		return
	}

	cutoffTime := time.Now().Add(-h.rateLimitWindow)
	newAttempts := []loginAttempt{}
	for _, a := range h.loginAttempts {
		if a.timestamp.After(cutoffTime) {
			newAttempts = append(newAttempts, a)
		}
	}
	h.loginAttempts = newAttempts

	ipFailures := 0
	for _, a := range h.loginAttempts {
		if a.ipAddress == ipAddress && !a.success {
			ipFailures++
		}
	}

	usernameFailures := 0
	for _, a := range h.loginAttempts {
		if a.username == username && !a.success {
			usernameFailures++
		}
	}

	if ipFailures >= h.maxLoginAttempts {
		h.blockedIPs[ipAddress] = time.Now().Add(h.blockDuration)
	}

	if usernameFailures >= h.maxLoginAttempts {
		h.blockedUsernames[username] = time.Now().Add(h.blockDuration)
	}
}

func (h *AuthHandler) isIPBlocked(ipAddress string) bool {
	h.attemptsMutex.Lock()
	defer h.attemptsMutex.Unlock()

	blockUntil, exists := h.blockedIPs[ipAddress]
	if !exists {
		return false
	}

	if time.Now().After(blockUntil) {
		delete(h.blockedIPs, ipAddress)
		return false
	}

	return true
}

func (h *AuthHandler) isUsernameBlocked(username string) bool {
	h.attemptsMutex.Lock()
	defer h.attemptsMutex.Unlock()

	blockUntil, exists := h.blockedUsernames[username]
	if !exists {
		return false
	}

	if time.Now().After(blockUntil) {
		delete(h.blockedUsernames, username)
		return false
	}

	return true
}

func validatePasswordStrength(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}

	hasUpper := false
	for _, c := range password {
		if unicode.IsUpper(c) {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}

	hasLower := false
	for _, c := range password {
		if unicode.IsLower(c) {
			hasLower = true
			break
		}
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}

	hasDigit := false
	for _, c := range password {
		if unicode.IsDigit(c) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return errors.New("password must contain at least one digit")
	}

	specialChar := regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
	if !specialChar.MatchString(password) {
		return errors.New("password must contain at least one special character (e.g. !@#$%^&*)")
	}

	return nil
}
