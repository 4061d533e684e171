package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/config"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/routes"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/utils"
)

func getTimePtr(t time.Time) *time.Time {
	return &t
}

func getFloatPtr(f float64) *float64 {
	return &f
}

func main() {
	appConfig := config.Load()

	db, err := setupDatabase(appConfig)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	router := routes.SetupRouter(db, appConfig)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on port %s\n", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}

func setupDatabase(config *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(config.DBPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.StaffMember{},
		&models.CarePlan{},
		&models.CareIntervention{},
		&models.LedgerAccount{},
		&models.LedgerEntry{},
		&models.DBSCheck{},
		&models.RightToWorkCheck{},
		&models.Device{},
		&models.SecurityPolicy{},
		&models.AccessControlUser{},
		&models.AccessEvent{},
		&models.TestReport{},
	); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	if err := createInitialData(db, config); err != nil {
		return nil, fmt.Errorf("initial data setup failed: %w", err)
	}

	return db, nil
}

func createInitialData(db *gorm.DB, config *config.Config) error {
	if err := createAdminStaff(db); err != nil {
		return err
	}

	if err := createDefaultPolicies(db, config); err != nil {
		return err
	}

	if err := createDemoSubjects(db); err != nil {
		return err
	}

	if err := createDemoDevices(db); err != nil {
		return err
	}

	return createLedgerAccounts(db)
}

func createAdminStaff(db *gorm.DB) error {
	var adminCount int64
	if err := db.Model(&models.StaffMember{}).Where("is_admin = ?", true).Count(&adminCount).Error; err != nil {
		return err
	}

	if adminCount > 0 {
		return nil
	}

	adminUsername := getEnv("ADMIN_USERNAME", "admin")

	var existing models.StaffMember
	result := db.Where("username = ?", adminUsername).First(&existing)

	if result.Error == nil {
		existing.IsAdmin = true
		if err := db.Save(&existing).Error; err != nil {
			return err
		}
		log.Println("Existing staff member promoted to admin:", adminUsername)
		return nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	admin := models.StaffMember{
		Username:        adminUsername,
		Password:        getEnv("ADMIN_PASSWORD", "ChangeMe123!"),
		FirstName:       getEnv("ADMIN_FIRST_NAME", "System"),
		LastName:        getEnv("ADMIN_LAST_NAME", "Administrator"),
		Email:           getEnv("ADMIN_EMAIL", "admin@carehome.local"),
		Role:            models.StaffRoleManager,
		JobTitle:        "Registered Manager",
		EmploymentStart: time.Now(),
		IsAdmin:         true,
		Active:          true,
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Default admin staff member created (username: admin)")
	return nil
}

func createDefaultPolicies(db *gorm.DB, config *config.Config) error {
	if config.PolicySeedPath != "" {
		seeds, err := utils.LoadPolicySeeds(config.PolicySeedPath)
		if err != nil {
			return err
		}

		created, err := utils.ApplyPolicySeeds(db, seeds)
		if err != nil {
			return err
		}

		if created > 0 {
			log.Printf("Loaded %d policies from seed file\n", created)
		}
	}

	var policyCount int64
	if err := db.Model(&models.SecurityPolicy{}).Count(&policyCount).Error; err != nil {
		return err
	}

	if policyCount > 0 {
		return nil
	}

	now := time.Now()

	policies := []models.SecurityPolicy{
		{
			Name:          "Medication Room Access",
			Description:   "Only clinical staff may open the medication room, during shifts, from managed devices.",
			Category:      "clinical",
			Enforcement:   models.EnforcementCritical,
			Version:       1,
			Active:        true,
			EffectiveFrom: now,
			Conditions: models.PolicyConditions{
				Roles: &models.RoleConditions{
					AllowedRoles: []string{"nurse", "manager"},
				},
				Time: &models.TimeConditions{
					StartTime:  "06:00",
					EndTime:    "22:00",
					DaysOfWeek: []int{0, 1, 2, 3, 4, 5, 6},
				},
				Device: &models.DeviceConditions{
					RequiredSecurityLevel: models.SecurityLevelHigh,
					MFARequired:           true,
				},
			},
			Actions: models.PolicyActions{
				Allow:    true,
				LogEvent: true,
			},
		},
		{
			Name:          "Resident Records Access",
			Description:   "Care records are limited to employed staff with a valid clearance.",
			Category:      "records",
			Enforcement:   models.EnforcementMandatory,
			Version:       1,
			Active:        true,
			EffectiveFrom: now,
			Conditions: models.PolicyConditions{
				Roles: &models.RoleConditions{
					AllowedRoles: []string{"care_worker", "nurse", "manager"},
				},
				Risk: &models.RiskConditions{
					MaxRiskScore:      getFloatPtr(70),
					RequiredClearance: models.SecurityLevelStandard,
				},
			},
			Actions: models.PolicyActions{
				Allow:    true,
				LogEvent: true,
			},
		},
		{
			Name:          "Night Perimeter Lockdown",
			Description:   "External doors deny access overnight; out-of-hours attempts raise an alert.",
			Category:      "physical",
			Enforcement:   models.EnforcementCritical,
			Version:       1,
			Active:        true,
			EffectiveFrom: now,
			Conditions: models.PolicyConditions{
				Time: &models.TimeConditions{
					StartTime: "22:00",
					EndTime:   "23:59",
				},
			},
			Actions: models.PolicyActions{
				Deny:      true,
				LogEvent:  true,
				SendAlert: true,
			},
		},
	}

	for _, policy := range policies {
		if err := db.Create(&policy).Error; err != nil {
			return err
		}
	}

	log.Println("Default security policies created")
	return nil
}

func createDemoSubjects(db *gorm.DB) error {
	var subjectCount int64
	if err := db.Model(&models.AccessControlUser{}).Count(&subjectCount).Error; err != nil {
		return err
	}

	if subjectCount > 0 {
		return nil
	}

	now := time.Now()

	subjects := []models.AccessControlUser{
		{
			SubjectRef:  "STAFF-0001",
			SubjectType: models.SubjectTypeStaff,
			DisplayName: "Amira Hassan",
			AccessLevel: models.AccessLevelElevated,
			Active:      true,
			MFAEnabled:  true,
			SecurityClearance: models.ClearanceGrant{
				Level:             models.SecurityLevelHigh,
				ExpiresAt:         getTimePtr(now.AddDate(1, 0, 0)),
				BackgroundChecked: true,
			},
			AccessSchedule: []models.ScheduleWindow{
				{
					DaysOfWeek:    []int{1, 2, 3, 4, 5},
					StartTime:     "07:00",
					EndTime:       "20:00",
					EffectiveFrom: now.AddDate(0, -1, 0),
				},
			},
		},
		{
			SubjectRef:  "STAFF-0002",
			SubjectType: models.SubjectTypeStaff,
			DisplayName: "Tom Okafor",
			AccessLevel: models.AccessLevelStandard,
			Active:      true,
			SecurityClearance: models.ClearanceGrant{
				Level:             models.SecurityLevelStandard,
				ExpiresAt:         getTimePtr(now.AddDate(0, 6, 0)),
				BackgroundChecked: true,
			},
		},
		{
			SubjectRef:  "VISITOR-0001",
			SubjectType: models.SubjectTypeVisitor,
			DisplayName: "Day Visitor Pass",
			AccessLevel: models.AccessLevelVisitor,
			Active:      true,
		},
	}

	for i := range subjects {
		subjects[i].ThreatIntelligence.ThreatLevel = models.ThreatLevelLow
		subjects[i].ThreatIntelligence.SecurityScore = subjects[i].CalculateSecurityScore(time.Now())
		if err := db.Create(&subjects[i]).Error; err != nil {
			return err
		}
	}

	log.Println("Demo access subjects created")
	return nil
}

func createDemoDevices(db *gorm.DB) error {
	var deviceCount int64
	if err := db.Model(&models.Device{}).Count(&deviceCount).Error; err != nil {
		return err
	}

	if deviceCount > 0 {
		return nil
	}

	devices := []models.Device{
		{
			DeviceUID:     "DOOR-FRONT-01",
			Name:          "Front Entrance Controller",
			Type:          models.DeviceTypeDoorController,
			Protocol:      models.DeviceProtocolWiFi,
			Status:        models.DeviceStatusOffline,
			Location:      "Front Entrance",
			SecurityLevel: models.SecurityLevelHigh,
		},
		{
			DeviceUID:     "DOOR-MEDS-01",
			Name:          "Medication Room Controller",
			Type:          models.DeviceTypeDoorController,
			Protocol:      models.DeviceProtocolZigbee,
			Status:        models.DeviceStatusOffline,
			Location:      "Medication Room",
			SecurityLevel: models.SecurityLevelCritical,
		},
		{
			DeviceUID:     "CALL-LOUNGE-01",
			Name:          "Lounge Call Point",
			Type:          models.DeviceTypeCallPoint,
			Protocol:      models.DeviceProtocolZWave,
			Status:        models.DeviceStatusOffline,
			Location:      "Residents Lounge",
			SecurityLevel: models.SecurityLevelStandard,
		},
	}

	for _, device := range devices {
		if err := db.Create(&device).Error; err != nil {
			return err
		}
	}

	log.Println("Demo devices created")
	return nil
}

func createLedgerAccounts(db *gorm.DB) error {
	var accountCount int64
	if err := db.Model(&models.LedgerAccount{}).Count(&accountCount).Error; err != nil {
		return err
	}

	if accountCount > 0 {
		return nil
	}

	accounts := []models.LedgerAccount{
		{Code: "1000", Name: "Resident Fees Receivable", Type: models.LedgerAccountAsset, Active: true},
		{Code: "4000", Name: "Care Fee Income", Type: models.LedgerAccountIncome, Active: true},
		{Code: "5000", Name: "Staffing Costs", Type: models.LedgerAccountExpense, Active: true},
		{Code: "5100", Name: "Catering and Supplies", Type: models.LedgerAccountExpense, Active: true},
		{Code: "2000", Name: "Resident Deposits Held", Type: models.LedgerAccountLiability, Active: true},
	}

	for _, account := range accounts {
		if err := db.Create(&account).Error; err != nil {
			return err
		}
	}

	log.Println("Default ledger accounts created")
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
