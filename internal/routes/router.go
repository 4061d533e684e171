package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/config"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/handlers"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/middleware"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/utils"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/websocket"
)

func SetupRouter(db *gorm.DB, config *config.Config) *gin.Engine {
	router := gin.Default()

	policyService := utils.NewAccessPolicyService(db)

	var wsHandler *websocket.WebSocketHandler
	if config.EnableWebsocket {
		wsHandler = websocket.NewWebSocketHandler(db)
		policyService.SetWebSocketHandler(wsHandler)
	}

	staleWindow := time.Duration(config.DeviceStaleMinutes) * time.Minute

	authHandler := handlers.NewAuthHandler(db)
	staffHandler := handlers.NewStaffHandler(db)
	carePlanHandler := handlers.NewCarePlanHandler(db)
	interventionHandler := handlers.NewInterventionHandler(db)
	ledgerHandler := handlers.NewLedgerHandler(db)
	verificationHandler := handlers.NewVerificationHandler(db)
	deviceHandler := handlers.NewDeviceHandler(db, wsHandler, config.EnableWebsocket, staleWindow)
	policyHandler := handlers.NewPolicyHandler(db, policyService)
	subjectHandler := handlers.NewSubjectHandler(db, policyService)
	eventHandler := handlers.NewEventHandler(db)
	healthHandler := handlers.NewHealthHandler(db)
	simulationHandler := handlers.NewSimulationHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(db)
	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(db, config)

	router.GET("/health", healthHandler.GetHealth)

	if config.EnableWebsocket {
		router.GET("/ws", wsHandler.HandleWebSocket)
	}

	auth := router.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authMiddleware.AuthRequired(), authMiddleware.AdminRequired(), authHandler.Register)
		auth.GET("/me", authMiddleware.AuthRequired(), authHandler.GetMe)
		auth.POST("/change-password", authMiddleware.AuthRequired(), authHandler.ChangePassword)
	}

	if config.EnableRESTAPI {
		api := router.Group("/api")

		if config.APIKeyRequired {
			api.Use(apiKeyMiddleware.APIKeyRequired())
		}

		api.Use(authMiddleware.AuthRequired())
		{
			staff := api.Group("/staff")
			{
				staff.GET("", staffHandler.GetStaff)
				staff.GET("/:id", staffHandler.GetStaffMember)
				staff.GET("/:id/compliance", verificationHandler.GetStaffComplianceStatus)
				staff.PUT("/:id", authMiddleware.AdminRequired(), staffHandler.UpdateStaffMember)
				staff.POST("/:id/end-employment", authMiddleware.AdminRequired(), staffHandler.EndEmployment)
				staff.DELETE("/:id", authMiddleware.AdminRequired(), staffHandler.DeleteStaffMember)
			}

			carePlans := api.Group("/care-plans")
			{
				carePlans.GET("", carePlanHandler.GetCarePlans)
				carePlans.GET("/:id", carePlanHandler.GetCarePlan)
				carePlans.GET("/due-for-review", carePlanHandler.GetPlansDueForReview)
				carePlans.POST("", carePlanHandler.CreateCarePlan)
				carePlans.PUT("/:id", carePlanHandler.UpdateCarePlan)
				carePlans.POST("/:id/review", carePlanHandler.ReviewCarePlan)
				carePlans.DELETE("/:id", authMiddleware.AdminRequired(), carePlanHandler.DeleteCarePlan)
			}

			interventions := api.Group("/interventions")
			{
				interventions.GET("", interventionHandler.GetInterventions)
				interventions.GET("/overdue", interventionHandler.GetOverdueInterventions)
				interventions.POST("", interventionHandler.CreateIntervention)
				interventions.POST("/:id/complete", interventionHandler.CompleteIntervention)
				interventions.DELETE("/:id", authMiddleware.AdminRequired(), interventionHandler.DeleteIntervention)
			}

			ledger := api.Group("/ledger")
			ledger.Use(authMiddleware.AdminRequired())
			{
				ledger.GET("/accounts", ledgerHandler.GetAccounts)
				ledger.POST("/accounts", ledgerHandler.CreateAccount)
				ledger.GET("/accounts/:id/balance", ledgerHandler.GetAccountBalance)
				ledger.GET("/entries", ledgerHandler.GetEntries)
				ledger.POST("/entries", ledgerHandler.PostEntry)
			}

			verification := api.Group("/verification")
			verification.Use(authMiddleware.AdminRequired())
			{
				verification.GET("/dbs", verificationHandler.GetDBSChecks)
				verification.GET("/dbs/expiring", verificationHandler.GetExpiringDBSChecks)
				verification.POST("/dbs", verificationHandler.CreateDBSCheck)
				verification.PUT("/dbs/:id/status", verificationHandler.UpdateDBSStatus)
				verification.GET("/right-to-work", verificationHandler.GetRightToWorkChecks)
				verification.POST("/right-to-work", verificationHandler.CreateRightToWorkCheck)
				verification.PUT("/right-to-work/:id/status", verificationHandler.UpdateRightToWorkStatus)
			}

			devices := api.Group("/devices")
			devices.Use(authMiddleware.AdminRequired())
			{
				devices.GET("", deviceHandler.GetDevices)
				devices.GET("/stale", deviceHandler.GetStaleDevices)
				devices.GET("/:id", deviceHandler.GetDevice)
				devices.POST("", deviceHandler.RegisterDevice)
				devices.PUT("/:id", deviceHandler.UpdateDevice)
				devices.POST("/:id/decommission", deviceHandler.DecommissionDevice)
			}

			policies := api.Group("/policies")
			policies.Use(authMiddleware.AdminRequired())
			{
				policies.GET("", policyHandler.GetPolicies)
				policies.GET("/:id", policyHandler.GetPolicy)
				policies.POST("", policyHandler.CreatePolicy)
				policies.PUT("/:id", policyHandler.UpdatePolicy)
				policies.DELETE("/:id", policyHandler.DeletePolicy)
				policies.POST("/:id/active", policyHandler.SetPolicyActive)
				policies.POST("/:id/approve", policyHandler.ApprovePolicy)
				policies.POST("/:id/exceptions", policyHandler.AddException)
				policies.DELETE("/:id/exceptions", policyHandler.RemoveException)
				policies.POST("/:id/evaluate", policyHandler.EvaluatePolicy)
				policies.GET("/:id/metrics", policyHandler.GetPolicyMetrics)

				policies.POST("/:id/simulate", simulationHandler.SimulatePolicy)
			}

			subjects := api.Group("/subjects")
			subjects.Use(authMiddleware.AdminRequired())
			{
				subjects.GET("", subjectHandler.GetSubjects)
				subjects.GET("/:ref", subjectHandler.GetSubject)
				subjects.POST("", subjectHandler.CreateSubject)
				subjects.PUT("/:ref", subjectHandler.UpdateSubject)
				subjects.DELETE("/:ref", subjectHandler.DeleteSubject)
				subjects.POST("/:ref/check-access", subjectHandler.CheckAccess)
				subjects.POST("/:ref/attempts", subjectHandler.RecordAttempt)
				subjects.POST("/:ref/lock", subjectHandler.LockSubject)
				subjects.POST("/:ref/unlock", subjectHandler.UnlockSubject)
				subjects.GET("/:ref/security-score", subjectHandler.GetSecurityScore)
				subjects.GET("/:ref/history", subjectHandler.GetAccessHistory)
			}

			events := api.Group("/events")
			events.Use(authMiddleware.AdminRequired())
			{
				events.GET("", eventHandler.GetEvents)
				events.GET("/:id", eventHandler.GetEvent)
				events.GET("/correlation/:correlation_id", eventHandler.GetEventByCorrelation)

				events.GET("/stats/resources", eventHandler.GetResourceStats)
				events.GET("/stats/subjects", eventHandler.GetSubjectStats)
				events.GET("/stats/time-series", eventHandler.GetDecisionTimeSeries)
				events.GET("/stats/most-denied-resources", eventHandler.GetMostDeniedResources)
				events.GET("/stats/most-active-subjects", eventHandler.GetMostActiveSubjects)
			}

			simulation := api.Group("/simulate")
			simulation.Use(authMiddleware.AdminRequired())
			{
				simulation.POST("/policy", simulationHandler.SimulateDraft)
			}

			reports := api.Group("/test-reports")
			reports.Use(authMiddleware.AdminRequired())
			{
				reports.GET("", healthHandler.GetTestReports)
				reports.POST("", healthHandler.CreateTestReport)
			}
		}
	}

	bridge := router.Group("/bridge")

	if config.APIKeyRequired {
		bridge.Use(apiKeyMiddleware.APIKeyRequired())
	}

	{
		bridge.POST("/heartbeat", deviceHandler.Heartbeat)
		bridge.POST("/subjects/:ref/check-access", subjectHandler.CheckAccess)
		bridge.POST("/subjects/:ref/attempts", subjectHandler.RecordAttempt)
	}

	return router
}
