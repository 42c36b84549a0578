package router

import (
	"time"

	"github.com/connexx-dev/connexx/internal/handlers"
	"github.com/connexx-dev/connexx/internal/middleware"
	"github.com/connexx-dev/connexx/internal/security"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(manager *security.Manager, honeypot *security.Honeypot, threatDetection bool) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:3001", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Access-Code"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Every request passes the IP reputation gate, including honeypot paths.
	r.Use(middleware.IPSecurityMiddleware(manager, honeypot, threatDetection))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		// Tenant-facing ingestion, authenticated by access code.
		events := api.Group("/events", middleware.TenantMiddleware())
		{
			events.POST("", handlers.IngestEvent)
			events.GET("", handlers.ListEvents)
			events.GET("/dashboard", handlers.TenantDashboard)
			events.GET("/prediction", handlers.PredictTenantActivity)
		}

		// Website funnel tracking and lead scoring are unauthenticated.
		marketing := api.Group("/marketing")
		{
			marketing.POST("/funnel", handlers.RecordFunnelStage)
			marketing.POST("/leads/score", handlers.ScoreLead)
		}

		admin := api.Group("/admin", middleware.AuthMiddleware())
		{
			admin.POST("/tenants", handlers.CreateTenant)
			admin.GET("/tenants", handlers.ListTenants)
			admin.GET("/tenants/:tenant_id", handlers.GetTenant)
			admin.PATCH("/tenants/:tenant_id", handlers.UpdateTenant)
			admin.POST("/tenants/:tenant_id/suspend", handlers.SuspendTenant)
			admin.POST("/tenants/:tenant_id/reactivate", handlers.ReactivateTenant)
			admin.DELETE("/tenants/:tenant_id", handlers.DeleteTenant)

			admin.GET("/tenants/:tenant_id/economics", handlers.TenantEconomics)
			admin.GET("/tenants/:tenant_id/quality", handlers.TenantQuality)
			admin.POST("/tenants/:tenant_id/tier", handlers.ApplyTierChange)

			admin.GET("/analytics", handlers.GlobalAnalytics)

			business := admin.Group("/business")
			{
				business.GET("/metrics", handlers.BusinessMetrics)
				business.GET("/grades", handlers.CustomerGrades)
				business.GET("/cohorts", handlers.CohortAnalysis)
				business.GET("/pricing-recommendations", handlers.PricingRecommendations)
			}

			quality := admin.Group("/quality")
			{
				quality.GET("/system", handlers.SystemQuality)
				quality.GET("/pareto", handlers.DefectPareto)
				quality.GET("/recommendations", handlers.QualityRecommendations)
				quality.GET("/dmaic", handlers.DMAICDashboard)
				quality.POST("/dmaic", handlers.CreateDMAICProject)
				quality.POST("/dmaic/:project_id/phase", handlers.AdvanceDMAICPhase)
				quality.POST("/dmaic/:project_id/measurements", handlers.AddDMAICMeasurement)
				quality.POST("/dmaic/:project_id/complete", handlers.CompleteDMAICProject)
			}

			marketingAdmin := admin.Group("/marketing")
			{
				marketingAdmin.GET("/funnel", handlers.FunnelMetrics)
				marketingAdmin.GET("/funnel/leaks", handlers.FunnelLeaks)
				marketingAdmin.GET("/channels", handlers.ChannelPerformance)
				marketingAdmin.GET("/roi", handlers.CampaignROI)
				marketingAdmin.POST("/campaigns", handlers.CreateCampaign)
				marketingAdmin.GET("/segments", handlers.CustomerSegments)
				marketingAdmin.GET("/dashboard", handlers.MarketingDashboard)
			}

			monitoring := admin.Group("/monitoring")
			{
				monitoring.GET("/health", handlers.SystemHealth)
				monitoring.POST("/errors", handlers.LogError)
				monitoring.GET("/errors", handlers.RecentErrors)
				monitoring.GET("/errors/analytics", handlers.ErrorAnalytics)
				monitoring.POST("/errors/cleanup", handlers.CleanupErrors)
				monitoring.GET("/alerts", handlers.ActiveAlerts)
				monitoring.POST("/alerts/:alert_id/acknowledge", handlers.AcknowledgeAlert)
				monitoring.POST("/alerts/:alert_id/resolve", handlers.ResolveAlert)
			}

			incidents := admin.Group("/incidents")
			{
				incidents.POST("", handlers.CreateIncident)
				incidents.GET("", handlers.ActiveIncidents)
				incidents.GET("/analytics", handlers.IncidentAnalytics)
				incidents.POST("/:incident_id/resolve", handlers.ResolveIncident)
				incidents.POST("/emergency-exit", handlers.EmergencyExit)
				incidents.GET("/maintenance", handlers.MaintenanceStatus)
				incidents.POST("/maintenance/disable", handlers.DisableMaintenance)
			}

			securityAdmin := admin.Group("/security")
			{
				securityAdmin.GET("/status", handlers.SecurityStatus)
				securityAdmin.GET("/incidents", handlers.SecurityIncidents)
				securityAdmin.GET("/rules", handlers.ListIPRules)
				securityAdmin.POST("/whitelist", handlers.AddToWhitelist)
				securityAdmin.POST("/blacklist", handlers.AddToBlacklist)
				securityAdmin.POST("/blacklist/cleanup", handlers.CleanupBlacklists)
				securityAdmin.GET("/classify/:ip", handlers.ClassifyIP)
			}

			backups := admin.Group("/backups")
			{
				backups.POST("", handlers.TriggerSnapshot)
				backups.POST("/cleanup", handlers.CleanupSnapshots)
			}
		}
	}

	return r
}
