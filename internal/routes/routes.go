package routes

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"

	"github.com/csma94/guard-sub008/config"
	adminHandlers "github.com/csma94/guard-sub008/internal/handlers/admin"
	agentHandlers "github.com/csma94/guard-sub008/internal/handlers/agent"
	"github.com/csma94/guard-sub008/internal/handlers/appversion"
	authHandlers "github.com/csma94/guard-sub008/internal/handlers/auth"
	geoHandlers "github.com/csma94/guard-sub008/internal/handlers/geo"
	incidentHandlers "github.com/csma94/guard-sub008/internal/handlers/incident"
	notificationHandlers "github.com/csma94/guard-sub008/internal/handlers/notification"
	reportHandlers "github.com/csma94/guard-sub008/internal/handlers/report"
	shiftHandlers "github.com/csma94/guard-sub008/internal/handlers/shift"
	siteHandlers "github.com/csma94/guard-sub008/internal/handlers/site"
	wsHandlers "github.com/csma94/guard-sub008/internal/handlers/ws"
	"github.com/csma94/guard-sub008/internal/middleware"
	"github.com/csma94/guard-sub008/internal/pkg/response"
	"github.com/csma94/guard-sub008/internal/repositories"
	authService "github.com/csma94/guard-sub008/internal/services/auth"
	geoService "github.com/csma94/guard-sub008/internal/services/geo"
	"github.com/csma94/guard-sub008/internal/services/notify"
)

// Setup wires every route and returns the configured router.
func Setup(cfg *config.Config, database *sql.DB, redisClient *redis.Client, hub *notify.Hub) *chi.Mux {
	jwtAuth := jwtauth.New("HS256", []byte(cfg.JwtSecret), nil)
	jwtService := authService.NewJWTService(cfg.JwtSecret, redisClient)

	posRepo := repositories.NewPositionRepository(database)
	geoSvc := geoService.NewGeoTrackService(posRepo, redisClient, hub)
	authHandler := authHandlers.NewAuthHandler(database, jwtService)
	profileHandler := authHandlers.NewProfileHandler(database)
	appVersionHandler := appversion.NewHandler(database)

	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	// Public routes
	router.Post("/api/auth/register", authHandler.RegisterHandler)
	router.Post("/api/auth/login", authHandler.LoginHandler)
	router.Post("/api/auth/refresh", authHandler.RefreshTokenHandler)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/uploads/*", http.StripPrefix("/uploads", http.FileServer(http.Dir(cfg.UploadDir))))

	// Websocket auth rides in the query string, not the header.
	router.Get("/ws", wsHandlers.WebSocketHandler(jwtAuth, hub))

	router.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(jwtAuth))
		r.Use(jwtauth.Authenticator(jwtAuth))
		r.Use(middleware.AddUserIDToContext())

		r.Get("/api/profile", profileHandler.GetProfile)
		r.Put("/api/profile", profileHandler.UpdateProfile)
		r.Post("/api/logout", authHandler.LogoutHandler)

		// Shifts
		r.Get("/api/shifts", shiftHandlers.ListShiftsHandler(database))
		r.Get("/api/shifts/active", shiftHandlers.GetMyActiveShiftHandler(database))
		r.Post("/api/shifts/{shiftID}/clock-in", shiftHandlers.ClockInHandler(database, hub, cfg.UploadDir))
		r.Post("/api/shifts/{shiftID}/clock-out", shiftHandlers.ClockOutHandler(database, hub))

		// Incidents and reports
		r.Get("/api/incidents", incidentHandlers.ListIncidentsHandler(database))
		r.Get("/api/incidents/{incidentID}", incidentHandlers.GetIncidentHandler(database))
		r.Post("/api/incidents", incidentHandlers.CreateIncidentHandler(database, hub))
		r.Get("/api/reports", reportHandlers.ListReportsHandler(database))
		r.Get("/api/reports/{reportID}", reportHandlers.GetReportHandler(database))
		r.Post("/api/reports", reportHandlers.CreateReportHandler(database))
		r.Patch("/api/reports/{reportID}", reportHandlers.UpdateReportHandler(database))
		r.Post("/api/reports/{reportID}/submit", reportHandlers.SubmitReportHandler(database))
		r.Delete("/api/reports/{reportID}", reportHandlers.DeleteReportHandler(database))

		// Notifications
		r.Get("/api/notifications", notificationHandlers.ListNotificationsHandler(database))
		r.Post("/api/notifications/{notificationID}/read", notificationHandlers.MarkNotificationReadHandler(database))
		r.Post("/api/notifications/read-all", notificationHandlers.MarkAllReadHandler(database))

		// Position reports from the mobile app
		r.Post("/api/geo", geoHandlers.PostGeoHandler(geoSvc))

		// App updates
		r.Post("/api/app/version/check", appVersionHandler.CheckVersionHandler)
		r.Get("/api/app/version/latest", appVersionHandler.GetLatestVersionHandler)

		// Staff and client portal
		r.Group(func(pr chi.Router) {
			pr.Use(middleware.StaffOrClient())
			pr.Get("/api/sites", siteHandlers.ListSitesHandler(database))
			pr.Get("/api/sites/{siteID}", siteHandlers.GetSiteHandler(database))
			pr.Get("/api/agents", agentHandlers.ListAgentsHandler(database))
			pr.Get("/api/agents/{agentID}", agentHandlers.GetAgentHandler(database))
			pr.Get("/api/agents/{agentID}/shifts", agentHandlers.GetAgentShiftsHandler(database))
			pr.Get("/api/shifts/live", shiftHandlers.GetActiveShiftsHandler(database))
			pr.Get("/api/geo/last", geoHandlers.GetLastLocationsHandler(geoSvc))
		})

		// Back-office staff only
		r.Group(func(sr chi.Router) {
			sr.Use(middleware.AdminOnly())

			sr.Get("/api/admin/users", adminHandlers.ListAdminUsersHandler(database))
			sr.Post("/api/admin/users", adminHandlers.CreateUserHandler(database))
			sr.Patch("/api/admin/users/{userID}/role", adminHandlers.UpdateUserRoleHandler(database))
			sr.Patch("/api/admin/users/{userID}/status", adminHandlers.UpdateUserStatusHandler(database))
			sr.Delete("/api/admin/users/{userID}", adminHandlers.DeleteUserHandler(database, hub))
			sr.Post("/api/admin/roles", adminHandlers.CreateRoleHandler(database))
			sr.Delete("/api/admin/roles", adminHandlers.DeleteRoleHandler(database))

			sr.Get("/api/admin/clients", adminHandlers.ListClientsHandler(database))
			sr.Post("/api/admin/clients", adminHandlers.CreateClientHandler(database))
			sr.Delete("/api/admin/clients/{clientID}", adminHandlers.DeleteClientHandler(database))

			sr.Post("/api/admin/sites", siteHandlers.CreateSiteHandler(database))
			sr.Put("/api/admin/sites/{siteID}", siteHandlers.UpdateSiteHandler(database))
			sr.Delete("/api/admin/sites/{siteID}", siteHandlers.DeleteSiteHandler(database))
			sr.Post("/api/admin/sites/import", siteHandlers.ImportSitesHandler(database, cfg.GoogleCredentials))

			sr.Patch("/api/admin/agents/{agentID}", agentHandlers.UpdateAgentHandler(database))

			sr.Post("/api/admin/shifts", shiftHandlers.CreateShiftHandler(database, hub))
			sr.Put("/api/admin/shifts/{shiftID}", shiftHandlers.UpdateShiftHandler(database, hub))
			sr.Delete("/api/admin/shifts/{shiftID}", shiftHandlers.DeleteShiftHandler(database))
			sr.Get("/api/admin/shifts/export", shiftHandlers.ExportShiftsHandler(database))
			sr.Post("/api/admin/users/{userID}/end-shift", adminHandlers.ForceEndShiftHandler(database, hub))
			sr.Get("/api/admin/auto-end-shifts", shiftHandlers.AutoEndShiftsHandler(database, hub))

			sr.Patch("/api/admin/incidents/{incidentID}", incidentHandlers.UpdateIncidentHandler(database))
			sr.Post("/api/admin/incidents/{incidentID}/resolve", incidentHandlers.ResolveIncidentHandler(database, hub))
			sr.Delete("/api/admin/incidents/{incidentID}", incidentHandlers.DeleteIncidentHandler(database))

			sr.Post("/api/admin/reports/{reportID}/review", reportHandlers.ReviewReportHandler(database))
			sr.Get("/api/admin/reports/export", reportHandlers.ExportReportsHandler(database))

			sr.Post("/api/admin/notifications/broadcast", notificationHandlers.BroadcastNotificationHandler(database, hub))

			sr.Get("/api/admin/geo/history/{agentID}", geoHandlers.GetHistoryHandler(geoSvc))

			sr.Get("/api/admin/app/versions", appVersionHandler.ListVersionsHandler)
			sr.Post("/api/admin/app/versions", appVersionHandler.CreateVersionHandler)
			sr.Put("/api/admin/app/versions/{id}", appVersionHandler.UpdateVersionHandler)
			sr.Delete("/api/admin/app/versions/{id}", appVersionHandler.DeleteVersionHandler)
		})
	})

	return router
}
