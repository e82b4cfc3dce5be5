package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/authz"
	"github.com/Dias221467/Saviya_Learn/internal/config"
	"github.com/Dias221467/Saviya_Learn/internal/database"
	"github.com/Dias221467/Saviya_Learn/internal/handlers"
	"github.com/Dias221467/Saviya_Learn/internal/jobs"
	"github.com/Dias221467/Saviya_Learn/internal/realtime"
	"github.com/Dias221467/Saviya_Learn/internal/repository"
	"github.com/Dias221467/Saviya_Learn/internal/scheduler"
	"github.com/Dias221467/Saviya_Learn/internal/services"
	"github.com/Dias221467/Saviya_Learn/pkg/email"
	"github.com/Dias221467/Saviya_Learn/pkg/logger"
	"github.com/Dias221467/Saviya_Learn/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	cleanupSchedule = "@hourly"
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load configuration from .env and the environment
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid configuration")
	}

	logger.InitLogger(cfg.LogLevel)
	logger.Log.WithField("environment", cfg.Environment).Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Database connection error")
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	preferencesRepo := repository.NewPreferencesRepository(db)
	chatRepo := repository.NewChatRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	resourceGroupRepo := repository.NewResourceGroupRepository(db)
	requestRepo := repository.NewResourceRequestRepository(db)
	reportRepo := repository.NewReportRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureAll(indexCtx,
		userRepo, tokenRepo, groupRepo, sessionRepo, notificationRepo, preferencesRepo, chatRepo,
		resourceRepo, resourceGroupRepo, requestRepo, reportRepo, feedbackRepo, activityRepo,
	); err != nil {
		logger.Log.WithError(err).Warn("Some indexes could not be created")
	}
	cancelIndexes()

	mailer, err := email.New(email.Options{
		Provider:       cfg.MailProvider,
		From:           cfg.MailFrom,
		SMTPHost:       cfg.SMTPHost,
		SMTPPort:       cfg.SMTPPort,
		SMTPUser:       cfg.SMTPUser,
		SMTPPass:       cfg.SMTPPass,
		SendGridAPIKey: cfg.SendGridAPIKey,
	})
	if err != nil {
		logger.Log.WithError(err).Fatal("Mailer setup failed")
	}

	// The hub checks room membership through the group service, which in
	// turn publishes through the hub. groupService is set below, before the
	// server accepts connections.
	var groupService *services.GroupService
	hub := realtime.NewHub(realtime.MembershipFunc(func(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
		return groupService.IsGroupMember(ctx, groupID, userID)
	}))

	// --- Services ---
	activityService := services.NewActivityService(activityRepo)
	notificationService := services.NewNotificationService(notificationRepo, preferencesRepo, userRepo, hub, mailer, cfg.FrontendURL)
	authService := services.NewAuthService(userRepo, tokenRepo, mailer, activityService, services.AuthConfig{
		JWTSecret:          cfg.JWTSecret,
		TokenExpiry:        cfg.TokenExpiry,
		RefreshTokenExpiry: cfg.RefreshTokenExpiry,
		FrontendURL:        cfg.FrontendURL,
	})
	userService := services.NewUserService(userRepo, tokenRepo, notificationService, activityService)
	groupService = services.NewGroupService(groupRepo, userRepo, notificationService, activityService)
	sessionService := services.NewSessionService(sessionRepo, groupRepo, userRepo, notificationService, hub, activityService)
	chatService := services.NewChatService(chatRepo, groupRepo, hub, activityService)
	resourceService := services.NewResourceService(resourceRepo, groupRepo, userRepo, notificationService, activityService)
	resourceGroupService := services.NewResourceGroupService(resourceGroupRepo, groupRepo, resourceRepo, notificationService)
	requestService := services.NewResourceRequestService(requestRepo, groupRepo, resourceRepo, userRepo, notificationService, hub, activityService)
	reportService := services.NewReportService(reportRepo, services.ReportTargets{
		Users:     userRepo,
		Accounts:  userService,
		Resources: resourceRepo,
		Messages:  chatRepo,
		Groups:    groupRepo,
		Sessions:  sessionRepo,
	}, notificationService, hub, activityService)
	feedbackService := services.NewFeedbackService(feedbackRepo, activityService)
	analyticsService := services.NewAnalyticsService(userRepo, groupRepo, sessionRepo, activityService)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	groupHandler := handlers.NewGroupHandler(groupService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	chatHandler := handlers.NewChatHandler(chatService)
	resourceHandler := handlers.NewResourceHandler(resourceService)
	resourceGroupHandler := handlers.NewResourceGroupHandler(resourceGroupService)
	requestHandler := handlers.NewRequestHandler(requestService)
	reportHandler := handlers.NewReportHandler(reportService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	activityHandler := handlers.NewActivityHandler(activityService, analyticsService)
	realtimeHandler := handlers.NewRealtimeHandler(hub, cfg.JWTSecret, cfg.AllowedOrigins())

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, db); err != nil {
			logger.Log.WithError(err).Warn("Health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/ws", realtimeHandler.WebSocketHandler).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	authenticated := middleware.AuthMiddleware(cfg.JWTSecret)
	lastActive := middleware.UpdateLastActive(userService)
	admin := func(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin()(h) }
	capable := func(c authz.Capability, h http.HandlerFunc) http.Handler { return middleware.RequireCapability(c)(h) }

	// Auth routes
	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
	authRoutes.HandleFunc("/signup", authHandler.SignupHandler).Methods("POST")
	authRoutes.HandleFunc("/login", authHandler.LoginHandler).Methods("POST")
	authRoutes.HandleFunc("/refresh-token", authHandler.RefreshTokenHandler).Methods("POST")
	authRoutes.HandleFunc("/logout", authHandler.LogoutHandler).Methods("POST")
	authRoutes.HandleFunc("/verify-email", authHandler.VerifyEmailHandler).Methods("GET")
	authRoutes.HandleFunc("/request-password-reset", authHandler.RequestPasswordResetHandler).Methods("POST")
	authRoutes.HandleFunc("/reset-password", authHandler.ResetPasswordHandler).Methods("POST")

	// User routes
	userRoutes := api.PathPrefix("/users").Subrouter()
	userRoutes.Use(authenticated, lastActive)
	userRoutes.HandleFunc("/me", userHandler.GetMeHandler).Methods("GET")
	userRoutes.HandleFunc("/me", userHandler.UpdateMeHandler).Methods("PUT")
	userRoutes.Handle("", capable(authz.ManageUsers, userHandler.ListUsersHandler)).Methods("GET")
	userRoutes.Handle("/{id}", capable(authz.ManageUsers, userHandler.GetUserHandler)).Methods("GET")
	userRoutes.Handle("/{id}", capable(authz.ManageUsers, userHandler.UpdateUserHandler)).Methods("PUT")
	userRoutes.Handle("/{id}", capable(authz.ManageUsers, userHandler.DeleteUserHandler)).Methods("DELETE")
	userRoutes.Handle("/{id}/role", capable(authz.ManageUsers, userHandler.ChangeRoleHandler)).Methods("PATCH")
	userRoutes.Handle("/{id}/ban", capable(authz.ManageUsers, userHandler.BanUserHandler())).Methods("POST")
	userRoutes.Handle("/{id}/suspend", capable(authz.ManageUsers, userHandler.SuspendUserHandler())).Methods("POST")
	userRoutes.Handle("/{id}/reactivate", capable(authz.ManageUsers, userHandler.ReactivateUserHandler())).Methods("POST")
	userRoutes.Handle("/{id}/reset-password", capable(authz.ManageUsers, userHandler.ResetPasswordHandler)).Methods("POST")

	// Group routes
	groupRoutes := api.PathPrefix("/groups").Subrouter()
	groupRoutes.Use(authenticated, lastActive)
	groupRoutes.HandleFunc("", groupHandler.CreateGroupHandler).Methods("POST")
	groupRoutes.Handle("", admin(groupHandler.AdminListGroupsHandler)).Methods("GET")
	groupRoutes.HandleFunc("/search", groupHandler.SearchGroupsHandler).Methods("GET")
	groupRoutes.HandleFunc("/my", groupHandler.MyGroupsHandler).Methods("GET")
	groupRoutes.HandleFunc("/{id}", groupHandler.GetGroupHandler).Methods("GET")
	groupRoutes.Handle("/{id}", capable(authz.OverrideGroups, groupHandler.AdminUpdateGroupHandler)).Methods("PUT")
	groupRoutes.Handle("/{id}", capable(authz.OverrideGroups, groupHandler.AdminDeleteGroupHandler)).Methods("DELETE")
	groupRoutes.Handle("/{id}/join", groupHandler.JoinGroupHandler()).Methods("POST")
	groupRoutes.Handle("/{id}/leave", groupHandler.LeaveGroupHandler()).Methods("POST")
	groupRoutes.HandleFunc("/{id}/invite", groupHandler.InviteHandler).Methods("POST")
	groupRoutes.HandleFunc("/{id}/members/{userId}", groupHandler.RemoveMemberHandler).Methods("DELETE")
	groupRoutes.HandleFunc("/{id}/members/{userId}/role", groupHandler.ChangeMemberRoleHandler).Methods("PATCH")

	// Session routes
	sessionRoutes := api.PathPrefix("/sessions").Subrouter()
	sessionRoutes.Use(authenticated, lastActive)
	sessionRoutes.HandleFunc("", sessionHandler.CreateSessionHandler).Methods("POST")
	sessionRoutes.Handle("/admin/list", capable(authz.OverrideSessions, sessionHandler.AdminListSessionsHandler)).Methods("GET")
	sessionRoutes.HandleFunc("/group/{groupId}", sessionHandler.GroupSessionsHandler).Methods("GET")
	sessionRoutes.HandleFunc("/{id}", sessionHandler.GetSessionHandler).Methods("GET")
	sessionRoutes.HandleFunc("/{id}", sessionHandler.UpdateSessionHandler).Methods("PUT")
	sessionRoutes.Handle("/{id}", sessionHandler.DeleteSessionHandler()).Methods("DELETE")
	sessionRoutes.Handle("/{id}/start", sessionHandler.StartSessionHandler()).Methods("POST")
	sessionRoutes.Handle("/{id}/end", sessionHandler.EndSessionHandler()).Methods("POST")
	sessionRoutes.Handle("/{id}/cancel", sessionHandler.CancelSessionHandler()).Methods("POST")
	sessionRoutes.Handle("/{id}/join", sessionHandler.JoinSessionHandler()).Methods("POST")
	sessionRoutes.Handle("/{id}/leave", sessionHandler.LeaveSessionHandler()).Methods("POST")
	sessionRoutes.Handle("/{id}/status", capable(authz.OverrideSessions, sessionHandler.AdminSetStatusHandler)).Methods("POST")

	// Chat routes
	chatRoutes := api.PathPrefix("/chat").Subrouter()
	chatRoutes.Use(authenticated, lastActive)
	chatRoutes.HandleFunc("/groups/{groupId}/messages", chatHandler.SendMessageHandler).Methods("POST")
	chatRoutes.HandleFunc("/groups/{groupId}/messages", chatHandler.ListMessagesHandler).Methods("GET")
	chatRoutes.HandleFunc("/groups/{groupId}/unread", chatHandler.UnreadCountHandler).Methods("GET")
	chatRoutes.HandleFunc("/messages/{id}", chatHandler.EditMessageHandler).Methods("PUT")
	chatRoutes.Handle("/messages/{id}", chatHandler.DeleteMessageHandler()).Methods("DELETE")
	chatRoutes.Handle("/admin/messages", capable(authz.ModerateChat, chatHandler.AdminListMessagesHandler)).Methods("GET")
	chatRoutes.Handle("/admin/messages/{id}/hide", capable(authz.ModerateChat, chatHandler.HideMessageHandler())).Methods("POST")

	// Resource routes
	resourceRoutes := api.PathPrefix("/resources").Subrouter()
	resourceRoutes.Use(authenticated, lastActive)
	resourceRoutes.Handle("/admin/list", capable(authz.ModerateResources, resourceHandler.AdminListResourcesHandler)).Methods("GET")
	resourceRoutes.Handle("/admin/analytics", admin(resourceHandler.AnalyticsHandler)).Methods("GET")
	resourceRoutes.Handle("/admin/{id}/hide", capable(authz.ModerateResources, resourceHandler.HideResourceHandler())).Methods("POST")
	resourceRoutes.HandleFunc("/group/{groupId}", resourceHandler.AddResourceHandler).Methods("POST")
	resourceRoutes.HandleFunc("/group/{groupId}", resourceHandler.GroupResourcesHandler).Methods("GET")
	resourceRoutes.HandleFunc("/{id}", resourceHandler.ViewResourceHandler).Methods("GET")
	resourceRoutes.HandleFunc("/{id}", resourceHandler.UpdateResourceHandler).Methods("PUT")
	resourceRoutes.Handle("/{id}", resourceHandler.DeleteResourceHandler()).Methods("DELETE")

	// Resource group routes (admin)
	resourceGroupRoutes := api.PathPrefix("/resource-groups").Subrouter()
	resourceGroupRoutes.Use(authenticated, middleware.RequireCapability(authz.ModerateResources))
	resourceGroupRoutes.HandleFunc("", resourceGroupHandler.CreateHandler).Methods("POST")
	resourceGroupRoutes.HandleFunc("", resourceGroupHandler.ListHandler).Methods("GET")
	resourceGroupRoutes.HandleFunc("/{id}", resourceGroupHandler.GetHandler).Methods("GET")
	resourceGroupRoutes.HandleFunc("/{id}", resourceGroupHandler.UpdateHandler).Methods("PUT")
	resourceGroupRoutes.HandleFunc("/{id}", resourceGroupHandler.DeleteHandler).Methods("DELETE")
	resourceGroupRoutes.Handle("/{id}/resources/{resourceId}", resourceGroupHandler.AddResourceHandler()).Methods("POST")
	resourceGroupRoutes.Handle("/{id}/resources/{resourceId}", resourceGroupHandler.RemoveResourceHandler()).Methods("DELETE")
	resourceGroupRoutes.Handle("/{id}/groups/{groupId}", resourceGroupHandler.LinkGroupHandler()).Methods("POST")
	resourceGroupRoutes.Handle("/{id}/groups/{groupId}", resourceGroupHandler.UnlinkGroupHandler()).Methods("DELETE")

	// Resource request routes
	requestRoutes := api.PathPrefix("/resource-requests").Subrouter()
	requestRoutes.Use(authenticated, lastActive)
	requestRoutes.HandleFunc("", requestHandler.CreateRequestHandler).Methods("POST")
	requestRoutes.HandleFunc("", requestHandler.ListRequestsHandler).Methods("GET")
	requestRoutes.HandleFunc("/mine", requestHandler.MyRequestsHandler).Methods("GET")
	requestRoutes.Handle("/admin/list", capable(authz.ModerateRequests, requestHandler.ListRequestsHandler)).Methods("GET")
	requestRoutes.Handle("/admin/stats", capable(authz.ModerateRequests, requestHandler.StatsHandler)).Methods("GET")
	requestRoutes.HandleFunc("/{id}", requestHandler.GetRequestHandler).Methods("GET")
	requestRoutes.HandleFunc("/{id}", requestHandler.UpdateRequestHandler).Methods("PUT")
	requestRoutes.Handle("/{id}", requestHandler.DeleteRequestHandler()).Methods("DELETE")
	requestRoutes.HandleFunc("/{id}/respond", requestHandler.RespondHandler).Methods("POST")
	requestRoutes.Handle("/{id}/fulfill", requestHandler.FulfillHandler()).Methods("POST")
	requestRoutes.Handle("/{id}/reopen", requestHandler.ReopenHandler()).Methods("POST")
	requestRoutes.Handle("/{id}/close", requestHandler.CloseHandler()).Methods("POST")

	// Report routes
	reportRoutes := api.PathPrefix("/reports").Subrouter()
	reportRoutes.Use(authenticated, lastActive)
	reportRoutes.HandleFunc("", reportHandler.CreateReportHandler).Methods("POST")
	reportRoutes.HandleFunc("/mine", reportHandler.MyReportsHandler).Methods("GET")
	reportRoutes.Handle("", capable(authz.ReviewReports, reportHandler.ListReportsHandler)).Methods("GET")
	reportRoutes.Handle("/admin/stats", capable(authz.ReviewReports, reportHandler.StatsHandler)).Methods("GET")
	reportRoutes.Handle("/bulk/status", capable(authz.ReviewReports, reportHandler.BulkUpdateStatusHandler)).Methods("PATCH")
	reportRoutes.Handle("/{id}", capable(authz.ReviewReports, reportHandler.GetReportHandler)).Methods("GET")
	reportRoutes.Handle("/{id}", capable(authz.ReviewReports, reportHandler.DeleteReportHandler())).Methods("DELETE")
	reportRoutes.Handle("/{id}/status", capable(authz.ReviewReports, reportHandler.UpdateStatusHandler)).Methods("PATCH")
	reportRoutes.Handle("/{id}/action", capable(authz.ReviewReports, reportHandler.TakeActionHandler)).Methods("POST")

	// Notification routes
	notificationRoutes := api.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(authenticated, lastActive)
	notificationRoutes.HandleFunc("", notificationHandler.GetUserNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/unread-count", notificationHandler.UnreadCountHandler).Methods("GET")
	notificationRoutes.HandleFunc("/read-all", notificationHandler.MarkAllAsReadHandler).Methods("PATCH")
	notificationRoutes.HandleFunc("/read", notificationHandler.DeleteReadHandler).Methods("DELETE")
	notificationRoutes.HandleFunc("/preferences", notificationHandler.GetPreferencesHandler).Methods("GET")
	notificationRoutes.HandleFunc("/preferences", notificationHandler.UpdatePreferencesHandler).Methods("PUT")
	notificationRoutes.Handle("/admin/send", admin(notificationHandler.AdminSendHandler)).Methods("POST")
	notificationRoutes.Handle("/admin/broadcast", admin(notificationHandler.AdminBroadcastHandler)).Methods("POST")
	notificationRoutes.Handle("/admin/stats", admin(notificationHandler.AdminStatsHandler)).Methods("GET")
	notificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkAsReadHandler).Methods("PATCH")
	notificationRoutes.HandleFunc("/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")

	// Feedback routes: public create, admin review
	feedbackRoutes := api.PathPrefix("/feedback").Subrouter()
	feedbackRoutes.Handle("", middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)(
		middleware.OptionalAuth(cfg.JWTSecret)(http.HandlerFunc(feedbackHandler.CreateFeedbackHandler)))).Methods("POST")
	feedbackRoutes.Handle("", authenticated(admin(feedbackHandler.ListFeedbackHandler))).Methods("GET")
	feedbackRoutes.Handle("/{id}", authenticated(admin(feedbackHandler.GetFeedbackHandler))).Methods("GET")
	feedbackRoutes.Handle("/{id}", authenticated(admin(feedbackHandler.UpdateFeedbackHandler))).Methods("PUT")
	feedbackRoutes.Handle("/{id}", authenticated(admin(feedbackHandler.DeleteFeedbackHandler))).Methods("DELETE")

	// Activity log and analytics routes
	activityRoutes := api.PathPrefix("/activity-logs").Subrouter()
	activityRoutes.Use(authenticated, lastActive)
	activityRoutes.HandleFunc("/me", activityHandler.MyActivityHandler).Methods("GET")
	activityRoutes.Handle("", admin(activityHandler.ListActivityHandler)).Methods("GET")

	analyticsRoutes := api.PathPrefix("/analytics").Subrouter()
	analyticsRoutes.Use(authenticated, middleware.RequireAdmin())
	analyticsRoutes.HandleFunc("/overview", activityHandler.OverviewHandler).Methods("GET")

	// Scheduled jobs
	sched, err := scheduler.New(
		scheduler.Entry{Spec: cfg.ReminderSchedule, Job: jobs.NewSessionReminder(sessionService, cfg.ReminderLead)},
		scheduler.Entry{Spec: cleanupSchedule, Job: jobs.NewNotificationCleanup(notificationService)},
	)
	if err != nil {
		logger.Log.WithError(err).Fatal("Scheduler setup failed")
	}
	sched.Start()

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.WithField("port", cfg.Port).Info("Server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	hub.Close()
	sched.Stop(shutdownCtx)
	if err := db.Client().Disconnect(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("MongoDB disconnect failed")
	}
	logger.Log.Info("Server stopped")
}
