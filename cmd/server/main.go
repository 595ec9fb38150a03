package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/n8nhub/community_hub/internal/config"
	"github.com/n8nhub/community_hub/internal/database"
	"github.com/n8nhub/community_hub/internal/handlers"
	"github.com/n8nhub/community_hub/internal/jobs"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/repository"
	"github.com/n8nhub/community_hub/internal/scheduler"
	"github.com/n8nhub/community_hub/internal/services"
	"github.com/n8nhub/community_hub/pkg/email"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/middleware"
	"github.com/n8nhub/community_hub/pkg/storage"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Database connection error")
	}

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(indexCtx, db); err != nil {
		logger.Log.WithError(err).Fatal("Failed to create indexes")
	}
	cancelIndexes()

	// Media uploads stay disabled until a bucket is configured.
	var uploader storage.Uploader
	if cfg.Storage.Endpoint != "" {
		s3, err := storage.NewS3Storage(context.Background(), storage.Options{
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			logger.Log.WithError(err).Fatal("Storage initialization error")
		}
		uploader = s3
	} else {
		logger.Log.Warn("STORAGE_ENDPOINT not set, media uploads are disabled")
	}

	mailer := email.NewSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Sender, cfg.SMTP.Password)

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	objectiveRepo := repository.NewObjectiveRepository(db)
	gamificationRepo := repository.NewGamificationRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	promptRepo := repository.NewPromptRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	mentorshipRepo := repository.NewMentorshipRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// --- Services ---
	notificationService := services.NewNotificationService(notificationRepo)
	activityService := services.NewActivityService(activityRepo, cfg.ActivityRetention)
	userService := services.NewUserService(userRepo, mailer, cfg.AppURL)
	mentorshipService := services.NewMentorshipService(mentorshipRepo, userRepo, userService, activityService, notificationService, mailer, cfg.AppURL)
	roleService := services.NewRoleService(roleRepo, mentorshipService, cfg.CacheSize)
	gamificationService := services.NewGamificationService(gamificationRepo, courseRepo, progressRepo, userService, notificationService)
	gamificationService.SetDayLocation(cfg.Location)
	objectiveService := services.NewObjectiveService(objectiveRepo)
	challengeService := services.NewChallengeService(challengeRepo, progressRepo, gamificationService, activityService, objectiveService, cfg.ChallengeWindow)
	courseService := services.NewCourseService(courseRepo, gamificationService, activityService)
	libraryService := services.NewLibraryService(templateRepo, promptRepo, favoriteRepo, uploader)
	noteService := services.NewNoteService(noteRepo, uploader)
	dashboardService := services.NewDashboardService(dashboardRepo, gamificationService, challengeService, courseService, activityService)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, roleService, cfg)
	roleHandler := handlers.NewRoleHandler(roleService)
	courseHandler := handlers.NewCourseHandler(courseService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	objectiveHandler := handlers.NewObjectiveHandler(objectiveService)
	gamificationHandler := handlers.NewGamificationHandler(gamificationService)
	libraryHandler := handlers.NewLibraryHandler(libraryService)
	noteHandler := handlers.NewNoteHandler(noteService)
	mentorshipHandler := handlers.NewMentorshipHandler(mentorshipService, roleService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, activityService)
	countdownHandler := handlers.NewCountdownHandler(challengeService, cfg.JWTSecret, cfg.AllowedOrigins)

	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	// Public auth routes, rate limited per client address
	authRoutes := router.PathPrefix("/auth").Subrouter()
	authRoutes.Use(authLimiter.Middleware)
	authRoutes.HandleFunc("/register", userHandler.RegisterHandler).Methods("POST")
	authRoutes.HandleFunc("/login", userHandler.LoginHandler).Methods("POST")
	authRoutes.HandleFunc("/request-password-reset", userHandler.RequestPasswordResetHandler).Methods("POST")
	authRoutes.HandleFunc("/reset-password", userHandler.ResetPasswordHandler).Methods("POST")

	// The browser cannot send headers on a websocket, so the token comes in the query.
	router.HandleFunc("/ws/challenges/{id}/countdown", countdownHandler.CountdownWebSocketHandler)

	// protected returns a subrouter for prefix that requires a valid token.
	protected := func(prefix string) *mux.Router {
		s := router.PathPrefix(prefix).Subrouter()
		s.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		s.Use(middleware.UpdateLastActiveMiddleware(userService))
		return s
	}

	userRoutes := protected("/users")
	userRoutes.HandleFunc("/me", userHandler.MeHandler).Methods("GET")
	userRoutes.HandleFunc("/me", userHandler.UpdateProfileHandler).Methods("PATCH")
	userRoutes.HandleFunc("/me/password", userHandler.ChangePasswordHandler).Methods("POST")

	courseRoutes := protected("/courses")
	courseRoutes.HandleFunc("/modules", courseHandler.ListModulesHandler).Methods("GET")
	courseRoutes.HandleFunc("/modules/{id}", courseHandler.GetModuleHandler).Methods("GET")
	courseRoutes.HandleFunc("/lessons/{id}", courseHandler.GetLessonHandler).Methods("GET")
	courseRoutes.HandleFunc("/lessons/{id}/complete", courseHandler.CompleteLessonHandler).Methods("POST")

	// Fixed segments go before /{id}.
	challengeRoutes := protected("/challenges")
	challengeRoutes.HandleFunc("/tracks", challengeHandler.TracksHandler).Methods("GET")
	challengeRoutes.HandleFunc("/tracks/{track}", challengeHandler.TrackHandler).Methods("GET")
	challengeRoutes.HandleFunc("/progress", challengeHandler.ProgressHandler).Methods("GET")
	challengeRoutes.HandleFunc("/recommended", challengeHandler.RecommendedHandler).Methods("GET")
	challengeRoutes.HandleFunc("/{id}", challengeHandler.GetChallengeHandler).Methods("GET")
	challengeRoutes.HandleFunc("/{id}/attempt", challengeHandler.AttemptHandler).Methods("GET")
	challengeRoutes.HandleFunc("/{id}/start", challengeHandler.StartHandler).Methods("POST")
	challengeRoutes.HandleFunc("/{id}/complete", challengeHandler.CompleteHandler).Methods("POST")

	objectiveRoutes := protected("/objectives")
	objectiveRoutes.HandleFunc("/catalog", objectiveHandler.CatalogHandler).Methods("GET")
	objectiveRoutes.HandleFunc("/me", objectiveHandler.SelectionHandler).Methods("GET")
	objectiveRoutes.HandleFunc("/me", objectiveHandler.SaveHandler).Methods("PUT")
	objectiveRoutes.HandleFunc("/me/toggle", objectiveHandler.ToggleHandler).Methods("POST")

	gamificationRoutes := protected("/gamification")
	gamificationRoutes.HandleFunc("/me", gamificationHandler.SummaryHandler).Methods("GET")
	gamificationRoutes.HandleFunc("/me/badges", gamificationHandler.MyBadgesHandler).Methods("GET")
	gamificationRoutes.HandleFunc("/leaderboard", gamificationHandler.LeaderboardHandler).Methods("GET")
	gamificationRoutes.HandleFunc("/badges", gamificationHandler.BadgesHandler).Methods("GET")

	templateRoutes := protected("/templates")
	templateRoutes.HandleFunc("", libraryHandler.ListTemplatesHandler).Methods("GET")
	templateRoutes.HandleFunc("/{id}", libraryHandler.GetTemplateHandler).Methods("GET")
	templateRoutes.HandleFunc("/{id}/copy", libraryHandler.CopyTemplateHandler).Methods("POST")

	promptRoutes := protected("/prompts")
	promptRoutes.HandleFunc("", libraryHandler.ListPromptsHandler).Methods("GET")
	promptRoutes.HandleFunc("/{id}", libraryHandler.GetPromptHandler).Methods("GET")

	favoriteRoutes := protected("/favorites")
	favoriteRoutes.HandleFunc("", libraryHandler.FavoritesHandler).Methods("GET")
	favoriteRoutes.HandleFunc("/toggle", libraryHandler.ToggleFavoriteHandler).Methods("POST")

	noteRoutes := protected("/notes")
	noteRoutes.HandleFunc("", noteHandler.ListNotesHandler).Methods("GET")
	noteRoutes.HandleFunc("", noteHandler.CreateNoteHandler).Methods("POST")
	noteRoutes.HandleFunc("/{id}", noteHandler.GetNoteHandler).Methods("GET")
	noteRoutes.HandleFunc("/{id}", noteHandler.UpdateNoteHandler).Methods("PATCH")
	noteRoutes.HandleFunc("/{id}", noteHandler.DeleteNoteHandler).Methods("DELETE")
	noteRoutes.HandleFunc("/{id}/media", noteHandler.UploadMediaHandler).Methods("POST")
	noteRoutes.HandleFunc("/{id}/media", noteHandler.RemoveMediaHandler).Methods("DELETE")

	mentorshipRoutes := protected("/mentorship")
	mentorshipRoutes.HandleFunc("/me", mentorshipHandler.MyMentorshipHandler).Methods("GET")
	mentorshipRoutes.HandleFunc("/me/todos/{todoId}", mentorshipHandler.SetMyTodoDoneHandler).Methods("PATCH")

	notificationRoutes := protected("/notifications")
	notificationRoutes.HandleFunc("", notificationHandler.GetUserNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/read-all", notificationHandler.MarkAllAsReadHandler).Methods("POST")
	notificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkAsReadHandler).Methods("POST")
	notificationRoutes.HandleFunc("/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")

	dashboardRoutes := protected("/dashboard")
	dashboardRoutes.HandleFunc("", dashboardHandler.SummaryHandler).Methods("GET")
	dashboardRoutes.HandleFunc("/banners", dashboardHandler.BannersHandler).Methods("GET")
	dashboardRoutes.HandleFunc("/sidebar", dashboardHandler.SidebarHandler).Methods("GET")

	activityRoutes := protected("/activities")
	activityRoutes.HandleFunc("", dashboardHandler.ActivitiesHandler).Methods("GET")

	// Mentor area: challenge catalog and mentees
	manageRoutes := protected("/manage")
	manageRoutes.Use(middleware.RequireRole(roleService, models.RoleAdmin, models.RoleMentor))
	manageRoutes.HandleFunc("/challenges", challengeHandler.ListChallengesHandler).Methods("GET")
	manageRoutes.HandleFunc("/challenges", challengeHandler.CreateChallengeHandler).Methods("POST")
	manageRoutes.HandleFunc("/challenges/{id}", challengeHandler.UpdateChallengeHandler).Methods("PUT")
	manageRoutes.HandleFunc("/challenges/{id}/link", challengeHandler.UpdateLinkHandler).Methods("PUT")
	manageRoutes.HandleFunc("/challenges/{id}", challengeHandler.DeleteChallengeHandler).Methods("DELETE")
	manageRoutes.HandleFunc("/mentees", mentorshipHandler.ListMenteesHandler).Methods("GET")
	manageRoutes.HandleFunc("/mentees/{id}", mentorshipHandler.GetMenteeHandler).Methods("GET")
	manageRoutes.HandleFunc("/mentees/{id}", mentorshipHandler.UpdateMenteeHandler).Methods("PATCH")
	manageRoutes.HandleFunc("/mentees/{id}/activity", mentorshipHandler.ActivityHandler).Methods("GET")
	manageRoutes.HandleFunc("/mentees/{id}/stages", mentorshipHandler.AddStageHandler).Methods("POST")
	manageRoutes.HandleFunc("/mentees/{id}/stages/{stageId}", mentorshipHandler.DeleteStageHandler).Methods("DELETE")
	manageRoutes.HandleFunc("/mentees/{id}/tasks", mentorshipHandler.AddTaskHandler).Methods("POST")
	manageRoutes.HandleFunc("/mentees/{id}/tasks/{taskId}", mentorshipHandler.SetTaskDoneHandler).Methods("PATCH")
	manageRoutes.HandleFunc("/mentees/{id}/tasks/{taskId}", mentorshipHandler.DeleteTaskHandler).Methods("DELETE")
	manageRoutes.HandleFunc("/mentees/{id}/notes", mentorshipHandler.AddNoteHandler).Methods("POST")
	manageRoutes.HandleFunc("/mentees/{id}/notes/{noteId}", mentorshipHandler.DeleteNoteHandler).Methods("DELETE")
	manageRoutes.HandleFunc("/mentees/{id}/todos", mentorshipHandler.AddTodoHandler).Methods("POST")
	manageRoutes.HandleFunc("/mentees/{id}/todos/{todoId}", mentorshipHandler.SetTodoDoneHandler).Methods("PATCH")
	manageRoutes.HandleFunc("/mentees/{id}/todos/{todoId}", mentorshipHandler.DeleteTodoHandler).Methods("DELETE")

	// Admin routes
	adminRoutes := protected("/admin")
	adminRoutes.Use(middleware.RequireRole(roleService, models.RoleAdmin))
	adminRoutes.HandleFunc("/users", userHandler.AdminListUsersHandler).Methods("GET")
	adminRoutes.HandleFunc("/users/{id}/roles", roleHandler.GetRolesHandler).Methods("GET")
	adminRoutes.HandleFunc("/users/{id}/roles", roleHandler.GrantHandler).Methods("POST")
	adminRoutes.HandleFunc("/users/{id}/roles/history", roleHandler.HistoryHandler).Methods("GET")
	adminRoutes.HandleFunc("/users/{id}/roles/{role}", roleHandler.RevokeHandler).Methods("DELETE")
	adminRoutes.HandleFunc("/roles/{role}/users", roleHandler.UsersWithRoleHandler).Methods("GET")

	adminRoutes.HandleFunc("/courses/modules", courseHandler.AdminListModulesHandler).Methods("GET")
	adminRoutes.HandleFunc("/courses/modules", courseHandler.CreateModuleHandler).Methods("POST")
	adminRoutes.HandleFunc("/courses/modules/{id}", courseHandler.AdminGetModuleHandler).Methods("GET")
	adminRoutes.HandleFunc("/courses/modules/{id}", courseHandler.UpdateModuleHandler).Methods("PUT")
	adminRoutes.HandleFunc("/courses/modules/{id}", courseHandler.DeleteModuleHandler).Methods("DELETE")
	adminRoutes.HandleFunc("/courses/lessons", courseHandler.CreateLessonHandler).Methods("POST")
	adminRoutes.HandleFunc("/courses/lessons/{id}", courseHandler.AdminGetLessonHandler).Methods("GET")
	adminRoutes.HandleFunc("/courses/lessons/{id}", courseHandler.UpdateLessonHandler).Methods("PUT")
	adminRoutes.HandleFunc("/courses/lessons/{id}", courseHandler.DeleteLessonHandler).Methods("DELETE")

	adminRoutes.HandleFunc("/objectives/groups", objectiveHandler.UpsertGroupHandler).Methods("PUT")
	adminRoutes.HandleFunc("/objectives/items", objectiveHandler.UpsertItemHandler).Methods("PUT")
	adminRoutes.HandleFunc("/objectives/links", objectiveHandler.LinksHandler).Methods("GET")
	adminRoutes.HandleFunc("/objectives/links", objectiveHandler.LinkHandler).Methods("POST")
	adminRoutes.HandleFunc("/objectives/links/{key}/{challengeId}", objectiveHandler.UnlinkHandler).Methods("DELETE")

	adminRoutes.HandleFunc("/badges", gamificationHandler.AdminBadgesHandler).Methods("GET")
	adminRoutes.HandleFunc("/badges", gamificationHandler.CreateBadgeHandler).Methods("POST")
	adminRoutes.HandleFunc("/badges/{id}", gamificationHandler.UpdateBadgeHandler).Methods("PUT")
	adminRoutes.HandleFunc("/badges/{id}", gamificationHandler.DeleteBadgeHandler).Methods("DELETE")

	adminRoutes.HandleFunc("/templates", libraryHandler.AdminListTemplatesHandler).Methods("GET")
	adminRoutes.HandleFunc("/templates", libraryHandler.CreateTemplateHandler).Methods("POST")
	adminRoutes.HandleFunc("/templates/{id}", libraryHandler.AdminGetTemplateHandler).Methods("GET")
	adminRoutes.HandleFunc("/templates/{id}", libraryHandler.UpdateTemplateHandler).Methods("PUT")
	adminRoutes.HandleFunc("/templates/{id}", libraryHandler.DeleteTemplateHandler).Methods("DELETE")
	adminRoutes.HandleFunc("/prompts", libraryHandler.AdminListPromptsHandler).Methods("GET")
	adminRoutes.HandleFunc("/prompts", libraryHandler.CreatePromptHandler).Methods("POST")
	adminRoutes.HandleFunc("/prompts/{id}", libraryHandler.AdminGetPromptHandler).Methods("GET")
	adminRoutes.HandleFunc("/prompts/{id}", libraryHandler.UpdatePromptHandler).Methods("PUT")
	adminRoutes.HandleFunc("/prompts/{id}", libraryHandler.DeletePromptHandler).Methods("DELETE")
	adminRoutes.HandleFunc("/prompts/{id}/variations/{variationId}/media", libraryHandler.UploadVariationMediaHandler).Methods("POST")

	adminRoutes.HandleFunc("/banners", dashboardHandler.AdminBannersHandler).Methods("GET")
	adminRoutes.HandleFunc("/banners", dashboardHandler.CreateBannerHandler).Methods("POST")
	adminRoutes.HandleFunc("/banners/{id}", dashboardHandler.UpdateBannerHandler).Methods("PUT")
	adminRoutes.HandleFunc("/banners/{id}", dashboardHandler.DeleteBannerHandler).Methods("DELETE")
	adminRoutes.HandleFunc("/sidebar", dashboardHandler.AdminSidebarHandler).Methods("GET")
	adminRoutes.HandleFunc("/sidebar", dashboardHandler.SaveSidebarHandler).Methods("PUT")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// --- Scheduled jobs ---
	deadlineNotifier := jobs.NewChallengeDeadlineNotifier(progressRepo, challengeRepo, notificationService, cfg.DeadlineWarning)
	cronJobs := scheduler.StartCronJobs(scheduler.Jobs{
		Deadlines:     deadlineNotifier,
		Streaks:       gamificationService,
		Notifications: notificationService,
		Activities:    activityService,
		Sweep:         authLimiter.Cleanup,
		Location:      cfg.Location,
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
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
			logger.Log.WithError(err).Fatal("Server error")
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	<-cronJobs.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}
	if err := db.Client().Disconnect(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Failed to disconnect from MongoDB")
	}
}
