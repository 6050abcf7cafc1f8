package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"photobooth-backend/internal/config"
	"photobooth-backend/internal/database"
	"photobooth-backend/internal/handlers"
	"photobooth-backend/internal/leonardo"
	"photobooth-backend/internal/logger"
	"photobooth-backend/internal/middleware"
	"photobooth-backend/internal/services"
	"photobooth-backend/internal/supabase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(os.Getenv("ENVIRONMENT"))
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.Environment)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	// Run migrations before serving
	migrator, err := database.NewMigrator(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize migrator")
	}
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	if err := migrator.Run(migrateCtx); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	cancelMigrate()
	migrator.Close()

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database client")
	}
	defer dbClient.Close()

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize supabase client")
	}
	storageClient := supabase.NewStorageClient(supabaseClient, cfg.SupabaseStorageBucket)
	realtimeClient := supabase.NewRealtimeClient(dbClient.DB())

	leonardoClient := leonardo.NewClient(leonardo.Options{
		BaseURL: cfg.LeonardoBaseURL,
		APIKey:  cfg.LeonardoAPIKey,
		ModelID: cfg.LeonardoModelID,
		Timeout: cfg.LeonardoTimeout,
	})

	settings := generationSettings(cfg)
	generationService := services.NewGenerationService(
		leonardoClient,
		dbClient,
		storageClient,
		realtimeClient,
		settings,
		log,
	)
	// generate blocks until every style finishes; the slack covers storage
	// and database writes
	maxRun := settings.MaxRunDuration(cfg.LeonardoTimeout) + time.Minute

	router := newRouter(cfg, log, dbClient, storageClient, generationService)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      maxRun,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), maxRun)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server")
	}
	log.Info().Msg("server stopped")
}

func generationSettings(cfg *config.Config) services.GenerationSettings {
	settings := services.DefaultGenerationSettings()
	settings.PollInterval = cfg.PollInterval
	settings.MaxPollWait = cfg.MaxPollWait
	settings.DownloadRetries = cfg.ResultDownloadRetries
	settings.SignedURLTTL = cfg.SignedURLTTL
	return settings
}

func newRouter(
	cfg *config.Config,
	log zerolog.Logger,
	store handlers.Store,
	storage handlers.ObjectStorage,
	generator handlers.StyleGenerator,
) *gin.Engine {
	opts := handlers.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		SignedURLTTL:   cfg.SignedURLTTL,
		ShareTTL:       cfg.ShareTTL,
		ShareBaseURL:   cfg.ShareBaseURL,
	}
	eventsHandler := handlers.NewEventsHandler(store, storage, opts, log)
	sessionsHandler := handlers.NewSessionsHandler(store, storage, opts, log)
	sharesHandler := handlers.NewSharesHandler(store, storage, opts, log)
	generateHandler := handlers.NewGenerateHandler(generator, opts, log)

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes + 1<<20
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// Share links are opened by guests (no auth)
	router.GET("/api/v1/shares/:token", sharesHandler.ResolveShare)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Events
	api.POST("/events", eventsHandler.CreateEvent)
	api.GET("/events", eventsHandler.ListEvents)
	api.GET("/events/:event_id", eventsHandler.GetEvent)
	api.DELETE("/events/:event_id", eventsHandler.DeleteEvent)
	api.POST("/events/:event_id/logo", eventsHandler.UploadLogo)

	// Sessions and shares
	api.POST("/events/:event_id/sessions", sessionsHandler.CreateSession)
	api.GET("/sessions/:session_id", sessionsHandler.GetSession)
	api.POST("/sessions/:session_id/shares", sharesHandler.CreateShare)

	// Styled generation
	api.POST("/generate", generateHandler.Generate)

	return router
}
