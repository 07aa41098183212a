package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/rmoh-git/kwik-med-emr-backend/pkg/validator"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/adapter/handler"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/adapter/repository"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/infrastructure/cache"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/infrastructure/database"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/infrastructure/storage"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/usecase/recording"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/usecase/transcription"
	pkgai "github.com/rmoh-git/kwik-med-emr-backend/pkg/ai"
	"github.com/rmoh-git/kwik-med-emr-backend/pkg/config"
	"github.com/rmoh-git/kwik-med-emr-backend/pkg/metrics"
)

// @title           KwikMed EMR Consultation Audio API
// @version         1.0
// @description     API for consultation audio capture, multi-provider transcription and speaker diarization

// @contact.name   API Support
// @contact.email  support@kwikmed.rw

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run AutoMigrate only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Running GORM AutoMigrate (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run AutoMigrate: %v", err)
		}
	} else {
		log.Println("🔄 Applying sql-migrate migrations...")
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	}

	// Initialize Redis
	log.Println("📦 Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize MinIO object storage
	log.Println("🪣 Connecting to object storage...")
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	recordingRepo := repository.NewRecordingRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Initialize transcription providers and router
	log.Println("🤖 Initializing transcription providers...")
	asmClient := pkgai.NewAssemblyAIClient(&cfg.AssemblyAI, logger)
	whisperClient := pkgai.NewWhisperClient(&cfg.OpenAI, logger)
	pindoClient := pkgai.NewPindoClient(&cfg.Pindo, logger)
	translator := pkgai.NewTranslator(&cfg.OpenAI, logger)

	appMetrics := metrics.New()

	router := transcription.NewRouter(cfg.Transcription.ProviderTimeout, appMetrics, logger)
	router.Register(entities.LanguageEnglish, asmClient, whisperClient)
	router.Register(entities.LanguageFrench, asmClient, whisperClient)
	router.Register(entities.LanguageSwahili, asmClient, whisperClient)
	router.Register(entities.LanguageKinyarwanda, pindoClient)

	// Initialize recording service
	log.Println("🎙️  Initializing recording service...")
	recordingService := recording.NewService(
		recordingRepo,
		sessionRepo,
		minioClient,
		router,
		translator,
		redisClient,
		appMetrics,
		&cfg.Transcription,
		cfg.Storage.PresignExpiry,
		logger,
	)

	// Start background transcription workers
	log.Println("👷 Starting transcription worker pool...")
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if err := recordingService.StartWorkerPool(workerCtx, cfg.Transcription.Workers); err != nil {
		log.Fatalf("Failed to start worker pool: %v", err)
	}

	// Initialize recording handler
	recordingHandler := handler.NewRecordingHandler(recordingService, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	appRouter := handler.NewRouter(cfg, recordingHandler)
	appRouter.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	if err := recordingService.StopWorkerPool(); err != nil {
		log.Printf("⚠️  Worker pool shutdown error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
