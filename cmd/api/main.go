package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/tirestore_api/internal/cache"
	"github.com/GTDGit/tirestore_api/internal/category"
	"github.com/GTDGit/tirestore_api/internal/config"
	"github.com/GTDGit/tirestore_api/internal/database"
	"github.com/GTDGit/tirestore_api/internal/handler"
	"github.com/GTDGit/tirestore_api/internal/middleware"
	"github.com/GTDGit/tirestore_api/internal/repository"
	"github.com/GTDGit/tirestore_api/internal/service"
	"github.com/GTDGit/tirestore_api/internal/sse"
	"github.com/GTDGit/tirestore_api/internal/utils"
	"github.com/GTDGit/tirestore_api/internal/worker"
)

// main is the application entrypoint for the tire store admin API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting tirestore api")
	utils.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := database.Migrate(db.DB, cfg.MigrationsPath); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Initialize repositories
	catalogRepo := repository.NewCatalogRepository(db)
	legacyRepo := repository.NewLegacyTireRepository(db)
	runRepo := repository.NewSyncRunRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 5. Initialize SSE hub
	sseHub := sse.NewHub()

	// 6. Initialize services
	categories := category.NewTable()
	syncSvc := service.NewTireSyncService(catalogRepo, legacyRepo, runRepo, cfg.Sync)
	syncSvc.SetCategoryMapper(categories)
	syncSvc.SetNotifier(sse.NewHubNotifier(sseHub))
	syncSvc.SetStatusCache(cache.NewSyncStatusCache(redisClient, cfg.Sync.StatusCacheTTL))
	catalogSvc := service.NewCatalogImportService(catalogRepo, categories)
	adminAuthSvc := service.NewAdminAuthService(adminRepo)

	// 7. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 8. Initialize handlers
	handlers := &handler.Handlers{
		Health:  handler.NewHealthHandler(db, redisClient),
		Auth:    handler.NewAuthHandler(adminAuthSvc, middleware.NewInvalidAuthRateLimiter(ctx, 5, time.Minute)),
		Sync:    handler.NewSyncHandler(syncSvc),
		Catalog: handler.NewCatalogHandler(catalogSvc),
		SSE:     handler.NewSSEHandler(sseHub),
	}

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.LoggingMiddleware())
	handler.SetupRoutes(router, handlers, middleware.NewJWTMiddleware())

	// 10. Start workers
	if cfg.Sync.Interval > 0 {
		opts := service.SyncOptions{BatchSize: cfg.Sync.BatchSize, TiresOnly: cfg.Sync.TiresOnly}
		go worker.NewTireSyncWorker(syncSvc, cfg.Sync.Interval, opts).Start(ctx)
	} else {
		log.Info().Msg("periodic legacy tire sync disabled (SYNC_INTERVAL=0)")
	}

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers; an in-flight sync stops at its next batch boundary
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
