package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/config"
	"github.com/noah-isme/occ-console-api/internal/database"
	"github.com/noah-isme/occ-console-api/internal/handler"
	"github.com/noah-isme/occ-console-api/internal/middleware"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/repository"
	"github.com/noah-isme/occ-console-api/internal/router"
	"github.com/noah-isme/occ-console-api/internal/service"
	"github.com/noah-isme/occ-console-api/pkg/ai"
	"github.com/noah-isme/occ-console-api/pkg/clock"
	cloud "github.com/noah-isme/occ-console-api/pkg/cloudinary"
	"github.com/noah-isme/occ-console-api/pkg/geo"
	"github.com/noah-isme/occ-console-api/pkg/storage"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	fileStorage, staticDir := newFileStorage(cfg, logger)

	clk := clock.New()
	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	packingListRepo := repository.NewPackingListRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	stateStore := repository.NewChecklistStateStore(redisClient, cfg.ChecklistStateTTL)
	ideaStore := repository.NewIdeaStore(redisClient)
	geocodeCache := repository.NewGeocodeCache(redisClient, cfg.GeoCacheTTL)

	activityConfig := service.ActivityServiceConfig{
		Workers:       cfg.AuditWorkers,
		BufferSize:    cfg.AuditBuffer,
		MaxRetries:    cfg.AuditMaxRetries,
		SubjectPrefix: cfg.NATSSubjectPrefix,
		Clock:         clk,
	}
	if natsConn != nil {
		activityConfig.Publisher = natsConn
	}
	activityService := service.NewActivityService(activityRepo, validate, activityConfig, logger)

	// The audit queue outlives rootCtx so Stop can drain it after shutdown.
	activityService.Start(context.Background())
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	identity := auth.NewLocalIdentity(userRepo, auth.LocalIdentityConfig{
		SessionTTL: cfg.SessionTTL,
		Clock:      clk,
		Logger:     logger,
	})
	go identity.Run(rootCtx, cfg.SessionSweepInterval)

	sessions := auth.NewManager(identity, userRepo, activityService, auth.ManagerConfig{
		OptimisticRole: models.Role(cfg.OptimisticRole),
		ConfirmTimeout: cfg.ConfirmTimeout,
		Clock:          clk,
		Logger:         logger,
	})
	sessions.Start(rootCtx)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL, clk)

	userService := service.NewUserService(userRepo, activityService, validate, sessions, logger)
	if cfg.BootstrapAdminEmail != "" {
		created, err := userService.EnsureBootstrapAdmin(rootCtx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword, cfg.BootstrapAdminName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create bootstrap admin")
		}
		if created {
			logger.Info().Str("email", cfg.BootstrapAdminEmail).Msg("bootstrap admin created")
		}
	}

	checklistService := service.NewChecklistService(packingListRepo, stateStore, completionRepo, activityService, validate,
		service.ChecklistServiceConfig{PruneStaleIDs: cfg.PruneStaleIDs, Clock: clk}, logger)
	completionService := service.NewCompletionService(completionRepo, activityService, validate, logger)
	ideaService := service.NewIdeaService(ideaStore, activityService, validate, clk, logger)
	uploadService := service.NewUploadService(fileStorage, uploadRepo, activityService, cfg.UploadMaxMB, logger)
	assistantService := service.NewAssistantService(newChatCompleter(cfg, logger), validate, cfg.AISystemPrompt, logger)
	distanceService := service.NewDistanceService(geo.New(geo.Config{
		GeocodeURL: cfg.GeoGeocodeURL,
		RouteURL:   cfg.GeoRouteURL,
		UserAgent:  cfg.GeoUserAgent,
		Logger:     logger,
	}), geocodeCache, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:            handler.NewAuthHandler(sessions, tokens, logger),
		ActivityHandler:        handler.NewActivityHandler(activityService, validate, logger),
		AdminActivityHandler:   handler.NewAdminActivityHandler(activityService, logger),
		AdminUserHandler:       handler.NewAdminUserHandler(userService, logger),
		AdminCompletionHandler: handler.NewAdminCompletionHandler(completionService, logger),
		ChecklistHandler:       handler.NewChecklistHandler(checklistService, validate, logger),
		IdeaHandler:            handler.NewIdeaHandler(ideaService, logger),
		UploadHandler:          handler.NewUploadHandler(uploadService, logger),
		AssistantHandler:       handler.NewAssistantHandler(assistantService, logger),
		DistanceHandler:        handler.NewDistanceHandler(distanceService, logger),
		SessionMiddleware:      middleware.SessionAuth(sessions, tokens),
		HealthProbes:           healthProbes(db, redisClient, natsConn),
		StaticDir:              staticDir,
		StaticPrefix:           cfg.StoragePublicBaseURL,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)

	cancelRoot()
	sessions.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := activityService.Stop(ctx); err != nil {
		logger.Warn().Err(err).Msg("audit queue did not drain")
	}
	logger.Info().Msg("server stopped")
}

// newFileStorage prefers Cloudinary and falls back to the local filesystem.
// The returned directory is non-empty only for local storage.
func newFileStorage(cfg config.Config, logger zerolog.Logger) (service.FileStorage, string) {
	cloudCfg := cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}
	if cloudCfg.Enabled() {
		uploader, err := cloud.New(cloudCfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		return uploader, ""
	}

	local, err := storage.NewLocalStorage(cfg.StorageLocalDir, cfg.StoragePublicBaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare local file storage")
	}
	logger.Info().Str("dir", local.BaseDir()).Msg("cloudinary not configured, storing files locally")
	return local, local.BaseDir()
}

func newChatCompleter(cfg config.Config, logger zerolog.Logger) ai.ChatCompleter {
	if cfg.AIAPIKey == "" {
		logger.Warn().Msg("ai api key not configured, assistant disabled")
		return nil
	}
	client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey:  cfg.AIAPIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create ai client")
	}
	return client
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.Probe {
	probes := map[string]handler.Probe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
