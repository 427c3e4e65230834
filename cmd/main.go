package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cinefeed/cinefeed-backend/internal/clients/redis"
	"github.com/cinefeed/cinefeed-backend/internal/db"
	"github.com/cinefeed/cinefeed-backend/internal/handlers"
	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/middleware"
	"github.com/cinefeed/cinefeed-backend/internal/observability"
	"github.com/cinefeed/cinefeed-backend/internal/server"
	"github.com/cinefeed/cinefeed-backend/internal/services"
	"github.com/cinefeed/cinefeed-backend/internal/utils"

	"github.com/cinefeed/cinefeed-backend/internal/repos"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	serviceName := utils.GetEnv("SERVICE_NAME", "cinefeed-backend", log)
	environment := utils.GetEnv("ENVIRONMENT", "development", log)

	// Tracing
	ctx := context.Background()
	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: environment,
	})
	if shutdownTracing != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				log.Warn("Tracing shutdown failed", "error", err)
			}
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Redis (optional, shared job dedup)
	rdb, err := redis.NewClient(log)
	if err != nil {
		log.Warn("Redis init failed, falling back to in-process dedup", "error", err)
		rdb = nil
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	movieRepo := repos.NewMovieRepo(thePG, log)
	userEventRepo := repos.NewUserEventRepo(thePG, log)
	reactionRepo := repos.NewUserItemReactionRepo(thePG, log)
	userProfileRepo := repos.NewUserProfileRepo(thePG, log)
	watchlistRepo := repos.NewWatchlistItemRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	aggregationService := services.NewProfileAggregationService(
		thePG,
		log,
		services.DefaultAggregationConfig(),
		userEventRepo,
		reactionRepo,
		watchlistRepo,
		movieRepo,
		userProfileRepo,
	)
	profileQueue := services.NewProfileQueue(log, aggregationService, rdb)
	profileQueue.StartWorker(ctx)
	eventService := services.NewEventService(thePG, log, userEventRepo, profileQueue)
	reactionService := services.NewReactionService(thePG, log, reactionRepo, eventService)
	watchlistService := services.NewWatchlistService(thePG, log, watchlistRepo, eventService)
	movieService := services.NewMovieService(thePG, log, movieRepo)
	userService := services.NewUserService(thePG, log, userRepo, userProfileRepo)
	feedService := services.NewFeedService(
		log,
		services.DefaultFeedConfig(),
		movieRepo,
		userProfileRepo,
		reactionRepo,
		watchlistRepo,
	)
	authService := services.NewAuthService(
		thePG,
		log,
		userRepo,
		userTokenRepo,
		jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)

	// Handlers
	log.Info("Setting up handlers from main...")
	healthcheckHandler := handlers.NewHealthcheckHandler()
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(log, userService, aggregationService)
	movieHandler := handlers.NewMovieHandler(log, movieService)
	eventHandler := handlers.NewEventHandler(log, eventService)
	reactionHandler := handlers.NewReactionHandler(log, reactionService)
	watchlistHandler := handlers.NewWatchlistHandler(log, watchlistService)
	feedHandler := handlers.NewFeedHandler(log, feedService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	var allowOrigins []string
	if raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowOrigins = append(allowOrigins, origin)
			}
		}
	}
	router := server.NewRouter(server.RouterConfig{
		ServiceName:        serviceName,
		AllowOrigins:       allowOrigins,
		AuthMiddleware:     authMiddleware,
		HealthcheckHandler: healthcheckHandler,
		AuthHandler:        authHandler,
		UserHandler:        userHandler,
		MovieHandler:       movieHandler,
		EventHandler:       eventHandler,
		ReactionHandler:    reactionHandler,
		WatchlistHandler:   watchlistHandler,
		FeedHandler:        feedHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
