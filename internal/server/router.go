package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/cinefeed/cinefeed-backend/internal/handlers"
	"github.com/cinefeed/cinefeed-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName        string
	AllowOrigins       []string
	AuthMiddleware     *middleware.AuthMiddleware
	HealthcheckHandler *handlers.HealthcheckHandler
	AuthHandler        *handlers.AuthHandler
	UserHandler        *handlers.UserHandler
	MovieHandler       *handlers.MovieHandler
	EventHandler       *handlers.EventHandler
	ReactionHandler    *handlers.ReactionHandler
	WatchlistHandler   *handlers.WatchlistHandler
	FeedHandler        *handlers.FeedHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/refresh", cfg.AuthHandler.Refresh)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user/me", cfg.UserHandler.GetMe)
	protected.GET("/user/profile", cfg.UserHandler.GetProfile)
	protected.GET("/user/profile/aggregate", cfg.UserHandler.AggregateProfile)
	// Catalog
	protected.GET("/movies", cfg.MovieHandler.List)
	protected.GET("/movies/:id", cfg.MovieHandler.GetByID)
	// Reactions
	protected.GET("/reactions", cfg.ReactionHandler.List)
	protected.POST("/movies/:id/like", cfg.ReactionHandler.AddLike)
	protected.DELETE("/movies/:id/like", cfg.ReactionHandler.RemoveLike)
	protected.POST("/movies/:id/dislike", cfg.ReactionHandler.AddDislike)
	protected.DELETE("/movies/:id/dislike", cfg.ReactionHandler.RemoveDislike)
	// Watchlist
	protected.GET("/watchlist", cfg.WatchlistHandler.List)
	protected.POST("/watchlist/:id", cfg.WatchlistHandler.Add)
	protected.DELETE("/watchlist/:id", cfg.WatchlistHandler.Remove)
	// Events
	protected.POST("/events", cfg.EventHandler.Record)
	protected.GET("/events", cfg.EventHandler.List)
	// Feed
	protected.GET("/feed/personal", cfg.FeedHandler.GetPersonalFeed)

	return router
}
