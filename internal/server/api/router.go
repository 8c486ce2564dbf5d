package api

import (
	"memoir/internal/server/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
func SetupRouter(handler *Handler, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Cleanup-Secret"},
	}))
	e.Use(RequestLogger())

	// Rate limiter on the write endpoint only
	uploadLimiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  rate.Limit(cfg.RateLimitRPS),
			Burst: cfg.RateLimitBurst,
		}),
	})

	// Health
	e.GET("/health", handler.HandleHealth)

	// Memories
	e.POST("/memory", handler.HandleCreateMemory, uploadLimiter)
	e.GET("/memories", handler.HandleListMemories)
	e.GET("/memories/:id", handler.HandleGetMemory)

	// Stored images
	e.GET("/images/:key", handler.HandleImage)

	// Aggregate stats
	e.GET("/cloud-cleanup-summary", handler.HandleCleanupSummary)

	// Shared-secret protected batch operations
	guard := CleanupAuth(cfg.CleanupSecretHash)
	e.POST("/internal/cleanup", handler.HandleCleanup, guard)
	e.POST("/internal/deleted-photos", handler.HandleRegisterDeleted, guard)

	return e
}
