package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	returnhandler "campus-market-backend/internal/domains/returns/handler"
	"campus-market-backend/internal/shared/middleware"
	"campus-market-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.RequestID(),
		middleware.ClientIP(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.CORS(c.Config.HTTP.AllowedOrigins),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupReturnRoutes(v1, c)
	}

	return router
}

// ========================================
// RETURN ROUTES
// ========================================
func setupReturnRoutes(v1 *gin.RouterGroup, c *container.Container) {
	returnhandler.RegisterRoutes(v1, c.ReturnHandler,
		middleware.AuthMiddleware(c.JWTManager),
		c.RateLimiter.Middleware(),
	)
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		// Check database
		dbStatus := "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if appCtx.DB == nil {
			dbStatus = "disconnected"
		} else if err := appCtx.DB.HealthCheck(ctx); err != nil {
			dbStatus = "error: " + err.Error()
		}

		// Check redis
		redisStatus := "disabled"
		if appCtx.Redis != nil {
			redisStatus = "ok"
			if err := appCtx.Redis.HealthCheck(ctx); err != nil {
				redisStatus = "error: " + err.Error()
			}
		}

		services := gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}
		if appCtx.DB != nil {
			if stats, err := appCtx.DB.Stats(); err == nil {
				services["database_pool"] = stats
			}
		}
		health["services"] = services

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			health["status"] = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
