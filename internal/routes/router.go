package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pushp314/rental-messaging-backend/internal/config"
	"github.com/pushp314/rental-messaging-backend/internal/handlers"
	"github.com/pushp314/rental-messaging-backend/internal/middleware"
)

// NewRouter wires the middleware chain and every route of the service.
func NewRouter(cfg *config.Config, messages *handlers.MessageHandler, health *handlers.HealthHandler) *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false

	r.Use(middleware.RequestID())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	r.Use(middleware.CORSMiddleware(cfg.FrontendURL))

	api := r.Group("/api")
	RegisterMessageRoutes(api, messages, cfg.ReadOnly)

	r.GET("/health", health.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
