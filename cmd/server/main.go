package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/rental-messaging-backend/internal/app"
	"github.com/pushp314/rental-messaging-backend/internal/config"
	"github.com/pushp314/rental-messaging-backend/internal/database"
	"github.com/pushp314/rental-messaging-backend/internal/handlers"
	"github.com/pushp314/rental-messaging-backend/internal/middleware"
	"github.com/pushp314/rental-messaging-backend/internal/routes"
	"github.com/pushp314/rental-messaging-backend/pkg/logger"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Env, cfg.LogLevel)

	logger.Info().Str("environment", cfg.Env).Str("store", cfg.StoreDriver).Msg("Starting rental messaging backend...")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Record store, cache and events
	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer st.Close()

	redisClient := database.InitRedis(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, err := app.NewPublisher(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to start event publisher")
	}
	defer publisher.Close()

	threads := app.NewThreadService(cfg, st, redisClient, publisher)

	go middleware.ChatLimiter.Run(ctx)
	go middleware.GeneralLimiter.Run(ctx)

	// 2. Router
	r := routes.NewRouter(cfg,
		handlers.NewMessageHandler(threads),
		handlers.NewHealthHandler(st, redisClient),
	)

	// 3. Start Server with graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server gracefully...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
