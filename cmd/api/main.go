package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"fairbet-backend/internal/config"
	"fairbet-backend/internal/handlers"
	"fairbet-backend/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisService, err := services.NewRedisService(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisService.Close()

	if err := redisService.SeedDefaultGameConfigs(ctx); err != nil {
		logger.Error("failed to seed game configs", slog.Any("error", err))
		os.Exit(1)
	}

	jwtService := services.NewJWTService(cfg)

	hub := handlers.NewWebSocketHub(logger)
	go hub.Run()
	defer hub.Stop()

	gameEngine := services.NewGameEngine(redisService, logger, services.WithBroadcaster(hub))

	go runCleanup(ctx, gameEngine, cfg, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:     logger,
		Config:     cfg,
		GameEngine: gameEngine,
		Hub:        hub,
		Tokens:     jwtService,
		Limiter:    redisService,
		Health:     redisService.Ping,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr),
		slog.String("env", cfg.Env),
		slog.Bool("manual_crash", cfg.ManualCrashEnabled()))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}

	logger.Info("server stopped")
}

// runCleanup settles abandoned rounds until ctx is cancelled.
func runCleanup(ctx context.Context, gameEngine *services.GameEngine, cfg *config.Config, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := gameEngine.CleanupStaleRounds(ctx, cfg.StaleRoundMaxAge); err != nil {
				logger.Error("stale round cleanup failed", slog.Any("error", err))
			}
		}
	}
}
