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
	gormlogger "gorm.io/gorm/logger"

	"github.com/emilythestrangee/campus-qa/backend/internal/cache"
	"github.com/emilythestrangee/campus-qa/backend/internal/config"
	"github.com/emilythestrangee/campus-qa/backend/internal/database"
	"github.com/emilythestrangee/campus-qa/backend/internal/id"
	"github.com/emilythestrangee/campus-qa/backend/internal/logger"
	"github.com/emilythestrangee/campus-qa/backend/internal/qa"
	"github.com/emilythestrangee/campus-qa/backend/internal/server"
	"github.com/emilythestrangee/campus-qa/backend/internal/telemetry"
)

const devJWTSecret = "campus-qa-dev-secret"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	tel, err := telemetry.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if tel != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	if cfg.Auth.JWTSecret == "" {
		slog.WarnContext(ctx, "JWT_SECRET not set, using development secret")
		cfg.Auth.JWTSecret = devJWTSecret
	}

	if err := id.Init(cfg.SnowflakeNode); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	level := gormlogger.Warn
	if cfg.IsDevelopment() {
		level = gormlogger.Info
	}
	db, err := database.New(cfg.Database, level)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store, closeStore, err := newStore(ctx, cfg.Cache)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to cache", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	svc := qa.NewService(db.GetDB(), store, slog.Default())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(cfg, db, svc, store).HTTPServer()

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if tel != nil {
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// newStore picks redis when a URL is configured and an in-process store
// otherwise.
func newStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, func(), error) {
	if cfg.RedisURL == "" {
		slog.InfoContext(ctx, "using in-memory response cache")
		return cache.NewMemoryStore(), func() {}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	store := cache.NewRedisStore(client, "campusqa:", slog.Default())
	slog.InfoContext(ctx, "redis cache connected")
	return store, func() {
		if err := store.Close(); err != nil {
			slog.Warn("redis close failed", "error", err)
		}
	}, nil
}
