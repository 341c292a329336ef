package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/pinn-product-builder/pinnbai-sub001/common/id"
	"github.com/pinn-product-builder/pinnbai-sub001/common/llm"
	"github.com/pinn-product-builder/pinnbai-sub001/common/logger"
	"github.com/pinn-product-builder/pinnbai-sub001/common/otel"
	"github.com/pinn-product-builder/pinnbai-sub001/core/config"
	"github.com/pinn-product-builder/pinnbai-sub001/core/db"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/http/middleware"
	httprouter "github.com/pinn-product-builder/pinnbai-sub001/internal/http/router"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/lock"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses the OTel provider when enabled)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "pinn data server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	if cfg.AutoMigrate {
		if err := database.Migrate(); err != nil {
			slog.ErrorContext(ctx, "failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "migrations applied")
	}

	locker, closeLocker, err := newLocker(ctx, cfg.Ingest)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up ingestion lock", "error", err)
		os.Exit(1)
	}
	defer closeLocker()

	llmClient, err := llm.New(llm.Config{
		APIKey:    cfg.InsightsLLM.APIKey,
		BaseURL:   cfg.InsightsLLM.BaseURL,
		Model:     cfg.InsightsLLM.Model,
		MaxTokens: cfg.InsightsLLM.MaxTokens,
	})
	switch {
	case errors.Is(err, llm.ErrDisabled):
		slog.InfoContext(ctx, "insights disabled (no LLM api key configured)")
	case err != nil:
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	default:
		slog.InfoContext(ctx, "insights enabled", "model", llmClient.Model())
	}

	services := service.NewServices(
		store.NewStores(database.Conn()),
		service.NewTxRunner(database),
		locker,
		llmClient,
		cfg.Ingest,
		cfg.Query,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// newLocker uses Redis when REDIS_URL is set so replicas share
// ingestion locks, and an in-process lock otherwise.
func newLocker(ctx context.Context, cfg config.IngestConfig) (lock.Locker, func(), error) {
	if cfg.RedisURL == "" {
		slog.InfoContext(ctx, "using in-process ingestion lock")
		return lock.NewLocalLocker(cfg.LockTTL), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.InfoContext(ctx, "redis connected", "addr", opts.Addr)

	return lock.NewRedisLocker(client, cfg.LockTTL, slog.Default()), func() { _ = client.Close() }, nil
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		APIKey: cfg.AdminAPIKey,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RPS,
			Burst:             cfg.RateLimit.Burst,
		},
	})

	return router
}

const banner = `
 ____  ___ _   _ _   _   ____    _  _____  _
|  _ \|_ _| \ | | \ | | |  _ \  / \|_   _|/ \
| |_) || ||  \| |  \| | | | | |/ _ \ | | / _ \
|  __/ | || |\  | |\  | | |_| / ___ \| |/ ___ \
|_|   |___|_| \_|_| \_| |____/_/   \_\_/_/   \_\
`
