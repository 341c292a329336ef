package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/pinn-product-builder/pinnbai-sub001/common/id"
	"github.com/pinn-product-builder/pinnbai-sub001/common/llm"
	"github.com/pinn-product-builder/pinnbai-sub001/common/logger"
	"github.com/pinn-product-builder/pinnbai-sub001/core/config"
	"github.com/pinn-product-builder/pinnbai-sub001/core/db"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/lock"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/store"
)

// session lazily connects to the database the first time a command needs
// it. Imports take the same Redis lock as the server when REDIS_URL is set.
type session struct {
	database *db.DB
	redis    *redis.Client
	services *service.Services
}

func (rt *session) open(ctx context.Context) error {
	if rt.database != nil {
		return nil
	}

	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Setup(cfg)

	// Node 2 keeps CLI ids disjoint from the server's.
	if err := id.Init(2); err != nil {
		return fmt.Errorf("init id generator: %w", err)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	llmClient, err := llm.New(llm.Config{
		APIKey:    cfg.InsightsLLM.APIKey,
		BaseURL:   cfg.InsightsLLM.BaseURL,
		Model:     cfg.InsightsLLM.Model,
		MaxTokens: cfg.InsightsLLM.MaxTokens,
	})
	if err != nil && !errors.Is(err, llm.ErrDisabled) {
		database.Close()
		return fmt.Errorf("create llm client: %w", err)
	}

	locker := lock.NewLocalLocker(cfg.Ingest.LockTTL)
	if cfg.Ingest.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Ingest.RedisURL)
		if err != nil {
			database.Close()
			return fmt.Errorf("parse redis url: %w", err)
		}
		rt.redis = redis.NewClient(opts)
		locker = lock.NewRedisLocker(rt.redis, cfg.Ingest.LockTTL, slog.Default())
	}

	rt.database = database
	rt.services = service.NewServices(
		store.NewStores(database.Conn()),
		service.NewTxRunner(database),
		locker,
		llmClient,
		cfg.Ingest,
		cfg.Query,
	)
	slog.DebugContext(ctx, "pinnctl connected", "env", cfg.Env)
	return nil
}

func (rt *session) close() {
	if rt.redis != nil {
		_ = rt.redis.Close()
		rt.redis = nil
	}
	if rt.database != nil {
		rt.database.Close()
		rt.database = nil
	}
}
