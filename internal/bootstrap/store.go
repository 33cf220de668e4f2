package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"portfolio-backend/internal/cache"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/db"
	"portfolio-backend/internal/submissions"

	"github.com/redis/go-redis/v9"
)

// Backend is the opened persistence layer plus the list cache riding on it.
type Backend struct {
	Store submissions.Store
	Cache cache.Cache
	Name  string
	// Redis is nil unless REDIS_URL or REDIS_ADDR is set.
	Redis *redis.Client

	closers []func()
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// Open connects the store selected by cfg. Redis, when configured, also
// backs the list cache whatever the store is.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Backend, error) {
	b := &Backend{Cache: cache.NewNoop(), Name: cfg.StoreBackend}

	var redisClient *redis.Client
	if cfg.HasRedis() {
		client, err := db.ConnectRedis(ctx, cfg.RedisURL, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		redisClient = client
		b.Redis = client
		b.Cache = cache.NewRedis(client, "portfolio:")
		log.Info("redis connected", slog.Bool("url", cfg.RedisURL != ""))
	}

	switch cfg.StoreBackend {
	case config.StoreMongo:
		client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("mongo connection failed: %w", err)
		}
		b.closers = append(b.closers, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		})
		if err := db.EnsureIndexes(ctx, cols); err != nil {
			b.Close()
			return nil, fmt.Errorf("index creation failed: %w", err)
		}
		log.Info("mongo connected", slog.String("db", cfg.MongoDB))
		b.Store = submissions.NewMongoStore(cols.Submissions)
	case config.StoreRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("store backend %q needs REDIS_URL or REDIS_ADDR", cfg.StoreBackend)
		}
		b.Store = submissions.NewRedisStore(redisClient)
	case config.StoreMemory:
		log.Warn("store: using in-memory fallback, submissions are lost on restart")
		b.Store = submissions.NewMemoryStore()
	default:
		b.Close()
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return b, nil
}
