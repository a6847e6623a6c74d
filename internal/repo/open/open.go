// Package open builds the configured TargetStore backend.
package open

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/urlmonitor/internal/config"
	"github.com/hamed0406/urlmonitor/internal/repo"
	"github.com/hamed0406/urlmonitor/internal/repo/file"
	"github.com/hamed0406/urlmonitor/internal/repo/memory"
	"github.com/hamed0406/urlmonitor/internal/repo/postgres"
	"github.com/hamed0406/urlmonitor/internal/repo/redis"
	"github.com/hamed0406/urlmonitor/internal/repo/sqlite"
)

func Store(ctx context.Context, cfg config.Config, log *zap.Logger) (repo.TargetStore, error) {
	switch cfg.StoreDriver {
	case "file", "":
		log.Info("store_file", zap.String("path", cfg.StorePath))
		return file.New(cfg.StorePath), nil
	case "memory":
		log.Warn("store_memory", zap.String("note", "registry is lost on restart"))
		return memory.New(), nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres store: DATABASE_URL is empty")
		}
		s, err := postgres.New(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		log.Info("store_postgres")
		return s, nil
	case "sqlite":
		s, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		log.Info("store_sqlite", zap.String("path", cfg.SQLitePath))
		return s, nil
	case "redis":
		s, err := redis.New(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		log.Info("store_redis", zap.String("addr", cfg.RedisAddr))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
