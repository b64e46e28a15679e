package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	coreconfig "ventbot/core/config"
	"ventbot/core/logger"
	"log/slog"
)

type redisKV struct {
	client *redis.Client
}

func openRedis(cfg coreconfig.RedisConfig) (KV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.KV.Error("redis connect failed",
			slog.String("event", "kv.connect"),
			slog.String("backend", "redis"),
			slog.String("addr", cfg.Addr),
			slog.String("err", err.Error()),
		)
		_ = client.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	logger.KV.Info("redis connected",
		slog.String("event", "kv.connect"),
		slog.String("backend", "redis"),
		slog.String("addr", cfg.Addr),
		slog.Int("db", cfg.DB),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return &redisKV{client: client}, nil
}

func (r *redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *redisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *redisKV) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return n, nil
}

func (r *redisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisKV) Close() error {
	return r.client.Close()
}
