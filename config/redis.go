package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"tango-chat-app/cache"
	"tango-chat-app/config/common"
)

// NewRedis returns nil when REDIS_ADDR is unset; the guard then allows every
// request.
func NewRedis(cfg *common.Config, log *logrus.Logger) *redis.Client {
	addr, password, db := cfg.GetRedisConfig()
	if addr == "" {
		log.Warn("REDIS_ADDR not set, idempotency and rate limiting are disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatalf("Failed to connect to redis at %s", addr)
	}
	return client
}

func NewGuard(cfg *common.Config, client *redis.Client) *cache.Guard {
	rateLimit, rateWindow, idempotencyTTL, _ := cfg.GetChatConfig()
	return cache.NewGuard(client, idempotencyTTL, rateLimit, rateWindow)
}
