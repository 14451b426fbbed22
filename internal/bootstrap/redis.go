package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-fitdash/fitdash/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// initializeRateLimitRedisClient initializes the go-redis client for rate limiting.
// Returns nil if rate limiting is disabled or using the memory store.
// ulule/limiter depends on go-redis types, so this client stays separate from
// the rueidis user cache.
func initializeRateLimitRedisClient(
	ctx context.Context,
	cfg *config.Config,
	logger logrus.FieldLogger,
) (*redis.Client, error) {
	if !cfg.EnableRateLimit || cfg.RateLimitStore != config.RateLimitStoreRedis {
		return nil, nil //nolint:nilnil // redis client not needed in this configuration
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.RedisConnTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.WithFields(logrus.Fields{
		"addr": cfg.RedisAddr,
		"db":   cfg.RedisDB,
	}).Info("rate limiting redis client initialized")
	return client, nil
}
