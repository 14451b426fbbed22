package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-fitdash/fitdash/internal/cache"
	"github.com/go-fitdash/fitdash/internal/config"
	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/metrics"
	"github.com/go-fitdash/fitdash/internal/models"

	"github.com/sirupsen/logrus"
)

const userCachePrefix = "fitdash:users:"

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config, logger logrus.FieldLogger) core.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		logger.Info("prometheus metrics initialized")
	} else {
		logger.Info("metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeUserCache initializes the cache behind identity resolution
func initializeUserCache(
	ctx context.Context,
	cfg *config.Config,
	logger logrus.FieldLogger,
) (core.Cache[models.User], func() error, error) {
	switch cfg.UserCacheType {
	case config.UserCacheTypeRedis:
		ctx, cancel := context.WithTimeout(ctx, cfg.RedisConnTimeout)
		defer cancel()

		c, err := cache.NewRueidisCache[models.User](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			userCachePrefix,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis user cache: %w", err)
		}
		logger.WithFields(logrus.Fields{
			"addr": cfg.RedisAddr,
			"db":   cfg.RedisDB,
		}).Info("user cache: redis")
		return c, c.Close, nil

	default:
		c := cache.NewMemoryCache[models.User]()
		logger.Info("user cache: memory (single instance only)")
		return c, c.Close, nil
	}
}
