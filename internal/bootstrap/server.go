package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-fitdash/fitdash/internal/config"
	"github.com/go-fitdash/fitdash/internal/services"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// a sync walks up to STRAVA_SYNC_MAX_PAGES remote pages
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server, logger logrus.FieldLogger) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			logger.WithField("addr", srv.Addr).Info("fitdash server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Fatal("failed to start server")
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(
	m *graceful.Manager,
	srv *http.Server,
	cfg *config.Config,
	logger logrus.FieldLogger,
) {
	m.AddShutdownJob(func() error {
		logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("server forced to shutdown")
			return err
		}

		logger.Info("server exited")
		return nil
	})
}

// addMirrorShutdownJob drains queued Strava mirror jobs
func addMirrorShutdownJob(
	m *graceful.Manager,
	mirror *services.MirrorDispatcher,
	cfg *config.Config,
	logger logrus.FieldLogger,
) {
	m.AddShutdownJob(func() error {
		logger.Info("draining mirror dispatcher...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.MirrorShutdownTimeout)
		defer cancel()

		if err := mirror.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("mirror dispatcher did not drain in time, pending edits were not mirrored")
			return err
		}
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(
	m *graceful.Manager,
	redisClient *redis.Client,
	logger logrus.FieldLogger,
) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := redisClient.Close(); err != nil {
			logger.WithError(err).Error("error closing redis client")
			return err
		}
		logger.Info("redis connection closed")
		return nil
	})
}

// addCacheCleanupJob closes the user cache on shutdown
func addCacheCleanupJob(m *graceful.Manager, closer func() error, logger logrus.FieldLogger) {
	if closer == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := closer(); err != nil {
			logger.WithError(err).Error("error closing user cache")
		}
		return nil
	})
}
