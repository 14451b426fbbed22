package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-fitdash/fitdash/internal/config"
	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/logging"
	"github.com/go-fitdash/fitdash/internal/models"
	"github.com/go-fitdash/fitdash/internal/services"
	"github.com/go-fitdash/fitdash/internal/store"
	"github.com/go-fitdash/fitdash/internal/strava"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config
	Logger *logrus.Logger

	// Core infrastructure
	DB              *store.Store
	MetricsRecorder core.Recorder
	UserCache       core.Cache[models.User]
	UserCacheCloser func() error
	RateLimitRedis  *redis.Client
	StravaClient    *strava.Client
	RateLimiters    rateLimitMiddlewares

	// Services
	UserService      *services.UserService
	TokenService     *services.TokenService
	SyncService      *services.SyncService
	ActivityService  *services.ActivityService
	MirrorDispatcher *services.MirrorDispatcher

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application, blocking until shutdown.
func Run(cfg *config.Config) error {
	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	ctx := context.Background()

	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}
	app.initializeBusinessLayer()
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	app.startWithGracefulShutdown()
	return nil
}

// initializeInfrastructure sets up database, metrics, caches, Redis and the Strava client
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	app.DB, err = initializeDatabase(ctx, app.Config, app.Logger)
	if err != nil {
		return err
	}

	app.MetricsRecorder = initializeMetrics(app.Config, app.Logger)

	app.UserCache, app.UserCacheCloser, err = initializeUserCache(ctx, app.Config, app.Logger)
	if err != nil {
		return err
	}

	app.RateLimitRedis, err = initializeRateLimitRedisClient(ctx, app.Config, app.Logger)
	if err != nil {
		return err
	}

	app.StravaClient, err = initializeStravaClient(app.Config, app.MetricsRecorder, app.Logger)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	svc := initializeServices(
		app.Config,
		app.DB,
		app.UserCache,
		app.StravaClient,
		app.MetricsRecorder,
		app.Logger,
	)
	app.UserService = svc.users
	app.TokenService = svc.tokens
	app.SyncService = svc.sync
	app.ActivityService = svc.activities
	app.MirrorDispatcher = svc.mirror
}

// initializeHTTPLayer sets up handlers, rate limiting, router and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.UserService,
		app.TokenService,
		app.SyncService,
		app.ActivityService,
		app.MetricsRecorder,
		app.Logger,
	)

	var err error
	app.RateLimiters, err = setupRateLimiting(app.Config, app.RateLimitRedis, app.Logger)
	if err != nil {
		return err
	}

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.MetricsRecorder,
		app.RateLimiters,
		app.Logger,
	)
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown.
// Shutdown jobs run concurrently; the mirror drains on its own deadline while
// the server stops taking new edits.
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server, app.Logger)
	addServerShutdownJob(m, app.Server, app.Config, app.Logger)
	addMirrorShutdownJob(m, app.MirrorDispatcher, app.Config, app.Logger)
	addRedisClientShutdownJob(m, app.RateLimitRedis, app.Logger)
	addCacheCleanupJob(m, app.UserCacheCloser, app.Logger)

	<-m.Done()

	if err := app.DB.Close(); err != nil {
		app.Logger.WithError(err).Error("error closing database")
	}
	_ = logging.Close(app.Logger)
}
