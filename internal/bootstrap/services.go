package bootstrap

import (
	"github.com/go-fitdash/fitdash/internal/config"
	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/models"
	"github.com/go-fitdash/fitdash/internal/services"
	"github.com/go-fitdash/fitdash/internal/store"

	"github.com/sirupsen/logrus"
)

type serviceSet struct {
	users      *services.UserService
	tokens     *services.TokenService
	sync       *services.SyncService
	activities *services.ActivityService
	mirror     *services.MirrorDispatcher
}

// initializeServices creates all business services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	userCache core.Cache[models.User],
	strava core.StravaProvider,
	m core.Recorder,
	logger logrus.FieldLogger,
) serviceSet {
	users := services.NewUserService(db, userCache, cfg.UserCacheTTL, m, logger)
	tokens := services.NewTokenService(db, strava, m, logger, cfg.TokenExpirySkew)
	syncer := services.NewSyncService(
		db, tokens, strava, m, logger,
		cfg.SyncPageSize, cfg.SyncMaxPages,
	)
	mirror := services.NewMirrorDispatcher(
		tokens, strava, db, m, logger,
		cfg.MirrorBufferSize, cfg.MirrorTimeout,
	)
	activities := services.NewActivityService(db, mirror, m, logger)

	return serviceSet{
		users:      users,
		tokens:     tokens,
		sync:       syncer,
		activities: activities,
		mirror:     mirror,
	}
}
