package bootstrap

import (
	"github.com/go-fitdash/fitdash/internal/config"
	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/handlers"
	"github.com/go-fitdash/fitdash/internal/middleware"
	"github.com/go-fitdash/fitdash/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// handlerSet holds all HTTP handlers and the identity middleware they share
type handlerSet struct {
	auth     *handlers.AuthHandler
	strava   *handlers.StravaHandler
	activity *handlers.ActivityHandler
	identity gin.HandlerFunc
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	users *services.UserService,
	tokens *services.TokenService,
	syncer *services.SyncService,
	activities *services.ActivityService,
	m core.Recorder,
	logger logrus.FieldLogger,
) handlerSet {
	return handlerSet{
		auth:     handlers.NewAuthHandler(users, logger),
		strava:   handlers.NewStravaHandler(tokens, cfg.FrontendURL, m, logger),
		activity: handlers.NewActivityHandler(syncer, activities, logger),
		identity: middleware.RequireIdentity(users, logger),
	}
}
