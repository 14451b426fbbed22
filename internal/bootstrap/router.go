package bootstrap

import (
	"net/http"
	"time"

	"github.com/go-fitdash/fitdash/internal/config"
	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/metrics"
	"github.com/go-fitdash/fitdash/internal/middleware"
	"github.com/go-fitdash/fitdash/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const sessionName = "fitdash_session"

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	recorder core.Recorder,
	rateLimiters rateLimitMiddlewares,
	logger logrus.FieldLogger,
) *gin.Engine {
	gin.SetMode(ginModeMap[cfg.IsProduction])
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg))
	setupSessionMiddleware(r, cfg)

	r.GET("/health", createHealthCheckHandler(db))
	setupMetricsEndpoint(r, cfg, logger)
	setupAPIRoutes(r, h, rateLimiters)

	logger.WithFields(logrus.Fields{
		"addr":     cfg.ServerAddr,
		"base_url": cfg.BaseURL,
		"frontend": cfg.FrontendURL,
		"gin_mode": gin.Mode(),
	}).Info("router configured")
	return r
}

// corsMiddleware lets the dashboard SPA call the API with credentials
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderFirebaseUID,
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// setupSessionMiddleware configures the cookie session that carries the
// connect → callback handoff
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config, logger logrus.FieldLogger) {
	switch {
	case !cfg.MetricsEnabled:
		logger.Info("prometheus metrics endpoint disabled")
	case cfg.MetricsToken != "":
		logger.Info("prometheus metrics enabled at /metrics with bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		logger.Info("prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAPIRoutes configures the dashboard API
func setupAPIRoutes(r *gin.Engine, h handlerSet, rateLimiters rateLimitMiddlewares) {
	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", rateLimiters.login, h.auth.Login)
		authGroup.GET("/me", h.identity, h.auth.Me)
	}

	stravaGroup := api.Group("/strava")
	{
		// The callback is reached by Strava's redirect; the session identifies the user.
		stravaGroup.GET("/callback", h.strava.Callback)
		stravaGroup.GET("/connect", h.identity, h.strava.Connect)
		stravaGroup.GET("/status", h.identity, h.strava.Status)
	}

	activities := api.Group("/activities")
	activities.Use(h.identity)
	{
		activities.GET("", h.activity.List)
		activities.POST("/sync", rateLimiters.sync, h.activity.Sync)
		activities.GET("/mirror-failures", h.activity.MirrorFailures)
		activities.PATCH("/:id", h.activity.Update)
	}
}

// createHealthCheckHandler reports server and database health
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	}
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}
