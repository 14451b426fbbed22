package metrics

import (
	"sync"

	"github.com/go-fitdash/fitdash/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ core.Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Strava OAuth Metrics
	OAuthCallbackTotal   *prometheus.CounterVec
	TokensRefreshedTotal *prometheus.CounterVec
	ExternalAPIDuration  *prometheus.HistogramVec

	// Sync Metrics
	SyncTotal             *prometheus.CounterVec
	SyncActivitiesFetched prometheus.Counter
	SyncActivitiesSaved   prometheus.Counter
	SyncDuration          *prometheus.HistogramVec

	// Edit Metrics
	ActivityEditsTotal  *prometheus.CounterVec
	MirrorTotal         *prometheus.CounterVec
	MirrorFailuresTotal prometheus.Counter

	// User Metrics
	LoginTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) core.Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		OAuthCallbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strava_oauth_callback_total",
				Help: "Total number of Strava OAuth callbacks",
			},
			[]string{"result"}, // success, denied, error
		),
		TokensRefreshedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strava_token_refresh_total",
				Help: "Total number of Strava token refresh attempts",
			},
			[]string{"result"}, // success, error
		),
		ExternalAPIDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "strava_api_duration_seconds",
				Help:    "Time taken for Strava API calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"}, // exchange, refresh, list_activities, update_activity
		),

		SyncTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_sync_total",
				Help: "Total number of activity syncs",
			},
			[]string{"result"}, // success, partial, not_connected, remote_error, error
		),
		SyncActivitiesFetched: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "activity_sync_fetched_total",
				Help: "Total number of activities fetched from Strava",
			},
		),
		SyncActivitiesSaved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "activity_sync_saved_total",
				Help: "Total number of activities upserted by sync",
			},
		),
		SyncDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "activity_sync_duration_seconds",
				Help:    "Time taken to run an activity sync",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"result"},
		),

		ActivityEditsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_edits_total",
				Help: "Total number of local activity edits",
			},
			[]string{"mirrored"}, // true, false
		),
		MirrorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_mirror_total",
				Help: "Total number of remote mirror attempts of local edits",
			},
			[]string{"result"}, // success, failure, dropped, skipped
		),
		MirrorFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mirror_failures_total",
				Help: "Total number of local edits that could not be mirrored to Strava",
			},
		),

		LoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of logins",
			},
			[]string{"result"}, // created, existing, error
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.005,
					0.025,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors",
			},
			[]string{"operation"},
		),
	}
}
