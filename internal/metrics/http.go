package metrics

import (
	"strconv"
	"time"

	"github.com/go-fitdash/fitdash/internal/core"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m core.Recorder) gin.HandlerFunc {
	metrics, ok := m.(*Metrics)
	if !ok {
		// NoopMetrics or an unknown implementation
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		method := c.Request.Method
		path := normalizePath(c.FullPath()) // route pattern, not the actual path
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).
			Observe(time.Since(start).Seconds())
	}
}

// normalizePath returns the route pattern (e.g., "/api/activities/:id"),
// or "unknown" for unmatched requests
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

// RecordOAuthCallback records a Strava OAuth callback outcome
func (m *Metrics) RecordOAuthCallback(result string) {
	m.OAuthCallbackTotal.WithLabelValues(result).Inc()
}

// RecordTokenRefresh records token refresh attempt
func (m *Metrics) RecordTokenRefresh(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.TokensRefreshedTotal.WithLabelValues(result).Inc()
}

// RecordExternalAPICall records Strava API call duration
func (m *Metrics) RecordExternalAPICall(operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSync records one activity sync run
func (m *Metrics) RecordSync(result string, fetched, saved int, duration time.Duration) {
	m.SyncTotal.WithLabelValues(result).Inc()
	m.SyncActivitiesFetched.Add(float64(fetched))
	m.SyncActivitiesSaved.Add(float64(saved))
	m.SyncDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordActivityEdit records a local edit and whether it was queued for mirroring
func (m *Metrics) RecordActivityEdit(mirrored bool) {
	m.ActivityEditsTotal.WithLabelValues(strconv.FormatBool(mirrored)).Inc()
}

// RecordMirror records the outcome of a remote mirror job
func (m *Metrics) RecordMirror(result string) {
	m.MirrorTotal.WithLabelValues(result).Inc()
	if result == core.MirrorResultFailure {
		m.MirrorFailuresTotal.Inc()
	}
}

// RecordLogin records a login
func (m *Metrics) RecordLogin(result string) {
	m.LoginTotal.WithLabelValues(result).Inc()
}

// RecordDatabaseQueryError records a database query error
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
