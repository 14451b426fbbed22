package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Strava OAuth
	RecordOAuthCallback(result string)
	RecordTokenRefresh(success bool)
	RecordExternalAPICall(operation string, duration time.Duration)

	// Activity sync
	RecordSync(result string, fetched, saved int, duration time.Duration)

	// Local edits and the remote mirror
	RecordActivityEdit(mirrored bool)
	RecordMirror(result string)

	// Users
	RecordLogin(result string) // created, existing, error

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// Sync results
const (
	SyncResultSuccess      = "success"
	SyncResultPartial      = "partial"
	SyncResultNotConnected = "not_connected"
	SyncResultRemoteError  = "remote_error"
	SyncResultError        = "error"
)

// Mirror results
const (
	MirrorResultSuccess = "success"
	MirrorResultFailure = "failure"
	MirrorResultDropped = "dropped" // no token linked
)

// OAuth callback results
const (
	CallbackResultSuccess = "success"
	CallbackResultDenied  = "denied"
	CallbackResultError   = "error"
)

// Login results
const (
	LoginResultCreated  = "created"
	LoginResultExisting = "existing"
	LoginResultError    = "error"
)
