package metrics

import (
	"time"

	"github.com/go-fitdash/fitdash/internal/core"
)

// NoopMetrics is a no-operation implementation of core.Recorder,
// used when metrics are disabled.
type NoopMetrics struct{}

var _ core.Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() core.Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordOAuthCallback(result string)                              {}
func (n *NoopMetrics) RecordTokenRefresh(success bool)                                {}
func (n *NoopMetrics) RecordExternalAPICall(operation string, duration time.Duration) {}

func (n *NoopMetrics) RecordSync(result string, fetched, saved int, duration time.Duration) {}

func (n *NoopMetrics) RecordActivityEdit(mirrored bool) {}
func (n *NoopMetrics) RecordMirror(result string)       {}

func (n *NoopMetrics) RecordLogin(result string) {}

func (n *NoopMetrics) RecordDatabaseQueryError(operation string) {}
