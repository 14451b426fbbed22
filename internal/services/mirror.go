package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/models"

	"github.com/sirupsen/logrus"
)

const failureWriteTimeout = 5 * time.Second

// MirrorJob is a local edit waiting to be pushed to Strava.
type MirrorJob struct {
	UserID     string
	ActivityID string
	StravaID   string
	Update     core.ActivityUpdate
}

// failureStore records mirror jobs that could not be delivered.
type failureStore interface {
	CreateMirrorFailure(ctx context.Context, failure *models.MirrorFailure) error
}

// MirrorDispatcher pushes local edits to Strava from a single background
// worker, so edits to the same activity reach Strava in the order they were
// made. Undeliverable jobs land in the dead-letter table and never reach the
// caller of the edit.
type MirrorDispatcher struct {
	tokens   tokenSource
	strava   core.StravaProvider
	failures failureStore
	metrics  core.Recorder
	log      logrus.FieldLogger
	timeout  time.Duration

	jobs chan MirrorJob

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewMirrorDispatcher creates the dispatcher and starts its worker.
func NewMirrorDispatcher(
	tokens tokenSource,
	strava core.StravaProvider,
	failures failureStore,
	metrics core.Recorder,
	logger logrus.FieldLogger,
	bufferSize int,
	timeout time.Duration,
) *MirrorDispatcher {
	if bufferSize <= 0 {
		bufferSize = 256
	}

	d := &MirrorDispatcher{
		tokens:   tokens,
		strava:   strava,
		failures: failures,
		metrics:  metrics,
		log:      logger.WithField("component", "mirror"),
		timeout:  timeout,
		jobs:     make(chan MirrorJob, bufferSize),
		done:     make(chan struct{}),
	}

	go d.worker()
	d.log.WithField("buffer_size", bufferSize).Info("mirror dispatcher started")
	return d
}

// Enqueue hands a job to the worker without blocking. A full buffer or a
// dispatcher that is shutting down dead-letters the job instead.
func (d *MirrorDispatcher) Enqueue(job MirrorJob) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.fail(job, "mirror dispatcher is shut down")
		return
	}

	select {
	case d.jobs <- job:
	default:
		d.fail(job, "mirror buffer full")
	}
}

func (d *MirrorDispatcher) worker() {
	defer close(d.done)
	for job := range d.jobs {
		d.process(job)
	}
}

// process runs one job on its own context: the request that produced the
// edit has already returned.
func (d *MirrorDispatcher) process(job MirrorJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	token, err := d.tokens.EnsureValidToken(ctx, job.UserID)
	if err != nil {
		if errors.Is(err, ErrNotConnected) {
			// nothing to mirror to
			d.metrics.RecordMirror(core.MirrorResultDropped)
			return
		}
		d.fail(job, "token lookup failed: "+err.Error())
		return
	}

	if err := d.strava.UpdateActivity(ctx, token.AccessToken, job.StravaID, job.Update); err != nil {
		d.fail(job, err.Error())
		return
	}

	d.metrics.RecordMirror(core.MirrorResultSuccess)
	d.log.WithFields(logrus.Fields{
		"user_id":     job.UserID,
		"activity_id": job.ActivityID,
		"strava_id":   job.StravaID,
	}).Debug("activity edit mirrored to strava")
}

// fail is the failure channel: warning log, metric and dead-letter row.
func (d *MirrorDispatcher) fail(job MirrorJob, reason string) {
	d.metrics.RecordMirror(core.MirrorResultFailure)

	logger := d.log.WithFields(logrus.Fields{
		"user_id":     job.UserID,
		"activity_id": job.ActivityID,
		"strava_id":   job.StravaID,
	})
	logger.WithField("reason", reason).Warn("activity edit not mirrored to strava")

	payload, err := json.Marshal(job.Update)
	if err != nil {
		payload = []byte("{}")
	}

	ctx, cancel := context.WithTimeout(context.Background(), failureWriteTimeout)
	defer cancel()
	if err := d.failures.CreateMirrorFailure(ctx, &models.MirrorFailure{
		UserID:     job.UserID,
		ActivityID: job.ActivityID,
		StravaID:   job.StravaID,
		Payload:    string(payload),
		Reason:     reason,
	}); err != nil {
		d.metrics.RecordDatabaseQueryError("create_mirror_failure")
		logger.WithError(err).Error("failed to record mirror failure")
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish, or for
// ctx to expire.
func (d *MirrorDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		d.log.Info("mirror dispatcher drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
