package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/models"
	"github.com/go-fitdash/fitdash/internal/store"

	"github.com/sirupsen/logrus"
)

// mirrorQueue accepts edits for asynchronous delivery to Strava.
type mirrorQueue interface {
	Enqueue(job MirrorJob)
}

// ActivityService applies user edits. The local row is authoritative; Strava
// gets a best-effort copy of the fields it accepts.
type ActivityService struct {
	store   *store.Store
	mirror  mirrorQueue
	metrics core.Recorder
	log     logrus.FieldLogger
}

func NewActivityService(
	s *store.Store,
	mirror mirrorQueue,
	metrics core.Recorder,
	logger logrus.FieldLogger,
) *ActivityService {
	return &ActivityService{
		store:   s,
		mirror:  mirror,
		metrics: metrics,
		log:     logger.WithField("component", "activities"),
	}
}

// ApplyEdit updates only the supplied fields of the user's activity and
// returns the stored result. Name, type and description changes are then
// queued for Strava; the outcome of that never affects this call.
func (s *ActivityService) ApplyEdit(
	ctx context.Context,
	activityID, userID string,
	patch models.ActivityPatch,
) (*models.Activity, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	activity, err := s.store.UpdateActivityForUser(ctx, activityID, userID, patch.Updates())
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		s.metrics.RecordDatabaseQueryError("update_activity")
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	mirrored := patch.HasRemoteFields()
	if mirrored {
		s.mirror.Enqueue(MirrorJob{
			UserID:     userID,
			ActivityID: activity.ID,
			StravaID:   activity.StravaID,
			Update: core.ActivityUpdate{
				Name:        patch.Name,
				Type:        patch.Type,
				Description: patch.Description,
			},
		})
	}
	s.metrics.RecordActivityEdit(mirrored)

	s.log.WithFields(logrus.Fields{
		"user_id":     userID,
		"activity_id": activity.ID,
		"mirrored":    mirrored,
	}).Debug("activity edited")
	return activity, nil
}

// ListMirrorFailures returns the user's most recent undelivered edits.
func (s *ActivityService) ListMirrorFailures(
	ctx context.Context,
	userID string,
) ([]models.MirrorFailure, error) {
	failures, err := s.store.ListMirrorFailuresByUserID(ctx, userID)
	if err != nil {
		s.metrics.RecordDatabaseQueryError("list_mirror_failures")
		return nil, fmt.Errorf("failed to list mirror failures: %w", err)
	}
	return failures, nil
}
