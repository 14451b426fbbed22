package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/models"

	"github.com/sirupsen/logrus"
)

// activityStore defines the persistence the sync engine needs.
// *store.Store satisfies it.
type activityStore interface {
	UpsertActivity(ctx context.Context, activity *models.Activity) error
	ListActivitiesByUserID(ctx context.Context, userID string) ([]models.Activity, error)
}

// tokenSource yields a usable Strava token for a user.
type tokenSource interface {
	EnsureValidToken(ctx context.Context, userID string) (*models.StravaToken, error)
}

// SyncResult reports how many activities Strava returned and how many were stored.
type SyncResult struct {
	Fetched int
	Saved   int
}

// SyncService pulls the athlete's activity history into local storage.
type SyncService struct {
	store    activityStore
	tokens   tokenSource
	strava   core.StravaProvider
	metrics  core.Recorder
	log      logrus.FieldLogger
	pageSize int
	maxPages int
}

func NewSyncService(
	s activityStore,
	tokens tokenSource,
	strava core.StravaProvider,
	metrics core.Recorder,
	logger logrus.FieldLogger,
	pageSize, maxPages int,
) *SyncService {
	return &SyncService{
		store:    s,
		tokens:   tokens,
		strava:   strava,
		metrics:  metrics,
		log:      logger.WithField("component", "sync"),
		pageSize: pageSize,
		maxPages: maxPages,
	}
}

// SyncActivities fetches the user's activities page by page and upserts each
// one keyed by its Strava id. Items that fail to persist are skipped and
// reported through Saved < Fetched. A failing page aborts the sync with
// ErrRemoteFetch; activities stored before the failure stay stored.
func (s *SyncService) SyncActivities(ctx context.Context, userID string) (*SyncResult, error) {
	start := time.Now()
	logger := s.log.WithField("user_id", userID)

	token, err := s.tokens.EnsureValidToken(ctx, userID)
	if err != nil {
		result := core.SyncResultError
		if errors.Is(err, ErrNotConnected) {
			result = core.SyncResultNotConnected
		}
		s.metrics.RecordSync(result, 0, 0, time.Since(start))
		return nil, err
	}

	res := &SyncResult{}
	for page := 1; ; page++ {
		items, err := s.strava.ListActivities(ctx, token.AccessToken, page, s.pageSize)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"page":    page,
				"fetched": res.Fetched,
				"saved":   res.Saved,
			}).Error("strava activity fetch failed")
			s.metrics.RecordSync(core.SyncResultRemoteError, res.Fetched, res.Saved, time.Since(start))
			return nil, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
		}

		res.Fetched += len(items)
		for _, item := range items {
			if s.saveActivity(ctx, logger, userID, item) {
				res.Saved++
			}
		}

		if len(items) < s.pageSize {
			break
		}
		if page >= s.maxPages {
			logger.WithFields(logrus.Fields{
				"max_pages": s.maxPages,
				"page_size": s.pageSize,
			}).Warn("sync stopped at the page cap, older activities were not fetched")
			break
		}
	}

	result := core.SyncResultSuccess
	if res.Saved < res.Fetched {
		result = core.SyncResultPartial
	}
	s.metrics.RecordSync(result, res.Fetched, res.Saved, time.Since(start))
	logger.WithFields(logrus.Fields{
		"fetched": res.Fetched,
		"saved":   res.Saved,
	}).Info("activity sync finished")

	return res, nil
}

func (s *SyncService) saveActivity(
	ctx context.Context,
	logger logrus.FieldLogger,
	userID string,
	item core.RemoteActivity,
) bool {
	activity := toActivity(userID, item)
	if err := s.store.UpsertActivity(ctx, activity); err != nil {
		s.metrics.RecordDatabaseQueryError("upsert_activity")
		logger.WithError(err).WithField("strava_id", activity.StravaID).
			Warn("skipping activity that failed to persist")
		return false
	}
	return true
}

// toActivity maps a Strava activity onto the local schema. Distance stays in
// meters and moving time in seconds.
func toActivity(userID string, item core.RemoteActivity) *models.Activity {
	return &models.Activity{
		UserID:      userID,
		StravaID:    strconv.FormatInt(item.ID, 10),
		Name:        item.Name,
		Type:        item.Type,
		StartDate:   item.StartDate,
		Distance:    item.Distance,
		Duration:    item.MovingTime,
		Description: item.Description,
	}
}

// ListActivities returns the user's stored activities, newest first.
func (s *SyncService) ListActivities(ctx context.Context, userID string) ([]models.Activity, error) {
	activities, err := s.store.ListActivitiesByUserID(ctx, userID)
	if err != nil {
		s.metrics.RecordDatabaseQueryError("list_activities")
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}
