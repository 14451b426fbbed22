package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/models"
	"github.com/go-fitdash/fitdash/internal/store"

	"github.com/sirupsen/logrus"
)

// TokenService owns the Strava credential lifecycle: the initial link,
// and refreshing the access token before it expires.
type TokenService struct {
	store   *store.Store
	strava  core.StravaProvider
	metrics core.Recorder
	log     logrus.FieldLogger
	skew    time.Duration
	now     func() time.Time
}

func NewTokenService(
	s *store.Store,
	strava core.StravaProvider,
	metrics core.Recorder,
	logger logrus.FieldLogger,
	skew time.Duration,
) *TokenService {
	return &TokenService{
		store:   s,
		strava:  strava,
		metrics: metrics,
		log:     logger.WithField("component", "tokens"),
		skew:    skew,
		now:     time.Now,
	}
}

// AuthorizationURL returns the Strava consent URL for the connect flow.
func (s *TokenService) AuthorizationURL(state string) string {
	return s.strava.AuthCodeURL(state)
}

// ExchangeCode trades the callback's authorization code for a token grant.
func (s *TokenService) ExchangeCode(ctx context.Context, code string) (*core.TokenGrant, error) {
	return s.strava.Exchange(ctx, code)
}

// StoreInitialToken links the grant to the user, replacing any previous link.
func (s *TokenService) StoreInitialToken(
	ctx context.Context,
	userID string,
	grant *core.TokenGrant,
) (*models.StravaToken, error) {
	token, err := s.store.UpsertStravaToken(ctx, &models.StravaToken{
		UserID:          userID,
		AccessToken:     grant.AccessToken,
		RefreshToken:    grant.RefreshToken,
		ExpiresAt:       grant.ExpiresAt,
		StravaAthleteID: grant.AthleteID,
	})
	if err != nil {
		s.metrics.RecordDatabaseQueryError("upsert_strava_token")
		return nil, fmt.Errorf("failed to store strava token: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"athlete_id": grant.AthleteID,
	}).Info("strava account linked")
	return token, nil
}

// IsConnected reports whether the user has a linked Strava account.
func (s *TokenService) IsConnected(ctx context.Context, userID string) (bool, error) {
	_, err := s.store.GetStravaTokenByUserID(ctx, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrRecordNotFound) {
		return false, nil
	}
	s.metrics.RecordDatabaseQueryError("get_strava_token")
	return false, err
}

// EnsureValidToken returns the user's token, refreshed first when it expires
// within the configured skew.
//
// Exactly one refresh is attempted. When it fails the stale token is returned
// with a nil error and the following Strava call is left to fail on its own.
func (s *TokenService) EnsureValidToken(
	ctx context.Context,
	userID string,
) (*models.StravaToken, error) {
	token, err := s.store.GetStravaTokenByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrNotConnected
		}
		s.metrics.RecordDatabaseQueryError("get_strava_token")
		return nil, fmt.Errorf("failed to load strava token: %w", err)
	}

	if !token.ExpiresWithin(s.now(), s.skew) {
		return token, nil
	}

	logger := s.log.WithField("user_id", userID)

	grant, err := s.strava.Refresh(ctx, token.RefreshToken)
	if err != nil {
		s.metrics.RecordTokenRefresh(false)
		logger.WithError(err).Warn("strava token refresh failed, continuing with stale token")
		return token, nil
	}
	s.metrics.RecordTokenRefresh(true)

	athleteID := grant.AthleteID
	if athleteID == "" {
		athleteID = token.StravaAthleteID
	}
	refreshed, err := s.store.UpsertStravaToken(ctx, &models.StravaToken{
		UserID:          userID,
		AccessToken:     grant.AccessToken,
		RefreshToken:    grant.RefreshToken,
		ExpiresAt:       grant.ExpiresAt,
		StravaAthleteID: athleteID,
	})
	if err != nil {
		s.metrics.RecordDatabaseQueryError("upsert_strava_token")
		return nil, fmt.Errorf("failed to persist refreshed strava token: %w", err)
	}

	logger.WithField("expires_at", refreshed.ExpiresAt).Debug("strava token refreshed")
	return refreshed, nil
}
