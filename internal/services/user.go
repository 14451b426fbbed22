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

// LoginInput is the identity the dashboard reports after a Firebase sign-in.
type LoginInput struct {
	FirebaseUID    string
	Email          string
	Name           string
	ProfilePicture *string
}

type UserService struct {
	store    *store.Store
	cache    core.Cache[models.User]
	cacheTTL time.Duration
	metrics  core.Recorder
	log      logrus.FieldLogger
}

func NewUserService(
	s *store.Store,
	cache core.Cache[models.User],
	cacheTTL time.Duration,
	metrics core.Recorder,
	logger logrus.FieldLogger,
) *UserService {
	return &UserService{
		store:    s,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		log:      logger.WithField("component", "users"),
	}
}

// Login returns the local user for the Firebase identity, creating it on
// first sign-in. An existing user is returned unchanged.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*models.User, bool, error) {
	candidate := &models.User{
		FirebaseUID:    input.FirebaseUID,
		Email:          input.Email,
		Name:           input.Name,
		ProfilePicture: input.ProfilePicture,
	}

	user, err := s.store.FirstOrCreateUser(ctx, candidate)
	if err != nil {
		s.metrics.RecordLogin(core.LoginResultError)
		s.metrics.RecordDatabaseQueryError("login")
		return nil, false, fmt.Errorf("failed to login user: %w", err)
	}

	created := user.ID == candidate.ID
	if created {
		s.metrics.RecordLogin(core.LoginResultCreated)
		s.log.WithField("user_id", user.ID).Info("created user on first login")
	} else {
		s.metrics.RecordLogin(core.LoginResultExisting)
	}
	return user, created, nil
}

// GetUserByFirebaseUID resolves the caller of an authenticated request.
// Users never change after creation, so lookups are served from cache.
func (s *UserService) GetUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.cache.GetWithFetch(
		ctx,
		uid,
		s.cacheTTL,
		func(ctx context.Context, uid string) (models.User, error) {
			u, err := s.store.GetUserByFirebaseUID(ctx, uid)
			if err != nil {
				return models.User{}, err
			}
			return *u, nil
		},
	)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
