package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-fitdash/fitdash/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// mirrorFailureListLimit bounds the dead-letter rows returned to a user.
const mirrorFailureListLimit = 100

type Store struct {
	db *gorm.DB
}

func New(ctx context.Context, driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := tuneConnection(db, driver); err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.StravaToken{},
		&models.Activity{},
		&models.MirrorFailure{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

// User operations
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("firebase_uid = ?", uid).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(user).Error
}

// FirstOrCreateUser inserts the user unless one with the same firebase uid
// already exists, then returns the stored row. Profile fields of an existing
// user are left untouched.
func (s *Store) FirstOrCreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "firebase_uid"}},
			DoNothing: true,
		}).
		Create(user).Error
	if err != nil {
		return nil, err
	}
	return s.GetUserByFirebaseUID(ctx, user.FirebaseUID)
}

// Strava token operations

// UpsertStravaToken writes the user's single token row in one statement,
// replacing credentials in place when the row already exists.
func (s *Store) UpsertStravaToken(
	ctx context.Context,
	token *models.StravaToken,
) (*models.StravaToken, error) {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"access_token",
				"refresh_token",
				"expires_at",
				"strava_athlete_id",
				"updated_at",
			}),
		}).
		Create(token).Error
	if err != nil {
		return nil, err
	}
	return s.GetStravaTokenByUserID(ctx, token.UserID)
}

func (s *Store) GetStravaTokenByUserID(
	ctx context.Context,
	userID string,
) (*models.StravaToken, error) {
	var token models.StravaToken
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

// Activity operations

// UpsertActivity inserts the activity or, when its strava_id is already
// stored, overwrites the mutable fields. Ownership is never reassigned.
func (s *Store) UpsertActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "strava_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"type",
				"start_date",
				"distance",
				"duration",
				"description",
				"updated_at",
			}),
		}).
		Create(activity).Error
}

func (s *Store) GetActivityByStravaID(ctx context.Context, stravaID string) (*models.Activity, error) {
	var activity models.Activity
	if err := s.db.WithContext(ctx).Where("strava_id = ?", stravaID).First(&activity).Error; err != nil {
		return nil, notFound(err)
	}
	return &activity, nil
}

// ListActivitiesByUserID returns the user's activities, newest start first.
func (s *Store) ListActivitiesByUserID(ctx context.Context, userID string) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&activities).Error
	return activities, err
}

func (s *Store) CountActivitiesByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// GetActivityForUser looks an activity up by id scoped to its owner. A row
// owned by someone else is reported as ErrRecordNotFound.
func (s *Store) GetActivityForUser(
	ctx context.Context,
	id, userID string,
) (*models.Activity, error) {
	var activity models.Activity
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&activity).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &activity, nil
}

// UpdateActivityForUser applies the column updates to the activity owned by
// userID and returns the row as stored after the update.
func (s *Store) UpdateActivityForUser(
	ctx context.Context,
	id, userID string,
	updates map[string]any,
) (*models.Activity, error) {
	var activity models.Activity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).
			First(&activity).Error; err != nil {
			return notFound(err)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&activity).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&activity).Error
	})
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// Mirror failure operations
func (s *Store) CreateMirrorFailure(ctx context.Context, failure *models.MirrorFailure) error {
	if failure.ID == "" {
		failure.ID = uuid.New().String()
	}
	if failure.CreatedAt.IsZero() {
		failure.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(failure).Error
}

func (s *Store) ListMirrorFailuresByUserID(
	ctx context.Context,
	userID string,
) ([]models.MirrorFailure, error) {
	var failures []models.MirrorFailure
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(mirrorFailureListLimit).
		Find(&failures).Error
	return failures, err
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DB returns the underlying GORM database connection (for transactions)
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
