package core

import (
	"context"
	"time"
)

// TokenGrant is the credential set returned by an authorization code
// exchange or a refresh.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AthleteID    string // empty on refresh
}

// RemoteActivity is one item of the athlete's activity list as Strava
// reports it.
type RemoteActivity struct {
	ID          int64
	Name        string
	Type        string
	StartDate   time.Time
	Distance    *float64 // meters
	MovingTime  *int     // seconds
	Description *string
}

// ActivityUpdate carries the fields Strava accepts when updating an activity.
type ActivityUpdate struct {
	Name        *string `json:"name,omitempty"`
	Type        *string `json:"type,omitempty"`
	Description *string `json:"description,omitempty"`
}

// IsEmpty reports whether the update carries no field.
func (u ActivityUpdate) IsEmpty() bool {
	return u.Name == nil && u.Type == nil && u.Description == nil
}

// StravaProvider is the remote side of the token lifecycle and the sync.
type StravaProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*TokenGrant, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error)
	ListActivities(
		ctx context.Context,
		accessToken string,
		page, perPage int,
	) ([]RemoteActivity, error)
	UpdateActivity(
		ctx context.Context,
		accessToken, stravaID string,
		update ActivityUpdate,
	) error
}
