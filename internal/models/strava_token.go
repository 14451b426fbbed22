package models

import (
	"time"
)

// StravaToken is the single OAuth credential set linked to a user.
// The unique index on UserID is what the token upsert conflicts on.
type StravaToken struct {
	ID              string    `gorm:"primaryKey"`
	UserID          string    `gorm:"not null;uniqueIndex"`
	AccessToken     string    `gorm:"type:text;not null"`
	RefreshToken    string    `gorm:"type:text;not null"`
	ExpiresAt       time.Time `gorm:"not null"`
	StravaAthleteID string    `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name used by StravaToken to `strava_tokens`
func (StravaToken) TableName() string {
	return "strava_tokens"
}

// ExpiresWithin reports whether the access token is expired at now+skew.
func (t *StravaToken) ExpiresWithin(now time.Time, skew time.Duration) bool {
	return !now.Add(skew).Before(t.ExpiresAt)
}
