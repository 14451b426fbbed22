package models

import (
	"time"
)

// MirrorFailure is a dead-letter record for a local edit that could not be
// pushed to Strava.
type MirrorFailure struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"not null;index" json:"userId"`
	ActivityID string    `gorm:"not null;index" json:"activityId"`
	StravaID   string    `gorm:"not null" json:"stravaId"`
	Payload    string    `gorm:"type:text" json:"payload"` // JSON of the attempted update
	Reason     string    `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time `json:"createdAt"`
}
