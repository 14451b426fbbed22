package models

import (
	"time"
)

// Activity is a workout pulled from Strava. StravaID is unique across all
// users and is the idempotency key for sync.
type Activity struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"not null;index:idx_activity_user_start" json:"userId"`
	StravaID    string    `gorm:"not null;uniqueIndex" json:"stravaId"`
	Name        string    `gorm:"not null" json:"name"`
	Type        string    `gorm:"not null" json:"type"`
	StartDate   time.Time `gorm:"not null;index:idx_activity_user_start" json:"startDate"`
	Distance    *float64  `json:"distance"` // meters
	Duration    *int      `json:"duration"` // seconds
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ActivityPatch is a partial update; nil fields are left untouched.
type ActivityPatch struct {
	Name        *string    `json:"name"        binding:"omitempty,min=1,max=255"`
	Type        *string    `json:"type"        binding:"omitempty,min=1,max=64"`
	StartDate   *time.Time `json:"startDate"`
	Distance    *float64   `json:"distance"    binding:"omitempty,gte=0"`
	Duration    *int       `json:"duration"    binding:"omitempty,gte=0"`
	Description *string    `json:"description" binding:"omitempty,max=10000"`
}

// IsEmpty reports whether the patch sets no field at all.
func (p ActivityPatch) IsEmpty() bool {
	return p.Name == nil && p.Type == nil && p.StartDate == nil &&
		p.Distance == nil && p.Duration == nil && p.Description == nil
}

// HasRemoteFields reports whether the patch touches a field Strava accepts on update.
func (p ActivityPatch) HasRemoteFields() bool {
	return p.Name != nil || p.Type != nil || p.Description != nil
}

// Updates returns the column map for the supplied fields only.
func (p ActivityPatch) Updates() map[string]any {
	updates := make(map[string]any, 6)
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Type != nil {
		updates["type"] = *p.Type
	}
	if p.StartDate != nil {
		updates["start_date"] = *p.StartDate
	}
	if p.Distance != nil {
		updates["distance"] = *p.Distance
	}
	if p.Duration != nil {
		updates["duration"] = *p.Duration
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	return updates
}
