package models

import (
	"time"
)

// User is the local identity anchor for a Firebase account.
type User struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	FirebaseUID    string    `gorm:"uniqueIndex;not null" json:"firebaseUid"`
	Email          string    `gorm:"not null" json:"email"`
	Name           string    `gorm:"not null" json:"name"`
	ProfilePicture *string   `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	StravaToken *StravaToken `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Activities  []Activity   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
