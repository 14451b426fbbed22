package services

import "errors"

var (
	// ErrUserNotFound is returned when no local user matches the identity
	ErrUserNotFound = errors.New("user not found")

	// ErrNotConnected is returned when the user has no linked Strava account
	ErrNotConnected = errors.New("strava account not connected")

	// ErrRemoteFetch is returned when Strava fails while a sync is listing activities
	ErrRemoteFetch = errors.New("failed to fetch activities from strava")

	// ErrActivityNotFound covers both a missing activity and one owned by another user
	ErrActivityNotFound = errors.New("activity not found")

	// ErrEmptyPatch is returned for an edit that sets no field
	ErrEmptyPatch = errors.New("no fields to update")
)
