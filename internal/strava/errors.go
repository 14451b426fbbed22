package strava

import "errors"

var (
	// ErrRemoteRequest indicates Strava could not be reached
	ErrRemoteRequest = errors.New("strava: request failed")

	// ErrRemoteResponse indicates Strava answered with a non-2xx status or an
	// unreadable body
	ErrRemoteResponse = errors.New("strava: unexpected response")

	// ErrTokenExchange indicates the OAuth token endpoint rejected a code or
	// refresh token
	ErrTokenExchange = errors.New("strava: token exchange failed")
)
