package strava

import (
	"time"

	"github.com/go-fitdash/fitdash/internal/core"
)

// Config contains the Strava application credentials and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	APIURL       string
}

// activityPayload is one element of GET /athlete/activities.
type activityPayload struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	SportType   string    `json:"sport_type"`
	StartDate   time.Time `json:"start_date"`
	Distance    *float64  `json:"distance"`
	MovingTime  *int      `json:"moving_time"`
	Description *string   `json:"description"`
}

func (p activityPayload) toRemote() core.RemoteActivity {
	activityType := p.Type
	if activityType == "" {
		activityType = p.SportType
	}
	return core.RemoteActivity{
		ID:          p.ID,
		Name:        p.Name,
		Type:        activityType,
		StartDate:   p.StartDate,
		Distance:    p.Distance,
		MovingTime:  p.MovingTime,
		Description: p.Description,
	}
}

// apiError is the fault body Strava returns on 4xx/5xx.
type apiError struct {
	Message string `json:"message"`
}
