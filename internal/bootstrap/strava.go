package bootstrap

import (
	"github.com/go-fitdash/fitdash/internal/client"
	"github.com/go-fitdash/fitdash/internal/config"
	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/strava"

	"github.com/sirupsen/logrus"
)

// initializeStravaClient builds the OAuth and REST client for Strava.
func initializeStravaClient(
	cfg *config.Config,
	m core.Recorder,
	logger logrus.FieldLogger,
) (*strava.Client, error) {
	httpClient, err := client.CreateHTTPClient(cfg.StravaTimeout)
	if err != nil {
		return nil, err
	}

	api, err := client.CreateRetryClient(
		httpClient,
		cfg.StravaMaxRetries,
		cfg.StravaRetryDelay,
		cfg.StravaMaxRetryDelay,
	)
	if err != nil {
		return nil, err
	}

	if cfg.StravaClientID == "" {
		logger.Warn("STRAVA_CLIENT_ID is not set, the connect flow will be rejected by Strava")
	}

	return strava.NewClient(strava.Config{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		RedirectURL:  cfg.StravaRedirectURL,
		Scopes:       cfg.StravaScopes,
		AuthURL:      cfg.StravaAuthURL,
		TokenURL:     cfg.StravaTokenURL,
		APIURL:       cfg.StravaAPIURL,
	}, httpClient, api, m), nil
}
