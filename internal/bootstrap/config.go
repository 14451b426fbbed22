package bootstrap

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/go-fitdash/fitdash/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateStravaConfig(cfg); err != nil {
		return fmt.Errorf("invalid strava configuration: %w", err)
	}
	return nil
}

// validateStravaConfig checks the Strava endpoints and the dashboard origin
// the callback redirects to.
func validateStravaConfig(cfg *config.Config) error {
	for name, raw := range map[string]string{
		"STRAVA_AUTH_URL":     cfg.StravaAuthURL,
		"STRAVA_TOKEN_URL":    cfg.StravaTokenURL,
		"STRAVA_API_URL":      cfg.StravaAPIURL,
		"STRAVA_REDIRECT_URL": cfg.StravaRedirectURL,
		"FRONTEND_URL":        cfg.FrontendURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if len(cfg.StravaScopes) == 0 {
		return errors.New("STRAVA_SCOPES must not be empty")
	}
	return nil
}
