package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-fitdash/fitdash/internal/core"

	retry "github.com/appleboy/go-httpretry"
	"golang.org/x/oauth2"
)

const (
	opExchange       = "exchange"
	opRefresh        = "refresh"
	opListActivities = "list_activities"
	opUpdateActivity = "update_activity"
)

var _ core.StravaProvider = (*Client)(nil)

// Client talks to Strava: the OAuth endpoints through golang.org/x/oauth2
// and the REST API through a retrying client.
type Client struct {
	oauth      *oauth2.Config
	scopes     string
	httpClient *http.Client
	api        *retry.Client
	apiURL     string
	metrics    core.Recorder
}

// NewClient creates a Strava client. httpClient serves the token endpoint
// (single attempt, no retries); api serves the REST calls.
func NewClient(
	cfg Config,
	httpClient *http.Client,
	api *retry.Client,
	metrics core.Recorder,
) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		// Strava expects a comma separated scope list
		scopes:     strings.Join(cfg.Scopes, ","),
		httpClient: httpClient,
		api:        api,
		apiURL:     strings.TrimSuffix(cfg.APIURL, "/"),
		metrics:    metrics,
	}
}

// AuthCodeURL returns the Strava consent page URL carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("scope", c.scopes),
		oauth2.SetAuthURLParam("approval_prompt", "force"),
	)
}

// Exchange trades an authorization code for the initial token grant.
func (c *Client) Exchange(ctx context.Context, code string) (*core.TokenGrant, error) {
	start := time.Now()
	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	c.metrics.RecordExternalAPICall(opExchange, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	return toGrant(tok), nil
}

// Refresh performs exactly one refresh exchange. When Strava does not rotate
// the refresh token, the one supplied is carried over.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*core.TokenGrant, error) {
	start := time.Now()
	tok, err := c.oauth.TokenSource(
		c.oauthContext(ctx),
		&oauth2.Token{RefreshToken: refreshToken},
	).Token()
	c.metrics.RecordExternalAPICall(opRefresh, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	grant := toGrant(tok)
	if grant.RefreshToken == "" {
		grant.RefreshToken = refreshToken
	}
	return grant, nil
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	if c.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// ListActivities fetches one page of the athlete's activities, newest first.
func (c *Client) ListActivities(
	ctx context.Context,
	accessToken string,
	page, perPage int,
) ([]core.RemoteActivity, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	start := time.Now()
	resp, err := c.api.Get(
		ctx,
		c.apiURL+"/athlete/activities?"+query.Encode(),
		retry.WithHeader("Authorization", "Bearer "+accessToken),
		retry.WithHeader("Accept", "application/json"),
	)
	c.metrics.RecordExternalAPICall(opListActivities, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteRequest, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	var payload []activityPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteResponse, err)
	}

	activities := make([]core.RemoteActivity, 0, len(payload))
	for _, p := range payload {
		activities = append(activities, p.toRemote())
	}
	return activities, nil
}

// UpdateActivity pushes name, type and description changes to Strava.
func (c *Client) UpdateActivity(
	ctx context.Context,
	accessToken, stravaID string,
	update core.ActivityUpdate,
) error {
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal activity update: %w", err)
	}

	start := time.Now()
	resp, err := c.api.Put(
		ctx,
		c.apiURL+"/activities/"+url.PathEscape(stravaID),
		retry.WithBody("application/json", bytes.NewReader(data)),
		retry.WithHeader("Authorization", "Bearer "+accessToken),
	)
	c.metrics.RecordExternalAPICall(opUpdateActivity, time.Since(start))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteRequest, err)
	}
	defer resp.Body.Close()

	_, err = readBody(resp)
	return err
}

// readBody returns the body of a 2xx response, or ErrRemoteResponse with
// Strava's fault message otherwise.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", ErrRemoteResponse)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var fault apiError
		if err := json.Unmarshal(body, &fault); err == nil && fault.Message != "" {
			return nil, fmt.Errorf("%w: HTTP %d - %s", ErrRemoteResponse, resp.StatusCode, fault.Message)
		}
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return nil, fmt.Errorf("%w: HTTP %d - %s", ErrRemoteResponse, resp.StatusCode, preview)
	}
	return body, nil
}

func toGrant(tok *oauth2.Token) *core.TokenGrant {
	grant := &core.TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	// Strava sends an absolute expires_at next to expires_in; prefer it.
	if secs, ok := numeric(tok.Extra("expires_at")); ok && secs > 0 {
		grant.ExpiresAt = time.Unix(int64(secs), 0)
	}
	if athlete, ok := tok.Extra("athlete").(map[string]any); ok {
		if id, ok := numeric(athlete["id"]); ok {
			grant.AthleteID = strconv.FormatInt(int64(id), 10)
		}
	}
	return grant
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
