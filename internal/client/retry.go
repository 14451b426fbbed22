package client

import (
	"fmt"
	"net/http"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

// Strava authenticates per request with the user's bearer token, so the
// transport itself carries no credentials.
const authModeNone = "none"

// CreateHTTPClient creates the timeout-bound HTTP client shared by the
// Strava OAuth token endpoint and the REST API.
func CreateHTTPClient(timeout time.Duration) (*http.Client, error) {
	client, err := httpclient.NewAuthClient(
		authModeNone,
		"",
		httpclient.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	return client, nil
}

// CreateRetryClient wraps httpClient with exponential-backoff retries for
// transient Strava API failures (5xx, 429, network errors).
func CreateRetryClient(
	httpClient *http.Client,
	maxRetries int,
	retryDelay, maxRetryDelay time.Duration,
) (*retry.Client, error) {
	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(httpClient),
		retry.WithMaxRetries(maxRetries),
		retry.WithInitialRetryDelay(retryDelay),
		retry.WithMaxRetryDelay(maxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}
	return retryClient, nil
}
