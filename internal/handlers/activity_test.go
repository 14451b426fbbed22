package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)

type activitiesResponse struct {
	Activities []models.Activity `json:"activities"`
}

func TestListActivities_Empty(t *testing.T) {
	app := newTestApp(t, &fakeStrava{})
	app.login(t, "fb-1")

	w := app.do(http.MethodGet, "/api/activities", "fb-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"activities":[]}`, w.Body.String())
}

func TestSync_NotConnected(t *testing.T) {
	app := newTestApp(t, &fakeStrava{})
	app.login(t, "fb-1")

	w := app.do(http.MethodPost, "/api/activities/sync", "fb-1", "{}")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Strava not connected"}`, w.Body.String())
}

func TestSync_RemoteFailure(t *testing.T) {
	app := newTestApp(t, &fakeStrava{listErr: errors.New("503")})
	user := app.login(t, "fb-1")
	app.link(t, user.ID)

	w := app.do(http.MethodPost, "/api/activities/sync", "fb-1", "{}")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch activities from Strava"}`, w.Body.String())
}

func TestSyncThenList(t *testing.T) {
	strava := &fakeStrava{activities: []core.RemoteActivity{
		remoteRun(111, "Morning Run", day),
		remoteRun(222, "Evening Run", day.Add(10*time.Hour)),
	}}
	app := newTestApp(t, strava)
	user := app.login(t, "fb-1")
	app.link(t, user.ID)

	w := app.do(http.MethodPost, "/api/activities/sync", "fb-1", "{}")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Synced 2 activities","totalFetched":2,"saved":2}`, w.Body.String())

	w = app.do(http.MethodGet, "/api/activities", "fb-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp activitiesResponse
	decode(t, w, &resp)
	require.Len(t, resp.Activities, 2)
	assert.Equal(t, "222", resp.Activities[0].StravaID, "newest first")
	assert.Equal(t, "111", resp.Activities[1].StravaID)
}

func seed(t *testing.T, app *testApp, userID string, stravaID string) *models.Activity {
	t.Helper()
	ctx := context.Background()
	distance := 5000.0
	require.NoError(t, app.store.UpsertActivity(ctx, &models.Activity{
		UserID:    userID,
		StravaID:  stravaID,
		Name:      "Morning Run",
		Type:      "Run",
		StartDate: day,
		Distance:  &distance,
	}))
	activity, err := app.store.GetActivityByStravaID(ctx, stravaID)
	require.NoError(t, err)
	return activity
}

func TestUpdateActivity(t *testing.T) {
	app := newTestApp(t, &fakeStrava{})
	user := app.login(t, "fb-1")
	app.link(t, user.ID)
	activity := seed(t, app, user.ID, "111")

	w := app.do(http.MethodPatch, "/api/activities/"+activity.ID, "fb-1", `{"name":"Tempo"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Activity models.Activity `json:"activity"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "Tempo", resp.Activity.Name)
	assert.Equal(t, "Run", resp.Activity.Type)
	require.NotNil(t, resp.Activity.Distance)
	assert.InDelta(t, 5000.0, *resp.Activity.Distance, 0.001)

	require.NoError(t, app.mirror.Shutdown(context.Background()))
	app.strava.mu.Lock()
	defer app.strava.mu.Unlock()
	assert.Equal(t, []string{"111"}, app.strava.updates)
}

func TestUpdateActivity_Errors(t *testing.T) {
	app := newTestApp(t, &fakeStrava{})
	owner := app.login(t, "fb-owner")
	app.login(t, "fb-other")
	activity := seed(t, app, owner.ID, "111")

	tests := []struct {
		name   string
		uid    string
		id     string
		body   string
		status int
	}{
		{"other user", "fb-other", activity.ID, `{"name":"x"}`, http.StatusNotFound},
		{"missing", "fb-owner", "nope", `{"name":"x"}`, http.StatusNotFound},
		{"empty patch", "fb-owner", activity.ID, `{}`, http.StatusBadRequest},
		{"malformed", "fb-owner", activity.ID, `{"distance":"far"}`, http.StatusBadRequest},
		{"negative distance", "fb-owner", activity.ID, `{"distance":-1}`, http.StatusBadRequest},
		{"unauthenticated", "", activity.ID, `{"name":"x"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(http.MethodPatch, "/api/activities/"+tt.id, tt.uid, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	stored, err := app.store.GetActivityByStravaID(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, "Morning Run", stored.Name)
}

func TestMirrorFailures_Empty(t *testing.T) {
	app := newTestApp(t, &fakeStrava{})
	app.login(t, "fb-1")

	w := app.do(http.MethodGet, "/api/activities/mirror-failures", "fb-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"failures":[]}`, w.Body.String())
}
