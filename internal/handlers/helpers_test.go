package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-fitdash/fitdash/internal/cache"
	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/logging"
	"github.com/go-fitdash/fitdash/internal/metrics"
	"github.com/go-fitdash/fitdash/internal/middleware"
	"github.com/go-fitdash/fitdash/internal/models"
	"github.com/go-fitdash/fitdash/internal/services"
	"github.com/go-fitdash/fitdash/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testFrontendURL = "https://dash.example.com"

type fakeStrava struct {
	mu          sync.Mutex
	exchangeErr error
	activities  []core.RemoteActivity
	listErr     error
	updates     []string
}

func (f *fakeStrava) AuthCodeURL(state string) string {
	return "https://www.strava.com/oauth/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeStrava) Exchange(ctx context.Context, code string) (*core.TokenGrant, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &core.TokenGrant{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		ExpiresAt:    time.Now().Add(6 * time.Hour),
		AthleteID:    "42",
	}, nil
}

func (f *fakeStrava) Refresh(ctx context.Context, refreshToken string) (*core.TokenGrant, error) {
	return nil, io.ErrUnexpectedEOF
}

func (f *fakeStrava) ListActivities(
	ctx context.Context,
	accessToken string,
	page, perPage int,
) ([]core.RemoteActivity, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if page > 1 {
		return nil, nil
	}
	return f.activities, nil
}

func (f *fakeStrava) UpdateActivity(
	ctx context.Context,
	accessToken, stravaID string,
	update core.ActivityUpdate,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, stravaID)
	return nil
}

type testApp struct {
	router *gin.Engine
	store  *store.Store
	strava *fakeStrava
	mirror *services.MirrorDispatcher
}

func newTestApp(t *testing.T, strava *fakeStrava) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.New(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	recorder := metrics.NewNoopMetrics()
	logger := logging.Discard()

	users := services.NewUserService(s, cache.NewMemoryCache[models.User](), time.Minute, recorder, logger)
	tokens := services.NewTokenService(s, strava, recorder, logger, time.Minute)
	syncer := services.NewSyncService(s, tokens, strava, recorder, logger, 50, 10)
	mirror := services.NewMirrorDispatcher(tokens, strava, s, recorder, logger, 16, 5*time.Second)
	t.Cleanup(func() { _ = mirror.Shutdown(context.Background()) })
	activities := services.NewActivityService(s, mirror, recorder, logger)

	authHandler := NewAuthHandler(users, logger)
	stravaHandler := NewStravaHandler(tokens, testFrontendURL, recorder, logger)
	activityHandler := NewActivityHandler(syncer, activities, logger)

	r := gin.New()
	r.Use(sessions.Sessions("fitdash_session", cookie.NewStore([]byte("test-secret"))))
	identity := middleware.RequireIdentity(users, logger)

	r.POST("/api/auth/login", authHandler.Login)
	r.GET("/api/auth/me", identity, authHandler.Me)
	r.GET("/api/strava/connect", identity, stravaHandler.Connect)
	r.GET("/api/strava/callback", stravaHandler.Callback)
	r.GET("/api/strava/status", identity, stravaHandler.Status)
	r.GET("/api/activities", identity, activityHandler.List)
	r.POST("/api/activities/sync", identity, activityHandler.Sync)
	r.GET("/api/activities/mirror-failures", identity, activityHandler.MirrorFailures)
	r.PATCH("/api/activities/:id", identity, activityHandler.Update)

	return &testApp{router: r, store: s, strava: strava, mirror: mirror}
}

// do sends a request, authenticated as uid when uid is not empty.
func (a *testApp) do(method, path, uid, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if uid != "" {
		req.Header.Set("Authorization", "Bearer firebase-id-token")
		req.Header.Set(middleware.HeaderFirebaseUID, uid)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(t *testing.T, uid string) *models.User {
	t.Helper()
	w := a.do(http.MethodPost, "/api/auth/login", "",
		`{"firebaseUid":"`+uid+`","email":"`+uid+`@example.com","name":"Runner"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		User models.User `json:"user"`
	}
	decode(t, w, &resp)
	return &resp.User
}

func (a *testApp) link(t *testing.T, userID string) {
	t.Helper()
	_, err := a.store.UpsertStravaToken(context.Background(), &models.StravaToken{
		UserID:          userID,
		AccessToken:     "access",
		RefreshToken:    "refresh",
		ExpiresAt:       time.Now().Add(time.Hour),
		StravaAthleteID: "42",
	})
	require.NoError(t, err)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func remoteRun(id int64, name string, start time.Time) core.RemoteActivity {
	distance := 5000.0
	movingTime := 1500
	return core.RemoteActivity{
		ID:         id,
		Name:       name,
		Type:       "Run",
		StartDate:  start,
		Distance:   &distance,
		MovingTime: &movingTime,
	}
}
