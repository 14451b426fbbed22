package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-fitdash/fitdash/internal/cache"
	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/logging"
	"github.com/go-fitdash/fitdash/internal/metrics"
	"github.com/go-fitdash/fitdash/internal/models"
	"github.com/go-fitdash/fitdash/internal/store"

	"github.com/stretchr/testify/require"
)

var errStravaDown = errors.New("strava unavailable")

type updateCall struct {
	AccessToken string
	StravaID    string
	Update      core.ActivityUpdate
}

// fakeStrava is an in-memory core.StravaProvider.
type fakeStrava struct {
	mu sync.Mutex

	pages       [][]core.RemoteActivity
	listErrPage int // 1-based page that fails; 0 disables
	listCalls   []int
	listTokens  []string

	refreshGrant *core.TokenGrant
	refreshErr   error
	refreshCalls int

	updateErr   error
	updates     []updateCall
	updateStart chan struct{} // signalled when UpdateActivity begins, if set
	updateBlock chan struct{} // UpdateActivity waits on it, if set
}

var _ core.StravaProvider = (*fakeStrava)(nil)

func (f *fakeStrava) AuthCodeURL(state string) string {
	return "https://strava.test/oauth/authorize?state=" + state
}

func (f *fakeStrava) Exchange(ctx context.Context, code string) (*core.TokenGrant, error) {
	return &core.TokenGrant{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		ExpiresAt:    time.Now().Add(6 * time.Hour),
		AthleteID:    "42",
	}, nil
}

func (f *fakeStrava) Refresh(ctx context.Context, refreshToken string) (*core.TokenGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	grant := *f.refreshGrant
	return &grant, nil
}

func (f *fakeStrava) ListActivities(
	ctx context.Context,
	accessToken string,
	page, perPage int,
) ([]core.RemoteActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, page)
	f.listTokens = append(f.listTokens, accessToken)
	if f.listErrPage == page {
		return nil, errStravaDown
	}
	if page > len(f.pages) {
		return nil, nil
	}
	return f.pages[page-1], nil
}

func (f *fakeStrava) UpdateActivity(
	ctx context.Context,
	accessToken, stravaID string,
	update core.ActivityUpdate,
) error {
	if f.updateStart != nil {
		f.updateStart <- struct{}{}
	}
	if f.updateBlock != nil {
		<-f.updateBlock
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{accessToken, stravaID, update})
	return f.updateErr
}

func (f *fakeStrava) updateCalls() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]updateCall(nil), f.updates...)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createUser(t *testing.T, s *store.Store, uid string) *models.User {
	t.Helper()
	user := &models.User{FirebaseUID: uid, Email: uid + "@example.com", Name: uid}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func linkToken(t *testing.T, s *store.Store, userID string, expiresAt time.Time) *models.StravaToken {
	t.Helper()
	token, err := s.UpsertStravaToken(context.Background(), &models.StravaToken{
		UserID:          userID,
		AccessToken:     "access-old",
		RefreshToken:    "refresh-old",
		ExpiresAt:       expiresAt,
		StravaAthleteID: "42",
	})
	require.NoError(t, err)
	return token
}

func remote(id int64, name string, start time.Time) core.RemoteActivity {
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

func ptr[T any](v T) *T { return &v }

// testEnv wires the services the way bootstrap does, over SQLite and a fake Strava.
type testEnv struct {
	store      *store.Store
	strava     *fakeStrava
	tokens     *TokenService
	sync       *SyncService
	mirror     *MirrorDispatcher
	activities *ActivityService
	users      *UserService
}

func newTestEnv(t *testing.T, strava *fakeStrava) *testEnv {
	t.Helper()
	s := newTestStore(t)
	recorder := metrics.NewNoopMetrics()
	logger := logging.Discard()

	tokens := NewTokenService(s, strava, recorder, logger, time.Minute)
	mirror := NewMirrorDispatcher(tokens, strava, s, recorder, logger, 16, 5*time.Second)
	t.Cleanup(func() { _ = mirror.Shutdown(context.Background()) })

	return &testEnv{
		store:      s,
		strava:     strava,
		tokens:     tokens,
		sync:       NewSyncService(s, tokens, strava, recorder, logger, 50, 10),
		mirror:     mirror,
		activities: NewActivityService(s, mirror, recorder, logger),
		users: NewUserService(
			s, cache.NewMemoryCache[models.User](), time.Minute, recorder, logger,
		),
	}
}

// drainMirror waits for every queued mirror job to finish.
func (e *testEnv) drainMirror(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.mirror.Shutdown(ctx))
}
