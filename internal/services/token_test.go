package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-fitdash/fitdash/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureValidToken_NotConnected(t *testing.T) {
	strava := &fakeStrava{}
	env := newTestEnv(t, strava)
	user := createUser(t, env.store, "fb-1")

	token, err := env.tokens.EnsureValidToken(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Nil(t, token)
	assert.Zero(t, strava.refreshCalls)
}

func TestEnsureValidToken_FreshTokenIsNotRefreshed(t *testing.T) {
	strava := &fakeStrava{}
	env := newTestEnv(t, strava)
	user := createUser(t, env.store, "fb-1")
	linkToken(t, env.store, user.ID, time.Now().Add(time.Hour))

	token, err := env.tokens.EnsureValidToken(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-old", token.AccessToken)
	assert.Zero(t, strava.refreshCalls)
}

func TestEnsureValidToken_ExpiredTokenRefreshedOnceAndPersisted(t *testing.T) {
	newExpiry := time.Now().Add(6 * time.Hour).UTC().Truncate(time.Second)
	strava := &fakeStrava{refreshGrant: &core.TokenGrant{
		AccessToken:  "access-new",
		RefreshToken: "refresh-new",
		ExpiresAt:    newExpiry,
	}}
	env := newTestEnv(t, strava)
	user := createUser(t, env.store, "fb-1")
	linkToken(t, env.store, user.ID, time.Now().Add(-time.Hour))

	token, err := env.tokens.EnsureValidToken(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, strava.refreshCalls)
	assert.Equal(t, "access-new", token.AccessToken)

	stored, err := env.store.GetStravaTokenByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-new", stored.AccessToken)
	assert.Equal(t, "refresh-new", stored.RefreshToken)
	assert.True(t, stored.ExpiresAt.Equal(newExpiry))
	assert.Equal(t, "42", stored.StravaAthleteID, "refresh keeps the linked athlete")
}

func TestEnsureValidToken_RefreshesWithinSkew(t *testing.T) {
	strava := &fakeStrava{refreshGrant: &core.TokenGrant{
		AccessToken:  "access-new",
		RefreshToken: "refresh-new",
		ExpiresAt:    time.Now().Add(6 * time.Hour),
	}}
	env := newTestEnv(t, strava)
	user := createUser(t, env.store, "fb-1")
	// still valid, but inside the one minute skew
	linkToken(t, env.store, user.ID, time.Now().Add(30*time.Second))

	token, err := env.tokens.EnsureValidToken(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, strava.refreshCalls)
	assert.Equal(t, "access-new", token.AccessToken)
}

func TestEnsureValidToken_RefreshFailureReturnsStaleToken(t *testing.T) {
	strava := &fakeStrava{refreshErr: errStravaDown}
	env := newTestEnv(t, strava)
	user := createUser(t, env.store, "fb-1")
	expired := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	linkToken(t, env.store, user.ID, expired)

	token, err := env.tokens.EnsureValidToken(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, 1, strava.refreshCalls, "exactly one refresh attempt")
	assert.Equal(t, "access-old", token.AccessToken)
	assert.Equal(t, "refresh-old", token.RefreshToken)

	stored, err := env.store.GetStravaTokenByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-old", stored.AccessToken)
	assert.True(t, stored.ExpiresAt.Equal(expired))
}

func TestStoreInitialToken_RelinkOverwrites(t *testing.T) {
	strava := &fakeStrava{}
	env := newTestEnv(t, strava)
	user := createUser(t, env.store, "fb-1")
	ctx := context.Background()

	connected, err := env.tokens.IsConnected(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, connected)

	first, err := env.tokens.ExchangeCode(ctx, "one")
	require.NoError(t, err)
	stored, err := env.tokens.StoreInitialToken(ctx, user.ID, first)
	require.NoError(t, err)
	assert.Equal(t, "access-one", stored.AccessToken)

	second, err := env.tokens.ExchangeCode(ctx, "two")
	require.NoError(t, err)
	relinked, err := env.tokens.StoreInitialToken(ctx, user.ID, second)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, relinked.ID)
	assert.Equal(t, "access-two", relinked.AccessToken)
	assert.Equal(t, "refresh-two", relinked.RefreshToken)

	connected, err = env.tokens.IsConnected(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, connected)
}

func TestAuthorizationURL(t *testing.T) {
	env := newTestEnv(t, &fakeStrava{})
	assert.Contains(t, env.tokens.AuthorizationURL("abc"), "state=abc")
}
