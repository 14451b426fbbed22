package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-fitdash/fitdash/internal/core"
	"github.com/go-fitdash/fitdash/internal/logging"
	"github.com/go-fitdash/fitdash/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mirrorJob(userID, stravaID, name string) MirrorJob {
	return MirrorJob{
		UserID:     userID,
		ActivityID: "activity-" + stravaID,
		StravaID:   stravaID,
		Update:     core.ActivityUpdate{Name: ptr(name)},
	}
}

func TestMirrorDispatcher_FullBufferDeadLetters(t *testing.T) {
	strava := &fakeStrava{
		updateStart: make(chan struct{}, 4),
		updateBlock: make(chan struct{}),
	}
	env := newTestEnv(t, strava)
	user := createUser(t, env.store, "fb-1")
	linkToken(t, env.store, user.ID, time.Now().Add(time.Hour))

	d := NewMirrorDispatcher(env.tokens, strava, env.store,
		metrics.NewNoopMetrics(), logging.Discard(), 1, 5*time.Second)

	d.Enqueue(mirrorJob(user.ID, "1", "in flight"))
	select {
	case <-strava.updateStart:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never picked up the first job")
	}

	d.Enqueue(mirrorJob(user.ID, "2", "buffered"))
	d.Enqueue(mirrorJob(user.ID, "3", "overflow"))

	failures, err := env.store.ListMirrorFailuresByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "3", failures[0].StravaID)
	assert.Equal(t, "mirror buffer full", failures[0].Reason)

	close(strava.updateBlock)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	calls := strava.updateCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "1", calls[0].StravaID)
	assert.Equal(t, "2", calls[1].StravaID)
}

func TestMirrorDispatcher_EnqueueAfterShutdown(t *testing.T) {
	strava := &fakeStrava{}
	env := newTestEnv(t, strava)
	user := createUser(t, env.store, "fb-1")
	linkToken(t, env.store, user.ID, time.Now().Add(time.Hour))

	env.drainMirror(t)
	env.mirror.Enqueue(mirrorJob(user.ID, "7", "late"))

	assert.Empty(t, strava.updateCalls())
	failures, err := env.store.ListMirrorFailuresByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "mirror dispatcher is shut down", failures[0].Reason)
	assert.JSONEq(t, `{"name":"late"}`, failures[0].Payload)
}

func TestMirrorDispatcher_ShutdownHonorsContext(t *testing.T) {
	strava := &fakeStrava{
		updateStart: make(chan struct{}, 1),
		updateBlock: make(chan struct{}),
	}
	env := newTestEnv(t, strava)
	user := createUser(t, env.store, "fb-1")
	linkToken(t, env.store, user.ID, time.Now().Add(time.Hour))

	d := NewMirrorDispatcher(env.tokens, strava, env.store,
		metrics.NewNoopMetrics(), logging.Discard(), 4, 5*time.Second)
	d.Enqueue(mirrorJob(user.ID, "1", "stuck"))
	<-strava.updateStart

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Shutdown(ctx), context.DeadlineExceeded)

	close(strava.updateBlock)
	require.NoError(t, d.Shutdown(context.Background()))
}

func TestMirrorDispatcher_ShutdownIsIdempotent(t *testing.T) {
	env := newTestEnv(t, &fakeStrava{})
	env.drainMirror(t)
	env.drainMirror(t)
}
