package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/quest-weaver/pkg/session"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := NewRedisStorage("redis://"+mr.Addr(), ttl, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestNewRedisStorage_Address(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStorage(mr.Addr(), 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, DefaultSessionTTL, store.sessionTTL)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestNewRedisStorage_BadURL(t *testing.T) {
	_, err := NewRedisStorage("http://localhost:6379", time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestRedisStorage_SaveLoadDelete(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	s := session.New()
	s.NarrativeState = "The tavern is loud."
	s.Transcript = append(s.Transcript, session.Line{Kind: session.LineNarrator, Text: "Welcome, traveler."})
	require.NoError(t, store.SaveSession(ctx, s))

	key := sessionKeyPrefix + s.ID.String()
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	loaded, err := store.LoadSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, s.NarrativeState, loaded.NarrativeState)
	assert.Equal(t, s.Transcript, loaded.Transcript)
	assert.Equal(t, session.DefaultDifficulty, loaded.Difficulty)

	require.NoError(t, store.DeleteSession(ctx, s.ID))
	_, err = store.LoadSession(ctx, s.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestRedisStorage_SessionExpires(t *testing.T) {
	store, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	s := session.New()
	require.NoError(t, store.SaveSession(ctx, s))

	mr.FastForward(2 * time.Minute)
	_, err := store.LoadSession(ctx, s.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestRedisStorage_LoadCorrupt(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	id := uuid.New()
	require.NoError(t, mr.Set(sessionKeyPrefix+id.String(), "{not json"))

	_, err := store.LoadSession(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrSessionNotFound)
}

func TestRedisStorage_Locks(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()
	id := uuid.New()

	ok, err := store.AcquireLock(ctx, id, "owner-a", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.AcquireLock(ctx, id, "owner-b", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	// Only the owner can release.
	require.NoError(t, store.ReleaseLock(ctx, id, "owner-b"))
	assert.True(t, mr.Exists(lockKeyPrefix+id.String()))

	require.NoError(t, store.ReleaseLock(ctx, id, "owner-a"))
	assert.False(t, mr.Exists(lockKeyPrefix+id.String()))

	ok, err = store.AcquireLock(ctx, id, "owner-b", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(time.Minute)
	ok, err = store.AcquireLock(ctx, id, "owner-c", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock should be free")
}

func TestRedisStorage_WaitForConnection(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	store, err := NewRedisStorage(mr.Addr(), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.WaitForConnection(context.Background(), 3, time.Millisecond))

	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, store.WaitForConnection(ctx, 100, 10*time.Millisecond))
}
