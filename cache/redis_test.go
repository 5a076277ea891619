package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestTokenDenylist(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	d := NewTokenDenylist(client)

	revoked, err := d.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "abc", time.Minute))
	revoked, err = d.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = d.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestLockerIsExclusive(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	l := NewLocker(client)
	key := LyricsLockKey(7)

	release, ok, err := l.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, mr.Exists(key))

	_, ok, err = l.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockerReleaseKeepsForeignLock(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	l := NewLocker(client)
	key := LyricsLockKey(8)

	release, ok, err := l.TryLock(ctx, key, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// lock expires and someone else takes it
	mr.FastForward(2 * time.Second)
	_, ok, err = l.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	release()
	assert.True(t, mr.Exists(key))
}
