package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	store, err := NewRedisStore("redis://"+mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestRedisStore_FirstSeenThenDuplicate(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	dup, err := store.IsDuplicateAndRecord(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, dup, "first call must report not-duplicate")

	dup, err = store.IsDuplicateAndRecord(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, dup, "immediate replay must report duplicate")
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	dup, err := store.IsDuplicateAndRecord(ctx, "k1")
	require.NoError(t, err)
	require.False(t, dup)

	mr.FastForward(2 * time.Hour)

	dup, err = store.IsDuplicateAndRecord(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, dup, "expired key must be treated as fresh")
}

func TestRedisStore_DistinctKeys(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	dup, err := store.IsDuplicateAndRecord(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = store.IsDuplicateAndRecord(ctx, "k2")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestRedisStore_ErrorSurfaced(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	mr.Close()

	_, err := store.IsDuplicateAndRecord(ctx, "k1")
	assert.Error(t, err, "store failures must surface so the caller can fail open")
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore("not-a-url", time.Hour)
	assert.Error(t, err)
}
