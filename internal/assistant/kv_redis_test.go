package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisKVRoundTrip(t *testing.T) {
	_, client := newTestRedis(t)
	kv := NewRedisKV(client, 0)
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "vh_chat_seen:abc", "1"))

	val, ok, err := kv.Get(ctx, "vh_chat_seen:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", val)
}

func TestRedisKVTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	kv := NewRedisKV(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v"))
	assert.Greater(t, mr.TTL("k"), time.Duration(0))

	mr.FastForward(2 * time.Minute)
	_, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisKVNilClientPanics(t *testing.T) {
	assert.Panics(t, func() { NewRedisKV(nil, 0) })
}