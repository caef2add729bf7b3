package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

func TestMemoryCache_TypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", payload{Symbol: "INFY.NS", Score: 61.5}, time.Minute))

	var got payload
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, payload{Symbol: "INFY.NS", Score: 61.5}, got)

	var f float64
	require.NoError(t, mc.Set(ctx, "f", 42.25, 0))
	require.NoError(t, mc.Get(ctx, "f", &f))
	assert.Equal(t, 42.25, f)

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "missing", &s), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryCleanup(0), withClock(func() time.Time { return now }))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "short", "v", time.Second))
	require.NoError(t, mc.Set(ctx, "forever", "v", 0))

	now = now.Add(2 * time.Second)

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "short", &s), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "forever", &s))
	assert.Equal(t, "v", s)

	ok, err := mc.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0), withClock(func() time.Time { return now }))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	now = now.Add(time.Second)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}

func TestLayeredCache_PromotesFromRemote(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache(WithMemoryCleanup(0))
	defer remote.Close()
	lc := NewLayeredCache(remote, WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()

	require.NoError(t, remote.Set(ctx, "r", payload{Symbol: "TCS.NS", Score: 40}, 0))

	var got payload
	require.NoError(t, lc.Get(ctx, "r", &got))
	assert.Equal(t, "TCS.NS", got.Symbol)

	require.NoError(t, remote.Delete(ctx, "r"))
	got = payload{}
	require.NoError(t, lc.Get(ctx, "r", &got), "served from L1 after remote delete")
	assert.Equal(t, 40.0, got.Score)

	require.NoError(t, lc.Delete(ctx, "r"))
	assert.ErrorIs(t, lc.Get(ctx, "r", &got), ErrCacheMiss)
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "technical:TCS.NS:true", GenerateKeyWithParams("technical", "TCS.NS", true))
	assert.Equal(t, "smooth:abc", GenerateKey("smooth", "abc"))
}
