package services

import (
	"context"
	"testing"
	"time"

	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "profile:abc", CacheKey("profile", "abc"))
}

func TestLocalCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(1)

	in := models.Profile{UUID: "abc", Name: "n", OS: "lin"}
	require.NoError(t, c.Set(ctx, "profile:abc", in, time.Minute))

	var out models.Profile
	ok, err := c.Get(ctx, "profile:abc", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", out.UUID)
	assert.Equal(t, "lin", out.OS)
}

func TestLocalCache_MissAndDelete(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(0)

	var out models.Profile
	ok, err := c.Get(ctx, "profile:missing", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "profile:x", models.Profile{UUID: "x"}, 0))
	require.NoError(t, c.Delete(ctx, "profile:x"))
	ok, err = c.Get(ctx, "profile:x", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTTLSeconds(t *testing.T) {
	assert.Equal(t, 1, ttlSeconds(0))
	assert.Equal(t, 1, ttlSeconds(300*time.Millisecond))
	assert.Equal(t, 120, ttlSeconds(2*time.Minute))
}

func TestLocalReserver(t *testing.T) {
	ctx := context.Background()
	r := NewLocalReserver()

	ok, err := r.Reserve(ctx, "port:10200", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Reserve(ctx, "port:10200", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second reservation of the same key must fail")

	ok, err = r.Reserve(ctx, "port:10201", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
