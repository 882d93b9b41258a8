package querycache

import (
	"context"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIgnoresParameterOrder(t *testing.T) {
	a := Key("/generation", url.Values{"region_code": {"FR"}, "date_start": {"2023-01-01"}})
	b := Key("/generation", url.Values{"date_start": {"2023-01-01"}, "region_code": {"FR"}})
	c := Key("/generation", url.Values{"date_start": {"2023-01-02"}, "region_code": {"FR"}})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "generation:")
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(context.Background(), "", time.Minute)
	require.Error(t, err)
	_, err = New(context.Background(), "redis://localhost:6379/0", 0)
	require.Error(t, err)
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	body, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, body)
	require.NoError(t, c.Set(context.Background(), "k", []byte("v")))
}

func TestRedisRoundTrip(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := New(ctx, redisURL, time.Minute)
	require.NoError(t, err)
	defer c.Close()
	c.prefix = "lcatricity:test:" + time.Now().Format("150405.000000") + ":"

	key := Key("/calculate", url.Values{"region_code": {"FR"}})
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte(`[{"RegionCode":"FR"}]`)))
	body, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"RegionCode":"FR"}]`, string(body))

	removed, err := c.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
