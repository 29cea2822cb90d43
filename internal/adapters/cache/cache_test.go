package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"route-planner-service/internal/adapters/repositories"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/db"
	"route-planner-service/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseCache(t *testing.T, c ports.PolylineCache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k1", "poly-1"))
	pl, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "poly-1", pl)

	require.NoError(t, c.Put(ctx, "k1", "poly-2"))
	pl, _, err = c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "poly-2", pl)
}

func TestRedisPolylineCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c := NewRedisPolylineCache(client, time.Hour)
	exerciseCache(t, c)

	assert.True(t, mr.Exists(redisKeyPrefix+"k1"))
	mr.FastForward(2 * time.Hour)

	_, ok, err := c.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after TTL")
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestMemoryPolylineCache(t *testing.T) {
	exerciseCache(t, NewMemoryPolylineCache(time.Hour))

	c := NewMemoryPolylineCache(0)
	require.NoError(t, c.Put(context.Background(), "k", "v"))
	c.Flush()
	_, ok, _ := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestSQLPolylineCache(t *testing.T) {
	conn, err := db.Open(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, repositories.InitSchema(context.Background(), conn, repositories.SQLite))

	exerciseCache(t, NewSQLPolylineCache(conn, repositories.SQLite, time.Hour))

	expired := NewSQLPolylineCache(conn, repositories.SQLite, time.Nanosecond)
	time.Sleep(time.Millisecond)
	_, ok, err := expired.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = expired.Get(context.Background(), " ")
	assert.Error(t, err)
}

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Compute(_ context.Context, wps []domain.Coordinates) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return "computed", nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache down")
}
func (brokenCache) Put(context.Context, string, string) error { return errors.New("cache down") }

var route = []domain.Coordinates{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}

func TestCachingProviderHitsCacheOnSecondCall(t *testing.T) {
	next := &countingProvider{}
	p := NewCachingPolylineProvider(next, NewMemoryPolylineCache(time.Hour))

	for i := 0; i < 3; i++ {
		pl, err := p.Compute(context.Background(), route)
		require.NoError(t, err)
		assert.Equal(t, "computed", pl)
	}
	assert.Equal(t, 1, next.calls)
}

func TestCachingProviderSurvivesCacheFailure(t *testing.T) {
	next := &countingProvider{}
	p := NewCachingPolylineProvider(next, brokenCache{})

	pl, err := p.Compute(context.Background(), route)
	require.NoError(t, err)
	assert.Equal(t, "computed", pl)
}

func TestCachingProviderDoesNotCacheFailures(t *testing.T) {
	next := &countingProvider{err: errors.New("upstream")}
	cache := NewMemoryPolylineCache(time.Hour)
	p := NewCachingPolylineProvider(next, cache)

	_, err := p.Compute(context.Background(), route)
	require.Error(t, err)

	_, ok, _ := cache.Get(context.Background(), WaypointKey(route))
	assert.False(t, ok)
}

func TestWaypointKey(t *testing.T) {
	a := WaypointKey(route)
	assert.Equal(t, a, WaypointKey([]domain.Coordinates{{Lat: 1.0000001, Lng: 2}, {Lat: 3, Lng: 4}}))
	assert.NotEqual(t, a, WaypointKey([]domain.Coordinates{{Lat: 3, Lng: 4}, {Lat: 1, Lng: 2}}))
	assert.Len(t, a, 64)
}
