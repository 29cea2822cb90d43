package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryPolylineCache keeps polylines in process memory.
type MemoryPolylineCache struct {
	c *gocache.Cache
}

func NewMemoryPolylineCache(ttl time.Duration) *MemoryPolylineCache {
	if ttl <= 0 {
		return &MemoryPolylineCache{c: gocache.New(gocache.NoExpiration, 0)}
	}
	return &MemoryPolylineCache{c: gocache.New(ttl, 2*ttl)}
}

func (m *MemoryPolylineCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *MemoryPolylineCache) Put(_ context.Context, key string, polyline string) error {
	m.c.SetDefault(key, polyline)
	return nil
}

// Flush drops every cached entry.
func (m *MemoryPolylineCache) Flush() { m.c.Flush() }
