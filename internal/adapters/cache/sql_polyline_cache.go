package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-planner-service/internal/adapters/repositories"
	"route-planner-service/internal/platform/obs"
	"strings"
	"time"
)

// SQLPolylineCache is a SQL-backed cache for computed route polylines.
// Entries older than TTL are treated as misses; zero TTL never expires.
type SQLPolylineCache struct {
	DB      *sql.DB
	Dialect repositories.Dialect
	TTL     time.Duration
}

func NewSQLPolylineCache(db *sql.DB, dialect repositories.Dialect, ttl time.Duration) *SQLPolylineCache {
	return &SQLPolylineCache{DB: db, Dialect: dialect, TTL: ttl}
}

func (s *SQLPolylineCache) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "polyline.cache.sql.Get")(&err)

	if s.DB == nil {
		return "", false, errors.New("polyline cache: db is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, errors.New("get polyline cache: key must not be empty")
	}

	var polyline string
	var createdAt time.Time
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`
	SELECT polyline, created_at
	FROM polyline_cache
	WHERE cache_key = ?;
	`), key).Scan(&polyline, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get polyline cache: query polyline_cache table: %w", err)
	}

	if s.TTL > 0 && time.Since(createdAt) > s.TTL {
		return "", false, nil
	}

	return polyline, true, nil
}

func (s *SQLPolylineCache) Put(ctx context.Context, key string, polyline string) (err error) {
	defer obs.Time(ctx, "polyline.cache.sql.Put")(&err)

	if s.DB == nil {
		return errors.New("polyline cache: db is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("put polyline cache: key must not be empty")
	}

	_, err = s.DB.ExecContext(ctx, s.Dialect.Rebind(`
	INSERT INTO polyline_cache (cache_key, polyline, created_at)
	VALUES (?, ?, ?)
	ON CONFLICT (cache_key) DO UPDATE
	SET polyline = excluded.polyline,
		created_at = excluded.created_at;
	`), key, polyline, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put polyline cache: upsert polyline_cache: %w", err)
	}

	return nil
}
