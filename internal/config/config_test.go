package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "data/app.db", cfg.DB.DSN())
	assert.True(t, cfg.DB.Seed)
	assert.Nil(t, cfg.Depot.Location, "no depot unless configured")
	assert.True(t, cfg.Depot.Return)
	assert.Equal(t, "none", cfg.Polyline.Provider)
	assert.Equal(t, "memory", cfg.Polyline.Cache)
	assert.Equal(t, 24*time.Hour, cfg.Polyline.CacheTTL)
	assert.Equal(t, 1000, cfg.Optimizer.MaxPasses)
	assert.Equal(t, 2*time.Second, cfg.Optimizer.MaxDuration)
	assert.Equal(t, "PickupDelivery", cfg.Routing.DefaultServiceType)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/routes")
	t.Setenv("DEPOT_LAT", "46.517151")
	t.Setenv("DEPOT_LNG", "24.5223398")
	t.Setenv("DEPOT_RETURN", "false")
	t.Setenv("POLYLINE_PROVIDER", "google")
	t.Setenv("GOOGLE_MAPS_API_KEY", "key")
	t.Setenv("POLYLINE_CACHE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TWO_OPT_MAX_DURATION", "500ms")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "pgx", cfg.DB.Driver)
	assert.Equal(t, "postgres://u:p@localhost:5432/routes", cfg.DB.DSN())
	require.NotNil(t, cfg.Depot.Location)
	assert.Equal(t, 46.517151, cfg.Depot.Location.Lat)
	assert.Equal(t, 24.5223398, cfg.Depot.Location.Lng)
	assert.False(t, cfg.Depot.Return)
	assert.Equal(t, "google", cfg.Polyline.Provider)
	assert.Equal(t, "redis", cfg.Polyline.Cache)
	assert.Equal(t, 500*time.Millisecond, cfg.Optimizer.MaxDuration)
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "7070"
polyline:
  provider: ors
  orsAPIKey: ors-key
optimizer:
  maxPasses: 50
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "ors", cfg.Polyline.Provider)
	assert.Equal(t, "ors-key", cfg.Polyline.ORSAPIKey)
	assert.Equal(t, 50, cfg.Optimizer.MaxPasses)

	// environment wins over the file
	t.Setenv("PORT", "6060")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Server.Port)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"pgx without url":      {"DB_DRIVER": "pgx"},
		"unknown driver":       {"DB_DRIVER": "mysql"},
		"google without key":   {"POLYLINE_PROVIDER": "google"},
		"ors without key":      {"POLYLINE_PROVIDER": "ors"},
		"unknown provider":     {"POLYLINE_PROVIDER": "here"},
		"redis without url":    {"POLYLINE_CACHE": "redis"},
		"half a depot":         {"DEPOT_LAT": "46.5"},
		"depot out of range":   {"DEPOT_LAT": "95", "DEPOT_LNG": "24"},
		"negative pass budget": {"TWO_OPT_MAX_PASSES": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestGet(t *testing.T) {
	t.Setenv("ROUTE_PLANNER_TEST_KEY", "value")
	assert.Equal(t, "value", Get("ROUTE_PLANNER_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", Get("ROUTE_PLANNER_TEST_MISSING", "fallback"))
}
