package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/db"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"`
	Path     string `mapstructure:"path"`
	SeedPath string `mapstructure:"seedPath"`
	Seed     bool   `mapstructure:"seed"`
}

type DepotConfig struct {
	Return bool `mapstructure:"return"`
	// Location is nil when no depot is configured.
	Location *domain.Coordinates `mapstructure:"-"`
}

type PolylineConfig struct {
	Provider     string        `mapstructure:"provider"`
	GoogleAPIKey string        `mapstructure:"googleAPIKey"`
	ORSAPIKey    string        `mapstructure:"orsAPIKey"`
	Cache        string        `mapstructure:"cache"`
	CacheTTL     time.Duration `mapstructure:"cacheTTL"`
	RedisURL     string        `mapstructure:"redisURL"`
}

type OptimizerConfig struct {
	MaxPasses   int           `mapstructure:"maxPasses"`
	MaxDuration time.Duration `mapstructure:"maxDuration"`
}

type RoutingConfig struct {
	DefaultServiceType string `mapstructure:"defaultServiceType"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Depot     DepotConfig     `mapstructure:"depot"`
	Polyline  PolylineConfig  `mapstructure:"polyline"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Routing   RoutingConfig   `mapstructure:"routing"`
}

// DSN returns the data source name for the configured driver.
func (c DBConfig) DSN() string {
	if c.Driver == db.DriverPostgres {
		return c.URL
	}
	return c.Path
}

var envBindings = map[string]string{
	"server.port":                "PORT",
	"db.driver":                  "DB_DRIVER",
	"db.url":                     "DATABASE_URL",
	"db.path":                    "DB_PATH",
	"db.seedPath":                "SEED_PATH",
	"db.seed":                    "SEED_ON_START",
	"depot.lat":                  "DEPOT_LAT",
	"depot.lng":                  "DEPOT_LNG",
	"depot.return":               "DEPOT_RETURN",
	"polyline.provider":          "POLYLINE_PROVIDER",
	"polyline.googleAPIKey":      "GOOGLE_MAPS_API_KEY",
	"polyline.orsAPIKey":         "ORS_API_KEY",
	"polyline.cache":             "POLYLINE_CACHE",
	"polyline.cacheTTL":          "POLYLINE_CACHE_TTL",
	"polyline.redisURL":          "REDIS_URL",
	"optimizer.maxPasses":        "TWO_OPT_MAX_PASSES",
	"optimizer.maxDuration":      "TWO_OPT_MAX_DURATION",
	"routing.defaultServiceType": "DEFAULT_SERVICE_TYPE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("db.driver", db.DriverSQLite)
	v.SetDefault("db.path", "data/app.db")
	v.SetDefault("db.seedPath", "data/seeds/orders.json")
	v.SetDefault("db.seed", true)
	v.SetDefault("depot.return", true)
	v.SetDefault("polyline.provider", "none")
	v.SetDefault("polyline.cache", "memory")
	v.SetDefault("polyline.cacheTTL", 24*time.Hour)
	v.SetDefault("optimizer.maxPasses", 1000)
	v.SetDefault("optimizer.maxDuration", 2*time.Second)
	v.SetDefault("routing.defaultServiceType", "PickupDelivery")
}

// Load reads an optional .env file and an optional config.yaml in dir, then
// overrides both with environment variables.
func Load(dir string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("load config: bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("load config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: decode: %w", err)
	}

	if v.IsSet("depot.lat") || v.IsSet("depot.lng") {
		if !v.IsSet("depot.lat") || !v.IsSet("depot.lng") {
			return Config{}, errors.New("load config: DEPOT_LAT and DEPOT_LNG must be set together")
		}
		depot := domain.Coordinates{Lat: v.GetFloat64("depot.lat"), Lng: v.GetFloat64("depot.lng")}
		if err := depot.Validate(); err != nil {
			return Config{}, fmt.Errorf("load config: depot: %w", err)
		}
		cfg.Depot.Location = &depot
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	if c.DB.Driver == "postgres" {
		c.DB.Driver = db.DriverPostgres
	}
	switch c.DB.Driver {
	case db.DriverPostgres:
		if strings.TrimSpace(c.DB.URL) == "" {
			return errors.New("DATABASE_URL is required for the pgx driver")
		}
	case db.DriverSQLite:
		if strings.TrimSpace(c.DB.Path) == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}

	c.Polyline.Provider = strings.ToLower(strings.TrimSpace(c.Polyline.Provider))
	switch c.Polyline.Provider {
	case "google":
		if c.Polyline.GoogleAPIKey == "" {
			return errors.New("GOOGLE_MAPS_API_KEY is required for the google polyline provider")
		}
	case "ors":
		if c.Polyline.ORSAPIKey == "" {
			return errors.New("ORS_API_KEY is required for the ors polyline provider")
		}
	case "none":
	default:
		return fmt.Errorf("unsupported POLYLINE_PROVIDER %q", c.Polyline.Provider)
	}

	c.Polyline.Cache = strings.ToLower(strings.TrimSpace(c.Polyline.Cache))
	switch c.Polyline.Cache {
	case "redis":
		if c.Polyline.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis polyline cache")
		}
	case "memory", "sql", "none":
	default:
		return fmt.Errorf("unsupported POLYLINE_CACHE %q", c.Polyline.Cache)
	}

	if c.Optimizer.MaxPasses < 0 || c.Optimizer.MaxDuration < 0 {
		return errors.New("2-opt budget must not be negative")
	}

	return nil
}

// Get returns the environment variable key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
