// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types and validates that required
// values are present so they can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for everything but the store connection string.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before any config is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the LISTINGS_ prefix. Keys are lower-cased, the
	prefix is removed and a double underscore marks nesting, so

		LISTINGS_SERVER__PORT              -> server.port
		LISTINGS_DATABASE__CONN_STRING     -> database.conn_string
		LISTINGS_OBSERVABILITY__LOGGING__LEVEL -> observability.logging.level

	Single underscores are kept, because they are part of the key names.
*/

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "LISTINGS_"

// Legacy variables of the original deployment, honoured when the prefixed
// equivalents are not set.
const (
	LegacyConnStringEnv = "MONGODB_CONN_STRING"
	LegacyPortEnv       = "PORT"
)

// Store initialization strategies, see server.InitStore.
const (
	InitEagerBlocking    = "eager-blocking"
	InitEagerNonBlocking = "eager-nonblocking"
	InitLazy             = "lazy"
)

// Store backends.
const (
	DriverMongo    = "mongodb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf should map values from.
// The `validate:"..."` tags are used by go-playground/validator.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Timeouts are stored as seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	ShutdownTimeout    int      `koanf:"shutdown_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// InitStrategy decides when the store connection is established.
	InitStrategy string `koanf:"init_strategy" validate:"required,oneof=eager-blocking eager-nonblocking lazy"`

	// MaxPerPage caps the perPage query parameter of the list endpoint.
	MaxPerPage int `koanf:"max_per_page" validate:"min=1"`
}

// DatabaseConfig selects the listings backend and tunes its connection.
type DatabaseConfig struct {
	Driver     string `koanf:"driver" validate:"required,oneof=mongodb postgres memory"`
	ConnString string `koanf:"conn_string" validate:"required_unless=Driver memory"`

	// Name and Collection are only used by the mongodb driver.
	Name       string `koanf:"name" validate:"required"`
	Collection string `koanf:"collection" validate:"required"`

	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"min=1s"`
	QueryTimeout   time.Duration `koanf:"query_timeout" validate:"min=1s"`

	// Pool tuning. Lifetimes are seconds.
	MaxOpenConns    int `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime int `koanf:"conn_max_idle_time" validate:"min=0"`
}

// RedisConfig contains Redis connection details.
// Address is typically "host:port". Empty disables Redis.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// RateLimitConfig controls the per-client rate limiter on the API routes.
//
// RequestsPerSecond == 0 disables the limiter. Burst is used by the in-memory
// token bucket; the Redis store counts requests in fixed windows of Window.
type RateLimitConfig struct {
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"min=0"`
	Burst             int           `koanf:"burst" validate:"min=0"`
	Window            time.Duration `koanf:"window" validate:"min=1s"`
}

// Enabled reports whether rate limiting is switched on.
func (r RateLimitConfig) Enabled() bool {
	return r.RequestsPerSecond > 0
}

// WindowLimit is the number of requests allowed per Window by the Redis store.
func (r RateLimitConfig) WindowLimit() int64 {
	return int64(math.Max(1, math.Ceil(r.RequestsPerSecond*r.Window.Seconds())))
}

// DefaultConfig returns a Config populated with defaults. Values read from
// the environment are decoded on top of it.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			ShutdownTimeout:    30,
			CORSAllowedOrigins: []string{"*"},
			InitStrategy:       InitEagerBlocking,
			MaxPerPage:         100,
		},
		Database: DatabaseConfig{
			Driver:          DriverMongo,
			Name:            "sample_airbnb",
			Collection:      "listingsAndReviews",
			ConnectTimeout:  10 * time.Second,
			QueryTimeout:    10 * time.Second,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			ConnMaxIdleTime: 60,
		},
		RateLimit: RateLimitConfig{
			Burst:  20,
			Window: time.Second,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// Load loads configuration from environment variables, unmarshals it on top
// of DefaultConfig, validates it and returns the resulting config.
//
// Behavior summary:
//   - Loads env vars with prefix LISTINGS_
//   - Falls back to MONGODB_CONN_STRING / PORT for the two legacy values
//   - Validates struct tags, then the observability block's own rules
//   - Overrides observability service name + environment
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := DefaultConfig()

	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	applyLegacyEnv(mainConfig)

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}

	return mainConfig, nil
}

// Validate checks struct tags and the observability rules, and fills in the
// derived observability fields.
func (c *Config) Validate() error {
	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}

	// Force service name and environment so telemetry naming stays consistent.
	c.Observability.ServiceName = ServiceName
	c.Observability.Environment = c.Primary.Env

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

// applyLegacyEnv honours MONGODB_CONN_STRING and PORT when their prefixed
// equivalents were not given.
func applyLegacyEnv(cfg *Config) {
	if _, ok := os.LookupEnv(EnvPrefix + "DATABASE__CONN_STRING"); !ok {
		if v := os.Getenv(LegacyConnStringEnv); v != "" {
			cfg.Database.ConnString = v
		}
	}

	if _, ok := os.LookupEnv(EnvPrefix + "SERVER__PORT"); !ok {
		if v := os.Getenv(LegacyPortEnv); v != "" {
			cfg.Server.Port = v
		}
	}
}
