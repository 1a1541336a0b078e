package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LISTINGS_DATABASE__CONN_STRING", "mongodb://localhost:27017")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, InitEagerBlocking, cfg.Server.InitStrategy)
	assert.Equal(t, 100, cfg.Server.MaxPerPage)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "sample_airbnb", cfg.Database.Name)
	assert.Equal(t, "listingsAndReviews", cfg.Database.Collection)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.RateLimit.Enabled())
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, cfg.Primary.Env, cfg.Observability.Environment)
}

func TestLoad_PrefixedOverrides(t *testing.T) {
	t.Setenv("LISTINGS_PRIMARY__ENV", "production")
	t.Setenv("LISTINGS_SERVER__PORT", "9000")
	t.Setenv("LISTINGS_SERVER__INIT_STRATEGY", "lazy")
	t.Setenv("LISTINGS_DATABASE__DRIVER", "postgres")
	t.Setenv("LISTINGS_DATABASE__CONN_STRING", "postgres://localhost/listings")
	t.Setenv("LISTINGS_DATABASE__CONNECT_TIMEOUT", "3s")
	t.Setenv("LISTINGS_RATE_LIMIT__REQUESTS_PER_SECOND", "5")
	t.Setenv("LISTINGS_OBSERVABILITY__LOGGING__LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, InitLazy, cfg.Server.InitStrategy)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/listings", cfg.Database.ConnString)
	assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
	assert.True(t, cfg.RateLimit.Enabled())
	assert.Equal(t, int64(5), cfg.RateLimit.WindowLimit())
	assert.Equal(t, "warn", cfg.Observability.Logging.Level)
	assert.True(t, cfg.Observability.IsProduction())
}

func TestLoad_LegacyEnv(t *testing.T) {
	t.Setenv(LegacyConnStringEnv, "mongodb+srv://cluster.example.net")
	t.Setenv(LegacyPortEnv, "3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb+srv://cluster.example.net", cfg.Database.ConnString)
	assert.Equal(t, "3000", cfg.Server.Port)
}

func TestLoad_PrefixedWinsOverLegacy(t *testing.T) {
	t.Setenv(LegacyConnStringEnv, "mongodb://legacy")
	t.Setenv("LISTINGS_DATABASE__CONN_STRING", "mongodb://prefixed")
	t.Setenv(LegacyPortEnv, "3000")
	t.Setenv("LISTINGS_SERVER__PORT", "4000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://prefixed", cfg.Database.ConnString)
	assert.Equal(t, "4000", cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "memory driver needs no connection string",
			mutate: func(c *Config) { c.Database.Driver = DriverMemory },
		},
		{
			name:    "mongodb requires a connection string",
			mutate:  func(c *Config) {},
			wantErr: true,
		},
		{
			name: "unknown init strategy",
			mutate: func(c *Config) {
				c.Database.Driver = DriverMemory
				c.Server.InitStrategy = "whenever"
			},
			wantErr: true,
		},
		{
			name: "unknown driver",
			mutate: func(c *Config) {
				c.Database.Driver = "sqlite"
				c.Database.ConnString = "file::memory:"
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			mutate: func(c *Config) {
				c.Database.Driver = DriverMemory
				c.Observability.Logging.Level = "loud"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRateLimitWindowLimit(t *testing.T) {
	assert.Equal(t, int64(1), RateLimitConfig{RequestsPerSecond: 0.2, Window: time.Second}.WindowLimit())
	assert.Equal(t, int64(60), RateLimitConfig{RequestsPerSecond: 1, Window: time.Minute}.WindowLimit())
}
